package table

import (
	"strings"
	"testing"
)

func TestRenderRowAppliesCursorStyle(t *testing.T) {
	rows := []Row{
		SimpleRow{ID: "a", Cells: []string{"A", "B"}},
		SimpleRow{ID: "b", Cells: []string{"X", "Y"}},
	}
	bt := NewBigTable(mkCols(2, 4), NewSliceList(rows), 40, 8)

	focused := bt.renderRow(rows[0], true)
	plain := bt.renderRow(rows[1], false)

	if !strings.Contains(focused, "\x1b[") {
		t.Fatalf("expected focused row to carry ANSI styling, got %q", focused)
	}
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("expected unfocused row with no cell styles to render plain, got %q", plain)
	}
}
