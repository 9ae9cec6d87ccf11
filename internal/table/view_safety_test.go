package table

import (
	"strings"
	"testing"
)

func TestViewNoReplacementRune(t *testing.T) {
	cols := []Column{{Title: "Col1", Width: 8}, {Title: "Col2", Width: 8}, {Title: "Col3", Width: 8}}
	rows := []Row{
		SimpleRow{ID: "a", Cells: []string{"id-0001", "ERROR", "row-0001 col-03 sample"}},
		SimpleRow{ID: "b", Cells: []string{"id-0002", "OK", "row-0002 col-03 sample"}},
	}
	bt := NewBigTable(cols, NewSliceList(rows), 24, 8)
	s := bt.View()
	if strings.ContainsRune(s, '�') {
		t.Fatalf("view contains replacement rune: %q", s)
	}
}
