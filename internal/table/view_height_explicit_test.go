package table

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
)

var heightAnsiRE = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func stripHeightANSI(s string) string { return heightAnsiRE.ReplaceAllString(s, "") }

// trimRightEachLine trims trailing spaces on every line to make visual
// comparisons robust while keeping human-readable, aligned expectations.
func trimRightEachLine(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " ")
	}
	return strings.Join(lines, "\n")
}

// mkSimpleList creates n rows with 1 column equal to the ID.
func mkSimpleList(n int) *SliceList {
	rows := make([]Row, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("id-%04d", i)
		r := SimpleRow{ID: id}
		r.SetColumn(0, id, nil)
		rows = append(rows, r)
	}
	return NewSliceList(rows)
}

// TestView_25x6_BottomShowsLastRow covers a table taller than its viewport:
// height 6 budgets 1 header line, 1 footer line, and 4 body rows, so scrolling
// to the bottom must keep the cursor row as the last line rendered.
func TestView_25x6_BottomShowsLastRow(t *testing.T) {
	cols := []Column{{Title: "A", Width: 8}}
	list := mkSimpleList(8) // rows id-0001..id-0008
	bt := NewBigTable(cols, list, 25, 6)

	bt.cursor = list.Len() - 1 // id-0008
	bt.rebuildWindow()

	got := trimRightEachLine(stripHeightANSI(bt.View()))
	lines := strings.Split(got, "\n")
	if lines[0] != "A" {
		t.Fatalf("expected header line %q, got %q", "A", lines[0])
	}
	last := lines[len(lines)-1]
	if last != "8/8" {
		t.Fatalf("expected footer position 8/8, got %q", last)
	}
	if !strings.Contains(got, "id-0005") || !strings.Contains(got, "id-0008") {
		t.Fatalf("expected rows id-0005..id-0008 to be visible, got:\n%s", got)
	}
}
