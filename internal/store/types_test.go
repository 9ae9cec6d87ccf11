package store

import (
	"testing"

	"github.com/orca-cli/orca/internal/kinds"
)

func row(uid, ns, name string) ResourceRow {
	return ResourceRow{UID: uid, Namespace: ns, Name: name, Columns: []string{name}}
}

func TestSelectionPreservedAcrossResync(t *testing.T) {
	tbl := NewResourceTable(kinds.Pods, AllNamespaces())
	tbl.Resync([]ResourceRow{row("1", "default", "web-1"), row("2", "default", "web-2")})
	tbl.Select("2")

	tbl.Resync([]ResourceRow{row("1", "default", "web-1"), row("2", "default", "web-2"), row("3", "default", "web-3")})

	if tbl.SelectionUID != "2" {
		t.Fatalf("expected selection to survive resync, got %q", tbl.SelectionUID)
	}
}

func TestSelectionSnapsToNearestOnResync(t *testing.T) {
	tbl := NewResourceTable(kinds.Pods, AllNamespaces())
	tbl.Resync([]ResourceRow{row("1", "default", "a"), row("2", "default", "b"), row("3", "default", "c")})
	tbl.Select("2")

	// "b" (uid 2) is gone in the resync; selection should snap to a neighbor.
	tbl.Resync([]ResourceRow{row("1", "default", "a"), row("3", "default", "c")})

	if tbl.SelectionUID == "" {
		t.Fatalf("expected a snapped selection, got none")
	}
	found := false
	for _, r := range tbl.Rows() {
		if r.UID == tbl.SelectionUID {
			found = true
		}
	}
	if !found {
		t.Fatalf("snapped selection %q not present in surviving rows", tbl.SelectionUID)
	}
}

func TestFilterIdempotence(t *testing.T) {
	tbl := NewResourceTable(kinds.Pods, AllNamespaces())
	tbl.Resync([]ResourceRow{row("1", "default", "web-1"), row("2", "kube-system", "coredns-1")})

	tbl.SetFilter("web")
	first := tbl.FilteredIndex()
	tbl.SetFilter("web")
	second := tbl.FilteredIndex()

	if len(first) != len(second) || len(first) != 1 || first[0].UID != second[0].UID {
		t.Fatalf("expected idempotent filtered index, got %+v then %+v", first, second)
	}
}

func TestScopeRestrictionExcludesOtherNamespaces(t *testing.T) {
	tbl := NewResourceTable(kinds.Pods, NamespaceScope("default"))
	tbl.Resync([]ResourceRow{row("1", "default", "web-1")})
	for _, r := range tbl.Rows() {
		if r.Namespace != "default" {
			t.Fatalf("row from wrong namespace leaked into scoped table: %+v", r)
		}
	}
}

func TestClusterScopedKeyIgnoresNamespace(t *testing.T) {
	k1 := Key(kinds.Nodes, NamespaceScope("a"))
	k2 := Key(kinds.Nodes, NamespaceScope("b"))
	if k1 != k2 {
		t.Fatalf("expected cluster-scoped keys to collapse, got %q vs %q", k1, k2)
	}
}

func TestSelectionMustBeInFilteredIndex(t *testing.T) {
	tbl := NewResourceTable(kinds.Pods, AllNamespaces())
	tbl.Resync([]ResourceRow{row("1", "default", "web-1"), row("2", "default", "other")})
	tbl.Select("2")
	tbl.SetFilter("web")
	if tbl.SelectionUID != "" {
		t.Fatalf("expected selection to clear when filtered out, got %q", tbl.SelectionUID)
	}
}

func TestNoDuplicateUIDs(t *testing.T) {
	tbl := NewResourceTable(kinds.Pods, AllNamespaces())
	tbl.Upsert(row("1", "default", "a"))
	tbl.Upsert(row("1", "default", "a-renamed"))
	if len(tbl.Rows()) != 1 {
		t.Fatalf("expected upsert of known uid to not duplicate, got %d rows", len(tbl.Rows()))
	}
}

func TestSelectionSnapsToNearestOnDelete(t *testing.T) {
	tbl := NewResourceTable(kinds.Pods, AllNamespaces())
	tbl.Resync([]ResourceRow{row("1", "default", "a"), row("2", "default", "b"), row("3", "default", "c")})
	tbl.Select("2")

	tbl.Delete("2")

	if tbl.SelectionUID == "" {
		t.Fatalf("expected a snapped selection after deleting the selected row")
	}
	found := false
	for _, r := range tbl.Rows() {
		if r.UID == tbl.SelectionUID {
			found = true
		}
	}
	if !found {
		t.Fatalf("snapped selection %q not present in surviving rows", tbl.SelectionUID)
	}
}
