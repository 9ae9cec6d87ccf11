// Package store implements the Resource Store & Watch Multiplexer:
// one live watch session per (kind, scope), materialized into an in-memory
// ResourceTable with incremental filter indexing, reconnect/backoff, resync,
// and a polling fallback for kinds that don't support watch.
//
// Rows carry the server's own metav1.Table cells rather than per-kind typed
// fields, so the store stays agnostic of what any one kind looks like.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/orca-cli/orca/internal/kinds"
)

// Scope selects the namespace filter applied to a resource listing.
type Scope struct {
	All       bool   // AllNamespaces
	Namespace string // Namespace(name); empty when All or Cluster
	Cluster   bool   // Cluster-scoped kind, namespace is meaningless
}

// AllNamespaces is the {AllNamespaces} scope variant.
func AllNamespaces() Scope { return Scope{All: true} }

// NamespaceScope is the {Namespace(name)} scope variant.
func NamespaceScope(name string) Scope { return Scope{Namespace: name} }

// ClusterScope is the {Cluster} scope variant.
func ClusterScope() Scope { return Scope{Cluster: true} }

// Key returns the stable (kind, scope) key used to index watch sessions and
// ResourceTables. Cluster-scoped kinds always normalize to the same key
// regardless of the caller-supplied scope: namespace selection never applies
// to them.
func Key(kind kinds.ResourceKind, scope Scope) string {
	if kinds.ClusterScopedKind(kind) {
		return fmt.Sprintf("%s/@cluster", kind)
	}
	switch {
	case scope.All:
		return fmt.Sprintf("%s/@all", kind)
	case scope.Cluster:
		return fmt.Sprintf("%s/@cluster", kind)
	default:
		return fmt.Sprintf("%s/%s", kind, scope.Namespace)
	}
}

// Normalize returns the effective scope after applying the cluster-scoped
// override.
func Normalize(kind kinds.ResourceKind, scope Scope) Scope {
	if kinds.ClusterScopedKind(kind) {
		return ClusterScope()
	}
	return scope
}

// ResourceRow is one row of a ResourceTable, keyed by (kind, uid).
type ResourceRow struct {
	UID         string
	Kind        kinds.ResourceKind
	Namespace   string // empty for cluster-scoped kinds
	Name        string
	ColumnNames []string // server's metav1.Table column titles, aligned with Columns
	Columns     []string // ordered, server-supplied display columns
	Age         string
	StatusHint  string
	Extra       map[string]string
}

// matchKey is the substring the row filter matches against: displayable
// columns plus name and namespace.
func (r ResourceRow) matchKey() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte(' ')
	b.WriteString(r.Namespace)
	for _, c := range r.Columns {
		b.WriteByte(' ')
		b.WriteString(c)
	}
	return strings.ToLower(b.String())
}

// ResourceTable is the live view over one (kind, scope).
//
// mu guards every field below: watch/poll sessions mutate it from their own
// goroutine (via Multiplexer.applyDelta) while the runtime loop reads it on
// every render tick, so Upsert/Delete/Resync/SetFilter/Select take the write
// lock and Rows/FilteredIndex take the read lock.
type ResourceTable struct {
	Kind  kinds.ResourceKind
	Scope Scope

	mu           sync.RWMutex
	rows         map[string]ResourceRow // uid -> row
	order        []string               // uids in (namespace, name) order
	FilterQuery  string
	filteredIdx  []string // uids matching FilterQuery, in order
	SelectionUID string
	Revision     uint64
}

// NewResourceTable creates an empty table for the given (kind, scope).
func NewResourceTable(kind kinds.ResourceKind, scope Scope) *ResourceTable {
	return &ResourceTable{
		Kind:  kind,
		Scope: Normalize(kind, scope),
		rows:  make(map[string]ResourceRow),
	}
}

// Rows returns the full row set in (namespace, name) order.
func (t *ResourceTable) Rows() []ResourceRow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ResourceRow, 0, len(t.order))
	for _, uid := range t.order {
		out = append(out, t.rows[uid])
	}
	return out
}

// FilteredIndex returns the rows currently matching FilterQuery, in order.
func (t *ResourceTable) FilteredIndex() []ResourceRow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ResourceRow, 0, len(t.filteredIdx))
	for _, uid := range t.filteredIdx {
		out = append(out, t.rows[uid])
	}
	return out
}

// Upsert applies an Added/Modified delta. Duplicate uids are impossible: an
// upsert of a known uid replaces it in place, preserving its position only
// if the (namespace, name) sort key is unchanged; otherwise the row is
// re-sorted.
func (t *ResourceTable) Upsert(row ResourceRow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, existed := t.rows[row.UID]
	t.rows[row.UID] = row
	if !existed {
		t.order = append(t.order, row.UID)
	}
	t.resort()
	t.reindexFilter()
	t.Revision++
}

// Delete applies a Deleted delta. A deleted selection snaps to the nearest
// surviving row by its prior position, the same rule Resync applies: the
// invariant holds for every row-set change, not just a full resync.
func (t *ResourceTable) Delete(uid string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[uid]; !ok {
		return
	}
	priorOrder := append([]string(nil), t.order...)
	delete(t.rows, uid)
	for i, id := range t.order {
		if id == uid {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.reindexFilter()
	t.resnapSelection(priorOrder)
	t.Revision++
}

// Resync replaces the entire row set, as when the watch server signals the
// resource version is too old and the store must fall back to a full list.
// selection_uid is preserved if still present, otherwise snapped to the
// nearest surviving row by its prior position.
func (t *ResourceTable) Resync(rows []ResourceRow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// Copy: the append loop below reuses t.order's backing array.
	priorOrder := append([]string(nil), t.order...)

	t.rows = make(map[string]ResourceRow, len(rows))
	t.order = t.order[:0]
	for _, r := range rows {
		t.rows[r.UID] = r
		t.order = append(t.order, r.UID)
	}
	t.resort()
	t.reindexFilter()
	t.resnapSelection(priorOrder)
	t.Revision++
}

// resnapSelection re-anchors a vanished selection onto the nearest surviving
// row by the position it held in priorOrder. A selection still present is
// left untouched.
func (t *ResourceTable) resnapSelection(priorOrder []string) {
	if t.SelectionUID == "" {
		return
	}
	if _, ok := t.rows[t.SelectionUID]; ok {
		return
	}
	priorIdx := -1
	for i, uid := range priorOrder {
		if uid == t.SelectionUID {
			priorIdx = i
			break
		}
	}
	t.SelectionUID = nearestSurviving(priorOrder, priorIdx, t.order)
}

// nearestSurviving finds the uid in newOrder closest to the prior index the
// (now-vanished) selection held in oldOrder.
func nearestSurviving(oldOrder []string, priorIdx int, newOrder []string) string {
	if len(newOrder) == 0 {
		return ""
	}
	if priorIdx < 0 {
		return newOrder[0]
	}
	// Walk outward from priorIdx in oldOrder, looking for a uid that still
	// exists in newOrder; the first such uid's new position anchors the
	// selection. If nothing in range exists, fall back to the closest index.
	newSet := make(map[string]bool, len(newOrder))
	for _, u := range newOrder {
		newSet[u] = true
	}
	for radius := 0; radius < len(oldOrder); radius++ {
		if i := priorIdx - radius; i >= 0 && i < len(oldOrder) && newSet[oldOrder[i]] {
			return oldOrder[i]
		}
		if i := priorIdx + radius; i >= 0 && i < len(oldOrder) && newSet[oldOrder[i]] {
			return oldOrder[i]
		}
	}
	if priorIdx >= len(newOrder) {
		return newOrder[len(newOrder)-1]
	}
	return newOrder[priorIdx]
}

func (t *ResourceTable) resort() {
	sort.SliceStable(t.order, func(i, j int) bool {
		a, b := t.rows[t.order[i]], t.rows[t.order[j]]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.Name < b.Name
	})
}

// SetFilter applies a new case-insensitive substring query and fully
// recomputes the filtered index ("fully on query changes").
func (t *ResourceTable) SetFilter(query string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.FilterQuery = query
	t.reindexFilter()
	t.snapSelection()
}

func (t *ResourceTable) reindexFilter() {
	q := strings.ToLower(strings.TrimSpace(t.FilterQuery))
	if q == "" {
		t.filteredIdx = append([]string(nil), t.order...)
		return
	}
	idx := make([]string, 0, len(t.order))
	for _, uid := range t.order {
		if strings.Contains(t.rows[uid].matchKey(), q) {
			idx = append(idx, uid)
		}
	}
	t.filteredIdx = idx
}

// snapSelection enforces the invariant that SelectionUID, if set, is present
// in the filtered index; otherwise it is cleared (the view layer may then
// select the nearest remaining row).
func (t *ResourceTable) snapSelection() {
	if t.SelectionUID == "" {
		return
	}
	for _, uid := range t.filteredIdx {
		if uid == t.SelectionUID {
			return
		}
	}
	t.SelectionUID = ""
}

// Select sets the selection if the uid is present in the filtered index.
func (t *ResourceTable) Select(uid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.filteredIdx {
		if id == uid {
			t.SelectionUID = uid
			return true
		}
	}
	return false
}
