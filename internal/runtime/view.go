package runtime

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	sigsyaml "sigs.k8s.io/yaml"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/orca-cli/orca/internal/action"
	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/mode"
	"github.com/orca-cli/orca/internal/registry"
	"github.com/orca-cli/orca/internal/slots"
	orctable "github.com/orca-cli/orca/internal/table"
	"github.com/orca-cli/orca/internal/store"
)

// defaultColumns is the generic Name/Namespace/Age header set shown before
// the first server response arrives; once a ResourceTable holds rows, the
// server's own column definitions (carried on store.ResourceRow.ColumnNames)
// replace it.
func defaultColumns(kind kinds.ResourceKind) []string {
	if kinds.ClusterScopedKind(kind) {
		return []string{"Name", "Age"}
	}
	return []string{"Namespace", "Name", "Age"}
}

// pfColumnKind reports whether kind carries the trailing PF column showing
// active port-forward sessions for each row.
func pfColumnKind(kind kinds.ResourceKind) bool {
	return kind == kinds.Pods || kind == kinds.Services
}

// columnsFor builds the BigTable header row for kind, preferring the live
// column names the server's `as=Table` response carried on the
// ResourceTable's rows (if any have arrived yet) over the generic default.
func columnsFor(kind kinds.ResourceKind, resTable *store.ResourceTable) []orctable.Column {
	names := defaultColumns(kind)
	if resTable != nil {
		if rows := resTable.Rows(); len(rows) > 0 && len(rows[0].ColumnNames) > 0 {
			names = rows[0].ColumnNames
		}
	}
	cols := make([]orctable.Column, len(names))
	for i, n := range names {
		cols[i] = orctable.Column{Title: n, Width: 14}
	}
	if pfColumnKind(kind) {
		cols = append(cols, orctable.Column{Title: "PF", Width: 10})
	}
	return cols
}

// rowToSimpleRow converts one server-delegated ResourceRow into the table
// package's generic Row shape. The server's own cells are used as they are;
// only when the server supplied none do the cells fall back to
// Namespace/Name/Age (Name/Age for cluster-scoped rows), as defaultColumns
// does for the header.
func rowToSimpleRow(row store.ResourceRow) orctable.SimpleRow {
	cells := append([]string(nil), row.Columns...)
	if len(cells) == 0 {
		if row.Namespace != "" {
			cells = []string{row.Namespace, row.Name, row.Age}
		} else {
			cells = []string{row.Name, row.Age}
		}
	}
	var styles []*lipgloss.Style
	if row.StatusHint != "" {
		st := statusStyle(row.StatusHint)
		styles = make([]*lipgloss.Style, len(cells))
		for i := range styles {
			styles[i] = st
		}
	}
	return orctable.SimpleRow{ID: row.UID, Cells: cells, Styles: styles}
}

func statusStyle(hint string) *lipgloss.Style {
	var s lipgloss.Style
	switch strings.ToLower(hint) {
	case "error", "failed", "crashloopbackoff":
		s = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	case "warning", "pending":
		s = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	default:
		return nil
	}
	return &s
}

// rowsToList builds the table package's windowed data provider from a
// ResourceTable's currently filtered rows. pf, when non-nil, supplies the
// trailing PF cell for each row.
func rowsToList(rows []store.ResourceRow, pf func(store.ResourceRow) string) orctable.List {
	out := make([]orctable.Row, len(rows))
	for i, r := range rows {
		sr := rowToSimpleRow(r)
		if pf != nil {
			sr.Cells = append(sr.Cells, pf(r))
		}
		out[i] = sr
	}
	return orctable.NewSliceList(out)
}

// pfCellFunc returns the PF-cell renderer for kind, or nil when the kind
// carries no PF column.
func (l *Loop) pfCellFunc(kind kinds.ResourceKind) func(store.ResourceRow) string {
	if !pfColumnKind(kind) {
		return nil
	}
	return func(row store.ResourceRow) string {
		sessions := l.sup.PF.ForTarget(action.PFTarget{Kind: row.Kind, Namespace: row.Namespace, Name: row.Name})
		if len(sessions) == 0 {
			return ""
		}
		parts := make([]string, 0, len(sessions))
		for _, s := range sessions {
			st, _ := s.State()
			mark := ""
			switch st {
			case action.PFStarting:
				mark = "~"
			case action.PFFailed:
				mark = "!"
			}
			parts = append(parts, fmt.Sprintf("%s%d:%d", mark, s.LocalPort, s.RemotePort))
		}
		return strings.Join(parts, ",")
	}
}

// newWidgetFor constructs a fresh BigTable bound to kind's columns and
// resTable's current rows, used whenever the active slot switches to a
// different (kind, scope).
func (l *Loop) newWidgetFor(kind kinds.ResourceKind, resTable *store.ResourceTable, w, h int) orctable.BigTable {
	return orctable.NewBigTable(columnsFor(kind, resTable), rowsToList(resTable.FilteredIndex(), l.pfCellFunc(kind)), w, h)
}

// marshalForEdit renders a live object as YAML for the `:edit` temp file,
// the same sigs.k8s.io/yaml round-trip pkg/config uses for its own
// on-disk format.
func marshalForEdit(obj client.Object) ([]byte, error) {
	data, err := sigsyaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("runtime: marshal %s/%s for edit: %w", obj.GetNamespace(), obj.GetName(), err)
	}
	return data, nil
}

// joinArgs renders a plugin invocation's trailing arguments for the
// {args} placeholder.
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

// placeholderContext builds the registry.PlaceholderContext a plugin or
// alias template expands against, sourced from the active slot's current
// selection and the live kubeconfig context.
func (l *Loop) placeholderContext() registry.PlaceholderContext {
	ctx := registry.PlaceholderContext{
		Resource: l.activeKind.String(),
	}
	switch {
	case l.scope.All:
		ctx.Scope = "all-namespaces"
		ctx.AllNamespaces = true
	case l.scope.Cluster:
		ctx.Scope = "cluster"
	default:
		ctx.Scope = "namespace"
		ctx.Namespace = l.scope.Namespace
	}
	if sel := l.currentSelection(); sel != nil {
		ctx.Name = sel.Name
		if sel.Namespace != "" {
			ctx.Namespace = sel.Namespace
			ctx.Target = sel.Namespace + "/" + sel.Name
		} else {
			ctx.Target = sel.Name
		}
	}
	if l.kubecfg != nil {
		name := l.kubecfg.CurrentContext()
		ctx.Context = name
		for _, c := range l.kubecfg.Contexts() {
			if c.Name == name {
				ctx.Cluster = c.Cluster
				ctx.User = c.User
				break
			}
		}
	}
	return ctx
}

// candidates feeds the Mode Interpreter's Tab-autocomplete: registered
// aliases, plugin names, the builtin verb vocabulary, resource kind names,
// and the names of the active kind's rows, filtered by prefix.
func (l *Loop) candidates(prefix string) []string {
	var out []string
	for _, v := range l.reg.Aliases() {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	for _, v := range l.reg.Plugins() {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	for v := range registry.BuiltinVerbs {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	for _, c := range kinds.All() {
		if strings.HasPrefix(c.Canonical, prefix) {
			out = append(out, c.Canonical)
		}
	}
	for _, row := range l.resTable.Rows() {
		if strings.HasPrefix(row.Name, prefix) {
			out = append(out, row.Name)
		}
	}
	return out
}

// renderTopBar shows the active slot id, resource kind/scope, and any
// non-error status.
func (l *Loop) renderTopBar(slot *slots.ViewSlot) string {
	scopeStr := "ns:" + l.scope.Namespace
	switch {
	case l.scope.All:
		scopeStr = "all-namespaces"
	case l.scope.Cluster:
		scopeStr = "cluster-scoped"
	}
	ro := ""
	if l.readOnly {
		ro = " [readonly]"
	}
	left := fmt.Sprintf("[%d] %s (%s)%s", slot.ID, l.activeKind, scopeStr, ro)
	if l.statusLine != "" && !l.statusIsErr {
		return left + "  " + l.statusLine
	}
	return left
}

// renderBottomBar shows the confirm prompt, the live `:`/`>`/`/` input
// buffer, or an error status line, in that precedence order.
func (l *Loop) renderBottomBar() string {
	if pa := l.gate.Pending(); pa != nil {
		prompt := pa.PromptText
		if prompt == "" {
			prompt = fmt.Sprintf("%s %s? (y/n)", pa.Kind, pa.Target)
		}
		return prompt
	}
	switch l.interp.Mode() {
	case mode.Command:
		return ":" + l.interp.Buffer()
	case mode.Jump:
		return ">" + l.interp.Buffer()
	case mode.Filter:
		return "/" + l.interp.Buffer()
	}
	if l.statusIsErr && l.statusLine != "" {
		return "! " + l.statusLine
	}
	return ""
}

// renderOverlay dispatches to the active slot's overlay. Catalog/help/dev-ops
// overlays render a placeholder summary here; the embedded shell pane
// (OverlayShell) renders the live bubbleterm pane content, and log/detail
// overlays render every line the arena buffer holds (the buffer's own cap
// bounds how many that is).
func (l *Loop) renderOverlay(slot *slots.ViewSlot) string {
	ov := slot.Overlay
	switch ov.Kind {
	case slots.OverlayShell:
		if sess, ok := l.sup.Shells.Get(ov.BufferKey); ok {
			view, _ := sess.View()
			return view
		}
		return "shell session closed"
	case slots.OverlayLogs, slots.OverlayDetails:
		buf := l.slotsMgr.Buffer(ov.BufferKey)
		if buf == nil {
			return ""
		}
		return strings.Join(buf.Lines, "\n")
	case slots.OverlayCatalogContexts:
		var b strings.Builder
		for _, c := range l.kubecfg.Contexts() {
			fmt.Fprintf(&b, "%s (cluster=%s user=%s current=%v)\n", c.Name, c.Cluster, c.User, c.Current)
		}
		return b.String()
	case slots.OverlayCatalogClusters:
		var b strings.Builder
		for _, c := range l.kubecfg.Clusters() {
			fmt.Fprintf(&b, "%s %s\n", c.Name, c.Server)
		}
		return b.String()
	case slots.OverlayCatalogUsers:
		var b strings.Builder
		for _, u := range l.kubecfg.Users() {
			fmt.Fprintf(&b, "%s\n", u.Name)
		}
		return b.String()
	case slots.OverlayCatalogCRDs:
		var b strings.Builder
		for _, c := range kinds.All() {
			if c.Dynamic {
				continue
			}
			fmt.Fprintf(&b, "%s (%s)\n", c.Canonical, c.GVK)
		}
		return b.String()
	case slots.OverlayHelp:
		return "`:` command  `>` jump  `/` filter  ctrl+1..9 switch slot  ctrl+alt+0..9 close slot"
	case slots.OverlayDevOpsTool:
		return fmt.Sprintf("%s: not yet connected", ov.DevOpsToolName)
	default:
		return ""
	}
}
