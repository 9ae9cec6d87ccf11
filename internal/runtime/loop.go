// Package runtime implements the Runtime Loop: the single
// bubbletea tea.Model that owns the render tick, drains the Event Bus in
// bounded batches, and is the only goroutine that mutates UI-visible state.
// Every other collaborator (watch sessions, background tasks, the config
// watcher) only ever reaches this state through bus messages or the tea.Cmd
// channel reads this file issues.
package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/orca-cli/orca/internal/action"
	"github.com/orca-cli/orca/internal/bus"
	"github.com/orca-cli/orca/internal/command"
	"github.com/orca-cli/orca/internal/confirm"
	"github.com/orca-cli/orca/internal/k8s"
	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/mode"
	"github.com/orca-cli/orca/internal/registry"
	"github.com/orca-cli/orca/internal/slots"
	"github.com/orca-cli/orca/internal/store"
	orctable "github.com/orca-cli/orca/internal/table"
	"github.com/orca-cli/orca/pkg/config"
)

// idleSweepInterval also drives the periodic render refresh when no watch
// delta has arrived recently.
const idleSweepInterval = 5 * time.Second

// Deps bundles every already-constructed collaborator the Loop drives.
// main.go builds each of these and hands them over; Loop itself constructs
// nothing beyond its own bookkeeping state.
type Deps struct {
	Bus        *bus.Bus
	Mux        *store.Multiplexer
	Slots      *slots.Manager
	Registry   *registry.Registry
	Gate       *confirm.Gate
	Supervisor *action.Supervisor
	Client     *k8s.Client
	Mutations  *k8s.Mutations
	Kubeconfig *k8s.Kubeconfig
	ConfigFile *config.Watcher // nil disables hot-reload
	Log        logr.Logger

	InitialKind  kinds.ResourceKind
	Scope        store.Scope
	ReadOnly     bool
	ScaleConfirm bool
	RefreshMs    int
	Editor       string // $KUBE_EDITOR or $EDITOR, may be empty
}

// Loop is the runtime loop: a tea.Model tying the resource store, view slot
// manager, mode interpreter, command dispatcher, confirmation gate, action
// supervisor, and hotkey/alias/plugin registry into one render tick.
type Loop struct {
	bus        *bus.Bus
	mux        *store.Multiplexer
	slotsMgr   *slots.Manager
	reg        *registry.Registry
	gate       *confirm.Gate
	sup        *action.Supervisor
	client     *k8s.Client
	mutations  *k8s.Mutations
	kubecfg    *k8s.Kubeconfig
	cfgWatcher *config.Watcher
	log        logr.Logger

	interp *mode.Interpreter

	width, height int
	readOnly      bool
	scaleConfirm  bool
	refreshMs     int
	editor        string

	activeKind  kinds.ResourceKind
	scope       store.Scope
	resTable    *store.ResourceTable
	widget      orctable.BigTable
	statusLine  string
	statusIsErr bool
}

// NewLoop constructs the Runtime Loop over already-wired collaborators.
func NewLoop(d Deps) *Loop {
	l := &Loop{
		bus:          d.Bus,
		mux:          d.Mux,
		slotsMgr:     d.Slots,
		reg:          d.Registry,
		gate:         d.Gate,
		sup:          d.Supervisor,
		client:       d.Client,
		mutations:    d.Mutations,
		kubecfg:      d.Kubeconfig,
		cfgWatcher:   d.ConfigFile,
		log:          d.Log,
		readOnly:     d.ReadOnly,
		scaleConfirm: d.ScaleConfirm,
		refreshMs:    d.RefreshMs,
		editor:       d.Editor,
		activeKind:   d.InitialKind,
		scope:        d.Scope,
	}
	l.interp = mode.NewInterpreter(l.candidates)
	l.resTable = l.mux.Table(l.activeKind, l.scope)
	l.widget = l.newWidgetFor(l.activeKind, l.resTable, 80, 24)
	return l
}

// Init starts the three background message sources the loop never blocks
// on directly: the Event Bus, the idle-sweep timer, and (if enabled) the
// Config collaborator's file watcher.
func (l *Loop) Init() tea.Cmd {
	cmds := []tea.Cmd{l.busCmd(), l.tickCmd()}
	if l.cfgWatcher != nil {
		go l.cfgWatcher.Run()
		cmds = append(cmds, l.cfgCmd())
	}
	return tea.Batch(cmds...)
}

// busMsg wraps a bus.Msg so Update can distinguish it from bubbletea's own
// message types in the type switch.
type busMsg bus.Msg

// tickMsg drives Multiplexer.IdleSweep and a render-model refresh.
type tickMsg struct{}

// configSnapshotMsg carries a freshly parsed configuration from the Config
// collaborator's file watcher.
type configSnapshotMsg config.Snapshot

// configErrMsg reports a reload parse failure; the previous snapshot stays
// in effect.
type configErrMsg struct{ err error }

// foregroundDoneMsg reports the exit of a terminal handoff: :edit, :exec, or
// a foreground plugin.
type foregroundDoneMsg struct {
	verb string
	err  error
}

// mutationResultMsg reports a confirmed delete/restart/scale's outcome.
type mutationResultMsg struct {
	action confirm.ActionKind
	target confirm.ResourceRef
	err    error
}

func (l *Loop) busCmd() tea.Cmd {
	return func() tea.Msg {
		return busMsg(<-l.bus.Chan())
	}
}

func (l *Loop) tickCmd() tea.Cmd {
	return tea.Tick(idleSweepInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (l *Loop) cfgCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-l.cfgWatcher.Updates():
			return configSnapshotMsg(snap)
		case err := <-l.cfgWatcher.Errors():
			return configErrMsg{err: err}
		}
	}
}

// Update is the Runtime Loop's tick: resolve the incoming message, mutate
// only loop-owned state, and schedule the next round of background reads.
func (l *Loop) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		l.width, l.height = m.Width, m.Height
		l.widget.SetSize(m.Width, maxInt(6, m.Height-3))

	case tea.KeyMsg:
		cmds = append(cmds, l.handleKey(m)...)

	case busMsg:
		l.handleBusMsg(bus.Msg(m))
		cmds = append(cmds, l.busCmd())

	case tickMsg:
		l.mux.IdleSweep(0)
		l.refreshWidget()
		cmds = append(cmds, l.tickCmd())

	case configSnapshotMsg:
		l.applyConfigSnapshot(config.Snapshot(m))
		cmds = append(cmds, l.cfgCmd())

	case configErrMsg:
		l.setStatus(fmt.Sprintf("config reload failed: %v", m.err), true)
		cmds = append(cmds, l.cfgCmd())

	case foregroundDoneMsg:
		if m.err != nil {
			l.setStatus(fmt.Sprintf("%s exited with error: %v", m.verb, m.err), true)
		} else {
			l.setStatus(fmt.Sprintf("%s finished", m.verb), false)
		}

	case mutationResultMsg:
		l.handleMutationResult(m)
	}

	return l, tea.Batch(cmds...)
}

// View renders the active slot: a one-line status/mode bar, the resource
// table (or the active overlay, once one is open), and an input/footer
// line showing the live `:`/`>`/`/` buffer or a confirm prompt.
func (l *Loop) View() string {
	slot := l.slotsMgr.Active()
	top := l.renderTopBar(slot)
	body := l.widget.View()
	if slot.Overlay != nil {
		body = l.renderOverlay(slot)
	}
	bottom := l.renderBottomBar()
	return top + "\n" + body + "\n" + bottom
}

func (l *Loop) setStatus(s string, isErr bool) {
	l.statusLine = s
	l.statusIsErr = isErr
}

// refreshWidget re-derives the BigTable's data provider from the current
// ResourceTable's filtered index. Called on every bus Watch delta for the
// active (kind, scope) and on the idle tick, so the list reflects the
// latest revision without disturbing interpreter/selection state.
func (l *Loop) refreshWidget() {
	l.widget.SetList(rowsToList(l.resTable.FilteredIndex(), l.pfCellFunc(l.activeKind)))
}

func (l *Loop) handleBusMsg(m bus.Msg) {
	switch {
	case m.Watch != nil:
		// The multiplexer has already applied this delta to its
		// ResourceTable (single-writer discipline); the loop only
		// needs to redraw the bound widget when the delta is for the slot's
		// currently active (kind, scope).
		if m.Watch.Kind == l.activeKind && store.Key(m.Watch.Kind, m.Watch.Scope) == store.Key(l.activeKind, l.scope) {
			l.refreshWidget()
		}
	case m.TaskOutput != nil:
		l.appendTaskOutput(m.TaskOutput.TaskID, m.TaskOutput.Bytes)
	case m.TaskExit != nil:
		l.setStatus(fmt.Sprintf("task %s finished", m.TaskExit.TaskID), m.TaskExit.Err != nil)
	case m.Timer != nil:
		// Named timers (PF health, refresh cadence) currently only drive a
		// redraw; specific timer IDs are reserved for future use.
	case m.ConfigReloaded != nil:
		if err := l.reg.Reload(m.ConfigReloaded.Aliases, m.ConfigReloaded.Hotkeys, nil); err != nil {
			l.setStatus(fmt.Sprintf("config reload rejected: %v", err), true)
		}
	}
}

// appendTaskOutput writes a background task's output chunk, split into
// lines, into the arena buffer backing the overlay that started it. Output
// for a task no longer owned by the active slot's overlay is dropped.
func (l *Loop) appendTaskOutput(taskID string, chunk []byte) {
	slot := l.slotsMgr.Active()
	ov := slot.Overlay
	if ov == nil || ov.BufferKey == "" {
		return
	}
	if ov.TaskID != taskID {
		return
	}
	buf := l.slotsMgr.Buffer(ov.BufferKey)
	if buf == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(chunk), "\n"), "\n") {
		buf.Append(line)
	}
}

func (l *Loop) applyConfigSnapshot(snap config.Snapshot) {
	if err := l.reg.Reload(snap.Aliases, snap.Hotkeys, snap.Plugins); err != nil {
		l.setStatus(fmt.Sprintf("config reload rejected: %v", err), true)
		return
	}
	l.setStatus("configuration reloaded", false)
}

func (l *Loop) handleMutationResult(m mutationResultMsg) {
	if m.err != nil {
		l.setStatus(fmt.Sprintf("%s %s failed: %v", m.action, m.target, m.err), true)
		return
	}
	l.setStatus(fmt.Sprintf("%s %s succeeded", m.action, m.target), false)
}

// currentSelection reads the active slot's frame selection against the
// live ResourceTable to build a command.Selection.
func (l *Loop) currentSelection() *command.Selection {
	slot := l.slotsMgr.Active()
	frame := slot.Drill.Top()
	if frame.SelectionUID == "" {
		return nil
	}
	for _, row := range l.resTable.Rows() {
		if row.UID == frame.SelectionUID {
			return &command.Selection{Kind: row.Kind, Namespace: row.Namespace, Name: row.Name}
		}
	}
	return nil
}

// switchRootKind releases the old (kind, scope) session and acquires the
// new one, rebuilding the widget's columns and data provider.
func (l *Loop) switchRootKind(kind kinds.ResourceKind, scope store.Scope) {
	l.mux.Release(l.activeKind, l.scope)
	l.activeKind = kind
	l.scope = store.Normalize(kind, scope)
	l.resTable = l.mux.Table(l.activeKind, l.scope)
	l.widget = l.newWidgetFor(l.activeKind, l.resTable, l.width, maxInt(6, l.height-3))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// editorCommand resolves the command launched by `:edit`, honoring
// KUBE_EDITOR then EDITOR then a vi fallback, matching kubectl's own
// resolution order.
func (l *Loop) editorCommand(path string) *exec.Cmd {
	bin := l.editor
	if bin == "" {
		bin = "vi"
	}
	return exec.Command(bin, path)
}

// backgroundContext is the parent context for long-running background
// tasks (log tails, shell panes); cancelled only by explicit task teardown,
// never by the render tick.
func backgroundContext() context.Context { return context.Background() }
