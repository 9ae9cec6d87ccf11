package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/orca-cli/orca/internal/action"
	"github.com/orca-cli/orca/internal/command"
	"github.com/orca-cli/orca/internal/confirm"
	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/mode"
	"github.com/orca-cli/orca/internal/registry"
	"github.com/orca-cli/orca/internal/slots"
	"github.com/orca-cli/orca/internal/store"
	"github.com/orca-cli/orca/pkg/config"
)

// handleKey feeds one bubbletea key event through the hotkey tiers: an
// embedded shell pane first (if the active slot has one open), a user hotkey
// next, then the built-in Mode Interpreter, then a no-op. It returns the
// tea.Cmds, if any, the resulting action produces.
func (l *Loop) handleKey(m tea.KeyMsg) []tea.Cmd {
	key := m.String()
	l.interp.SetConfirmPending(l.gate.Pending() != nil)
	slot := l.slotsMgr.Active()
	l.interp.SetOverlayActive(slot.Overlay != nil)

	if slot.Overlay != nil && slot.Overlay.Kind == slots.OverlayShell {
		if cmds, handled := l.routeShellKey(slot, key, m); handled {
			return cmds
		}
	}

	if l.interp.Mode() == mode.Normal {
		if target, ok := l.reg.Hotkey(key); ok {
			return l.runCommandString(target, false)
		}
	}

	if slot.Overlay != nil && key == "esc" && l.gate.Pending() == nil {
		l.closeActiveOverlay()
		return nil
	}

	res := l.interp.Key(key)
	switch res.Outcome {
	case mode.Submit:
		raw := l.interp.Buffer()
		submitted := res.NewMode
		l.interp.ResetBuffer()
		if submitted == mode.Filter {
			// The `/` buffer is a filter query, not a command.
			return l.applyEffect(&command.Effect{Kind: command.EffectSetFilter, Filter: raw})
		}
		if raw == "" {
			return nil
		}
		return l.runCommandString(raw, submitted == mode.Jump)

	case mode.Navigate:
		l.navigate(res.NavKey)

	case mode.DrillDown:
		l.drillDown()

	case mode.DrillUp:
		l.drillUp()

	case mode.SlotSwitch:
		l.switchSlot(res.SlotID)

	case mode.SlotCreate:
		l.switchSlot(res.SlotID)

	case mode.SlotDelete:
		l.deleteSlot(res.SlotID)

	case mode.ConfirmYes:
		if pending := l.gate.Pending(); pending != nil {
			if pa := l.gate.Confirm(pending.ID); pa != nil {
				l.interp.SetConfirmPending(false)
				return []tea.Cmd{l.executeConfirmed(pa)}
			}
		}
		l.interp.SetConfirmPending(false)

	case mode.ConfirmNo:
		l.gate.Discard()
		l.interp.SetConfirmPending(false)
	}
	return nil
}

// shellCloseKey closes an embedded shell pane and returns focus to the
// underlying view, the way OverlayLogs/OverlayDetails are dismissed.
const shellCloseKey = "ctrl+w"

// routeShellKey forwards keystrokes to the active slot's embedded shell
// pane while it is open, reserving only the universal slot-switch/delete
// hotkeys and the pane-close key for the cockpit itself.
func (l *Loop) routeShellKey(slot *slots.ViewSlot, key string, m tea.KeyMsg) ([]tea.Cmd, bool) {
	if id, ok := slotSwitchTarget(key); ok {
		_ = id
		return nil, false
	}
	if d := strings.TrimPrefix(key, "ctrl+alt+"); d != key && len(d) == 1 && d[0] >= '0' && d[0] <= '9' {
		return nil, false
	}
	if key == shellCloseKey {
		if sess, ok := l.sup.Shells.Get(slot.Overlay.BufferKey); ok {
			sess.Blur()
		}
		l.sup.Shells.Close(slot.Overlay.BufferKey)
		l.slotsMgr.CloseOverlay(slot.ID)
		l.interp.SetOverlayActive(false)
		return nil, true
	}
	sess, ok := l.sup.Shells.Get(slot.Overlay.BufferKey)
	if !ok {
		l.slotsMgr.CloseOverlay(slot.ID)
		l.interp.SetOverlayActive(false)
		return nil, true
	}
	if cmd := sess.Update(m); cmd != nil {
		return []tea.Cmd{cmd}, true
	}
	return nil, true
}

// slotSwitchTarget reports whether key is one of the universal slot-switch
// hotkeys (ctrl+1..9), which must reach the Mode Interpreter even while an
// embedded shell pane owns the rest of the keyboard.
func slotSwitchTarget(key string) (int, bool) {
	const prefix = "ctrl+"
	if len(key) != len(prefix)+1 || key[:len(prefix)] != prefix {
		return 0, false
	}
	d := key[len(prefix)]
	if d < '1' || d > '9' {
		return 0, false
	}
	return int(d - '0'), true
}

// navigate translates a Navigate NavKey into BigTable cursor movement and
// snaps the active slot's selection to the resulting focused row.
func (l *Loop) navigate(navKey string) {
	var km tea.KeyMsg
	switch navKey {
	case "j":
		km = tea.KeyPressMsg{Text: "j", Code: 'j'}
	case "k":
		km = tea.KeyPressMsg{Text: "k", Code: 'k'}
	case "gg":
		km = tea.KeyPressMsg{Code: tea.KeyHome}
	case "G":
		km = tea.KeyPressMsg{Code: tea.KeyEnd}
	case "ctrl+u":
		km = tea.KeyPressMsg{Code: tea.KeyPgUp}
	case "ctrl+d":
		km = tea.KeyPressMsg{Code: tea.KeyPgDown}
	default:
		return
	}
	l.widget.Update(km)
	if id, ok := l.widget.CurrentID(); ok {
		l.resTable.Select(id)
		slot := l.slotsMgr.Active()
		frame := slot.Drill.Top()
		slot.Drill.UpdateTop(frame.Filter, id)
	}
}

// drillDown pushes a new frame for the selected row: workload kinds drill
// into their pods (filtered by the workload's name), namespaces drill into
// the namespace's pods, and pods open a details overlay.
func (l *Loop) drillDown() {
	sel := l.currentSelection()
	if sel == nil {
		return
	}
	slot := l.slotsMgr.Active()
	switch l.activeKind {
	case kinds.Pods:
		l.openDetails(sel)
	case kinds.Namespaces:
		l.mux.Release(l.activeKind, l.scope)
		l.activeKind = kinds.Pods
		l.scope = store.NamespaceScope(sel.Name)
		l.resTable = l.mux.Table(l.activeKind, l.scope)
		l.widget = l.newWidgetFor(l.activeKind, l.resTable, l.width, maxInt(6, l.height-3))
		slot.Drill.Push(slots.Frame{Kind: l.activeKind, Scope: l.scope})
	case kinds.Deployments, kinds.ReplicaSets, kinds.StatefulSets, kinds.DaemonSets,
		kinds.Jobs, kinds.CronJobs, kinds.ReplicationControllers, kinds.Services:
		l.mux.Release(l.activeKind, l.scope)
		l.activeKind = kinds.Pods
		l.resTable = l.mux.Table(l.activeKind, l.scope)
		l.resTable.SetFilter(sel.Name)
		l.widget = l.newWidgetFor(l.activeKind, l.resTable, l.width, maxInt(6, l.height-3))
		slot.Drill.Push(slots.Frame{Kind: l.activeKind, Scope: l.scope, Filter: sel.Name})
	}
	l.refreshWidget()
}

// drillUp pops the active slot's drill stack and restores the previous
// frame's kind, scope, filter, and selection; the root frame never pops.
func (l *Loop) drillUp() {
	slot := l.slotsMgr.Active()
	if !slot.Drill.Pop() {
		return
	}
	frame := slot.Drill.Top()
	l.mux.Release(l.activeKind, l.scope)
	l.activeKind = frame.Kind
	l.scope = store.Normalize(frame.Kind, frame.Scope)
	l.resTable = l.mux.Table(l.activeKind, l.scope)
	l.resTable.SetFilter(frame.Filter)
	l.widget = l.newWidgetFor(l.activeKind, l.resTable, l.width, maxInt(6, l.height-3))
	if frame.SelectionUID != "" {
		l.resTable.Select(frame.SelectionUID)
	}
	l.refreshWidget()
}

// closeActiveOverlay tears down the active slot's overlay: the background
// task feeding it is cancelled first, then the overlay and its arena buffer
// are dropped, in that order.
func (l *Loop) closeActiveOverlay() {
	slot := l.slotsMgr.Active()
	ov := slot.Overlay
	if ov == nil {
		return
	}
	if ov.TaskID != "" {
		l.sup.CancelTask(ov.TaskID)
	}
	if ov.Kind == slots.OverlayShell {
		if sess, ok := l.sup.Shells.Get(ov.BufferKey); ok {
			sess.Blur()
		}
		l.sup.Shells.Close(ov.BufferKey)
	}
	l.slotsMgr.CloseOverlay(slot.ID)
	l.interp.SetOverlayActive(false)
}

// deleteSlot cancels any background task owned by the doomed slot's overlay
// before removing the slot; if the active slot was deleted the manager
// switches to the lowest surviving id, so the view is rebound afterwards.
func (l *Loop) deleteSlot(id int) {
	if doomed, ok := l.slotsMgr.Get(id); ok && doomed.Overlay != nil {
		if doomed.Overlay.TaskID != "" {
			l.sup.CancelTask(doomed.Overlay.TaskID)
		}
		if doomed.Overlay.Kind == slots.OverlayShell {
			l.sup.Shells.Close(doomed.Overlay.BufferKey)
		}
	}
	wasActive := l.slotsMgr.ActiveID() == id
	if err := l.slotsMgr.Delete(id); err != nil {
		l.setStatus(err.Error(), true)
		return
	}
	if wasActive {
		l.switchSlot(l.slotsMgr.ActiveID())
	}
}

func (l *Loop) switchSlot(id int) {
	slot, err := l.slotsMgr.Switch(id)
	if err != nil {
		l.setStatus(err.Error(), true)
		return
	}
	frame := slot.Drill.Top()
	l.mux.Release(l.activeKind, l.scope)
	l.activeKind = frame.Kind
	l.scope = store.Normalize(frame.Kind, frame.Scope)
	l.resTable = l.mux.Table(l.activeKind, l.scope)
	l.resTable.SetFilter(frame.Filter)
	l.widget = l.newWidgetFor(l.activeKind, l.resTable, l.width, maxInt(6, l.height-3))
	l.interp.SetOverlayActive(slot.Overlay != nil)
}

// runCommandString parses and dispatches one `:`/`>` buffer, surfacing any
// structured error on the status line rather than applying a partial
// effect.
func (l *Loop) runCommandString(raw string, isJump bool) []tea.Cmd {
	cmd, err := command.Parse(raw, isJump, l.reg)
	if err != nil {
		l.setStatus(err.Error(), true)
		return nil
	}
	ctx := command.DispatchContext{
		ActiveKind:   l.activeKind,
		Selection:    l.currentSelection(),
		ReadOnly:     l.readOnly,
		ActionBusy:   l.sup.Busy(),
		ConfirmScale: l.scaleConfirm,
		Gate:         l.gate,
	}
	eff, err := command.Dispatch(cmd, ctx)
	if err != nil {
		l.setStatus(err.Error(), true)
		return nil
	}
	return l.applyEffect(eff)
}

// applyEffect carries out a dispatched Effect against loop-owned state,
// returning any tea.Cmd the effect requires (a foreground suspension, a
// background task kickoff, or nothing).
func (l *Loop) applyEffect(eff *command.Effect) []tea.Cmd {
	switch eff.Kind {
	case command.EffectQuit:
		return []tea.Cmd{tea.Quit}

	case command.EffectRefresh:
		l.resTable.Resync(l.resTable.Rows())
		l.refreshWidget()

	case command.EffectSwitchResource:
		l.switchRootKind(eff.ResourceKind, l.scope)
		if eff.Filter != "" {
			l.resTable.SetFilter(eff.Filter)
		}
		l.refreshWidget()

	case command.EffectJump:
		l.jumpTo(eff)

	case command.EffectJumpFuzzy:
		l.jumpFuzzy(eff.FuzzyName)

	case command.EffectSetFilter:
		l.resTable.SetFilter(eff.Filter)
		slot := l.slotsMgr.Active()
		frame := slot.Drill.Top()
		slot.Drill.UpdateTop(eff.Filter, frame.SelectionUID)
		l.refreshWidget()

	case command.EffectSetNamespace:
		l.switchRootKind(l.activeKind, store.NamespaceScope(eff.Namespace))
		l.refreshWidget()

	case command.EffectSetAllNamespaces:
		l.switchRootKind(l.activeKind, store.AllNamespaces())
		l.refreshWidget()

	case command.EffectRequestConfirm:
		l.interp.SetConfirmPending(true)

	case command.EffectExecuteScaleNow:
		sel := l.currentSelection()
		if sel == nil {
			l.setStatus("scale requires a selection", true)
			return nil
		}
		return []tea.Cmd{l.scaleCmd(confirm.ResourceRef{Kind: sel.Kind, Namespace: sel.Namespace, Name: sel.Name}, eff.ScaleTo)}

	case command.EffectOpenLogs:
		return l.openLogs()

	case command.EffectOpenEdit:
		return l.openEdit(eff.Target)

	case command.EffectOpenExec:
		return l.openExec(eff.ExecArgs)

	case command.EffectOpenShell:
		return l.openShell(eff.ExecArgs)

	case command.EffectOpenPortForward:
		return l.openPortForward(eff.PortPair)

	case command.EffectClosePortForward:
		l.closePortForwards()

	case command.EffectSetReadonly:
		l.setReadonly(eff)

	case command.EffectSetScaleConfirm:
		l.scaleConfirm = eff.ReadonlyOn

	case command.EffectOpenCRDCatalog:
		l.openOverlay(slots.OverlayCatalogCRDs, "")

	case command.EffectRefreshCRDs:
		l.refreshCRDs()

	case command.EffectOpenHelp:
		l.openOverlay(slots.OverlayHelp, "")

	case command.EffectOpenDevOpsTool:
		l.openOverlay(slots.OverlayDevOpsTool, eff.DevOpsTool)

	case command.EffectRunPlugin:
		return l.runPlugin(eff.PluginName, eff.ExecArgs)

	case command.EffectOpenContextCatalog:
		l.openOverlay(slots.OverlayCatalogContexts, "")

	case command.EffectOpenClusterCatalog:
		l.openOverlay(slots.OverlayCatalogClusters, "")

	case command.EffectOpenUserCatalog:
		l.openOverlay(slots.OverlayCatalogUsers, "")

	case command.EffectOpenConfig:
		l.openConfigOverlay()
	}
	return nil
}

func (l *Loop) setReadonly(eff *command.Effect) {
	switch {
	case eff.ReadonlyToggle:
		l.readOnly = !l.readOnly
	default:
		l.readOnly = eff.ReadonlyOn
	}
}

func (l *Loop) openOverlay(kind slots.OverlayKind, devOpsTool string) {
	slot := l.slotsMgr.Active()
	slot.SetOverlay(&slots.Overlay{Kind: kind, DevOpsToolName: devOpsTool})
	l.interp.SetOverlayActive(true)
}

// openConfigOverlay shows the effective runtime settings in a details
// buffer.
func (l *Loop) openConfigOverlay() {
	key := l.slotsMgr.NewBuffer(slots.DefaultBufferCap)
	buf := l.slotsMgr.Buffer(key)
	path, _ := config.Path()
	buf.Append("config: " + path)
	buf.Append(fmt.Sprintf("readonly: %v", l.readOnly))
	buf.Append(fmt.Sprintf("scale-confirm: %v", l.scaleConfirm))
	buf.Append(fmt.Sprintf("refresh-ms: %d", l.refreshMs))
	buf.Append(fmt.Sprintf("aliases: %d  plugins: %d", len(l.reg.Aliases()), len(l.reg.Plugins())))
	l.slotsMgr.Active().SetOverlay(&slots.Overlay{Kind: slots.OverlayDetails, BufferKey: key})
	l.interp.SetOverlayActive(true)
}

// jumpTo resets the active slot's DrillStack to root, then pushes a new
// frame for the jump target.
func (l *Loop) jumpTo(eff *command.Effect) {
	slot := l.slotsMgr.Active()
	slot.Drill.ResetToRoot()
	l.switchRootKind(eff.ResourceKind, l.scope)
	if eff.Target != nil {
		slot.Drill.Push(slots.Frame{Kind: l.activeKind, Scope: l.scope, SelectionUID: ""})
		if uid, ok := l.resolveTargetUID(eff.Target); ok {
			l.resTable.Select(uid)
		}
	}
	l.refreshWidget()
}

// resolveTargetUID looks up the row uid backing a (namespace, name) target,
// since ResourceTable.Select only matches against the filtered index's uid
// keys, never a display name.
func (l *Loop) resolveTargetUID(target *command.TargetRef) (string, bool) {
	for _, row := range l.resTable.Rows() {
		if row.Namespace == target.Namespace && row.Name == target.Name {
			return row.UID, true
		}
	}
	return "", false
}

// jumpFuzzy selects the best substring match for name across the current
// scope's rows, resetting the drill stack to root first as every jump does.
// Shorter names win ties so an exact match beats a longer superstring.
func (l *Loop) jumpFuzzy(name string) {
	slot := l.slotsMgr.Active()
	slot.Drill.ResetToRoot()
	needle := strings.ToLower(name)
	best := ""
	bestLen := -1
	for _, row := range l.resTable.Rows() {
		if !strings.Contains(strings.ToLower(row.Name), needle) {
			continue
		}
		if bestLen == -1 || len(row.Name) < bestLen {
			best, bestLen = row.UID, len(row.Name)
		}
	}
	if best == "" {
		l.setStatus(fmt.Sprintf("no %s matches %q", l.activeKind, name), true)
		return
	}
	l.resTable.SetFilter("")
	l.resTable.Select(best)
	frame := slot.Drill.Top()
	slot.Drill.UpdateTop(frame.Filter, best)
	l.refreshWidget()
}

// openDetails fetches the selected object's live manifest into a fresh
// details overlay buffer.
func (l *Loop) openDetails(sel *command.Selection) {
	obj, err := l.mutations.Get(backgroundContext(), sel.Kind, sel.Namespace, sel.Name)
	if err != nil {
		l.setStatus(fmt.Sprintf("details: %v", err), true)
		return
	}
	data, err := marshalForEdit(obj)
	if err != nil {
		l.setStatus(fmt.Sprintf("details: %v", err), true)
		return
	}
	key := l.slotsMgr.NewBuffer(slots.DefaultBufferCap)
	buf := l.slotsMgr.Buffer(key)
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		buf.Append(line)
	}
	l.slotsMgr.Active().SetOverlay(&slots.Overlay{Kind: slots.OverlayDetails, BufferKey: key})
	l.interp.SetOverlayActive(true)
}

// executeConfirmed dispatches a confirmed PendingAction to the Kubernetes
// collaborator as a background task, reporting its outcome as a
// mutationResultMsg on completion.
func (l *Loop) executeConfirmed(pa *confirm.PendingAction) tea.Cmd {
	return func() tea.Msg {
		ctx := backgroundContext()
		var err error
		switch pa.Kind {
		case confirm.Delete:
			err = l.mutations.Delete(ctx, pa.Target.Kind, pa.Target.Namespace, pa.Target.Name)
		case confirm.Restart:
			err = l.mutations.Restart(ctx, pa.Target.Kind, pa.Target.Namespace, pa.Target.Name)
		case confirm.Scale:
			err = l.mutations.Scale(ctx, pa.Target.Kind, pa.Target.Namespace, pa.Target.Name, pa.ScaleTo)
		}
		return mutationResultMsg{action: pa.Kind, target: pa.Target, err: err}
	}
}

func (l *Loop) scaleCmd(target confirm.ResourceRef, replicas int) tea.Cmd {
	return func() tea.Msg {
		err := l.mutations.Scale(backgroundContext(), target.Kind, target.Namespace, target.Name, replicas)
		return mutationResultMsg{action: confirm.Scale, target: target, err: err}
	}
}

// emitWriter adapts the Action Supervisor's emit callback to io.Writer so a
// follow-mode log stream reaches the overlay buffer chunk by chunk instead
// of only when the stream ends.
type emitWriter struct {
	emit func(stderr bool, chunk []byte)
}

func (w emitWriter) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	w.emit(false, chunk)
	return len(p), nil
}

// openLogs starts a background log tail for the selected pod and opens an
// OverlayLogs bound to a fresh arena buffer. Closing the overlay cancels
// the tail via the overlay's TaskID.
func (l *Loop) openLogs() []tea.Cmd {
	sel := l.currentSelection()
	if sel == nil {
		l.setStatus("logs requires a selected pod", true)
		return nil
	}
	key := l.slotsMgr.NewBuffer(slots.DefaultBufferCap)
	ns, name := sel.Namespace, sel.Name

	taskID, _ := l.sup.Background(backgroundContext(), func(ctx context.Context, _ string, emit func(bool, []byte)) error {
		return l.mutations.Logs(ctx, ns, name, "", true, emitWriter{emit: emit})
	})
	l.slotsMgr.Active().SetOverlay(&slots.Overlay{Kind: slots.OverlayLogs, BufferKey: key, TaskID: taskID})
	l.interp.SetOverlayActive(true)
	return nil
}

// openEdit fetches the target's live manifest and hands it to $KUBE_EDITOR
// via the Action Supervisor's foreground terminal handoff, applying the
// edited manifest back on a clean exit.
func (l *Loop) openEdit(target *command.TargetRef) []tea.Cmd {
	sel := l.currentSelection()
	ns, name := "", ""
	switch {
	case target != nil:
		ns, name = target.Namespace, target.Name
	case sel != nil:
		ns, name = sel.Namespace, sel.Name
	default:
		l.setStatus("edit requires a target or selection", true)
		return nil
	}

	obj, err := l.mutations.Get(backgroundContext(), l.activeKind, ns, name)
	if err != nil {
		l.setStatus(fmt.Sprintf("edit: %v", err), true)
		return nil
	}
	tmp, err := os.CreateTemp("", "orca-edit-*.yaml")
	if err != nil {
		l.setStatus(fmt.Sprintf("edit: %v", err), true)
		return nil
	}
	data, err := marshalForEdit(obj)
	if err != nil {
		l.setStatus(fmt.Sprintf("edit: %v", err), true)
		return nil
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		l.setStatus(fmt.Sprintf("edit: %v", err), true)
		return nil
	}
	tmp.Close()

	cmd, err := l.sup.Foreground(l.editorCommand(tmp.Name()), func(err error) tea.Msg {
		defer os.Remove(tmp.Name())
		if err == nil {
			if raw, rerr := os.ReadFile(tmp.Name()); rerr == nil {
				err = l.mutations.Apply(backgroundContext(), l.activeKind, ns, name, raw)
			}
		}
		return foregroundDoneMsg{verb: "edit", err: err}
	})
	if err != nil {
		l.setStatus(err.Error(), true)
		return nil
	}
	return []tea.Cmd{cmd}
}

// openExec hands the terminal to a pod's container via the Action
// Supervisor's foreground handoff, streaming over Mutations.Exec's
// remotecommand session rather than spawning a local child process.
func (l *Loop) openExec(args []string) []tea.Cmd {
	sel := l.currentSelection()
	if sel == nil {
		l.setStatus("exec requires a selected pod", true)
		return nil
	}
	if len(args) == 0 {
		args = []string{"/bin/sh"}
	}
	ns, name := sel.Namespace, sel.Name
	ec := &remoteExecCommand{run: func(stdin io.Reader, stdout, stderr io.Writer) error {
		return l.mutations.Exec(backgroundContext(), ns, name, "", args, stdin, stdout, stderr, true)
	}}
	cmd, err := l.sup.ForegroundFunc(ec, func(err error) tea.Msg {
		return foregroundDoneMsg{verb: "exec", err: err}
	})
	if err != nil {
		l.setStatus(err.Error(), true)
		return nil
	}
	return []tea.Cmd{cmd}
}

// remoteExecCommand adapts Mutations.Exec's stdio-based remotecommand
// stream to bubbletea's tea.ExecCommand interface, the same shape
// *exec.Cmd satisfies for a real child process.
type remoteExecCommand struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	run    func(stdin io.Reader, stdout, stderr io.Writer) error
}

func (e *remoteExecCommand) SetStdin(r io.Reader)  { e.stdin = r }
func (e *remoteExecCommand) SetStdout(w io.Writer) { e.stdout = w }
func (e *remoteExecCommand) SetStderr(w io.Writer) { e.stderr = w }
func (e *remoteExecCommand) Run() error            { return e.run(e.stdin, e.stdout, e.stderr) }

// openShell starts an embedded shell pane bound to the active slot's
// OverlayShell: a background task with a UI stream, distinct from the
// foreground suspension :edit/:exec use, rather than handing the terminal
// over via Foreground.
func (l *Loop) openShell(args []string) []tea.Cmd {
	shell := ""
	if len(args) > 0 {
		shell = args[0]
	}
	slot := l.slotsMgr.Active()
	id := fmt.Sprintf("shell-%d", l.slotsMgr.ActiveID())
	_, cmd, err := l.sup.Shells.StartShell(id, shell, l.width, maxInt(6, l.height-3))
	if err != nil {
		l.setStatus(err.Error(), true)
		return nil
	}
	slot.SetOverlay(&slots.Overlay{Kind: slots.OverlayShell, BufferKey: id})
	l.interp.SetOverlayActive(true)
	return []tea.Cmd{cmd}
}

func (l *Loop) openPortForward(pp *command.PortPair) []tea.Cmd {
	sel := l.currentSelection()
	if sel == nil || pp == nil {
		l.setStatus("port-forward requires a selection and local:remote", true)
		return nil
	}
	pod := sel.Name
	if sel.Kind == kinds.Services {
		resolved, err := l.mutations.FirstPodForService(backgroundContext(), sel.Namespace, sel.Name)
		if err != nil {
			l.setStatus(fmt.Sprintf("port-forward: %v", err), true)
			return nil
		}
		pod = resolved
	}
	target := action.PFTarget{Kind: sel.Kind, Namespace: sel.Namespace, Name: sel.Name}
	id := fmt.Sprintf("%s/%s:%d", sel.Namespace, sel.Name, pp.Local)
	_, err := l.sup.StartPortForward(l.client.RESTConfig(), target, pod, pp.Local, pp.Remote, id)
	if err != nil {
		l.setStatus(fmt.Sprintf("port-forward: %v", err), true)
		return nil
	}
	l.setStatus(fmt.Sprintf("port-forward %d:%d to %s/%s started", pp.Local, pp.Remote, sel.Namespace, sel.Name), false)
	l.refreshWidget()
	return nil
}

// closePortForwards stops every session registered against the selected
// row's target.
func (l *Loop) closePortForwards() {
	sel := l.currentSelection()
	if sel == nil {
		l.setStatus("port-forward close requires a selection", true)
		return
	}
	sessions := l.sup.PF.ForTarget(action.PFTarget{Kind: sel.Kind, Namespace: sel.Namespace, Name: sel.Name})
	if len(sessions) == 0 {
		l.setStatus(fmt.Sprintf("no port-forwards for %s/%s", sel.Namespace, sel.Name), false)
		return
	}
	for _, s := range sessions {
		s.Close()
	}
	l.setStatus(fmt.Sprintf("closed %d port-forward(s) for %s/%s", len(sessions), sel.Namespace, sel.Name), false)
	l.refreshWidget()
}

func (l *Loop) refreshCRDs() {
	caps, err := l.client.DiscoverCRDs(backgroundContext())
	if err != nil {
		l.setStatus(fmt.Sprintf("crd-refresh: %v", err), true)
		return
	}
	l.setStatus(fmt.Sprintf("discovered %d custom resource kinds", len(caps)), false)
}

func (l *Loop) runPlugin(name string, args []string) []tea.Cmd {
	def, ok := l.reg.Plugin(name)
	if !ok {
		l.setStatus(fmt.Sprintf("plugin %q not found", name), true)
		return nil
	}
	if def.Mutating && l.readOnly {
		l.setStatus(fmt.Sprintf("ReadOnlyBlocked: plugin %s", name), true)
		return nil
	}
	ctx := l.placeholderContext()
	ctx.Args = joinArgs(args)
	cmdArgs := make([]string, len(def.Args))
	for i, a := range def.Args {
		expanded, err := registry.Substitute(a, ctx)
		if err != nil {
			l.setStatus(err.Error(), true)
			return nil
		}
		cmdArgs[i] = expanded
	}

	cmd := exec.CommandContext(backgroundContext(), def.Command, cmdArgs...)
	if def.Background {
		taskID, _ := l.sup.Background(backgroundContext(), func(ctx context.Context, _ string, emit func(bool, []byte)) error {
			out, err := cmd.CombinedOutput()
			emit(false, out)
			return err
		})
		_ = taskID
		return nil
	}
	fgCmd, err := l.sup.Foreground(cmd, func(err error) tea.Msg {
		return foregroundDoneMsg{verb: "plugin:" + name, err: err}
	})
	if err != nil {
		l.setStatus(err.Error(), true)
		return nil
	}
	return []tea.Cmd{fgCmd}
}
