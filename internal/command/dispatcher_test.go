package command

import (
	"testing"

	"github.com/orca-cli/orca/internal/confirm"
	"github.com/orca-cli/orca/internal/kinds"
)

func dispatchCtx(mods ...func(*DispatchContext)) DispatchContext {
	ctx := DispatchContext{
		ActiveKind: kinds.Pods,
		Gate:       confirm.NewGate(),
	}
	for _, m := range mods {
		m(&ctx)
	}
	return ctx
}

func withSelection(ns, name string) func(*DispatchContext) {
	return func(ctx *DispatchContext) { ctx.Selection = &Selection{Namespace: ns, Name: name} }
}

func TestDispatchQuit(t *testing.T) {
	cmd := &Command{Verb: VerbQuit}
	eff, err := Dispatch(cmd, dispatchCtx())
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectQuit {
		t.Fatalf("expected EffectQuit, got %v", eff.Kind)
	}
}

func TestDispatchReadOnlyBlocksDelete(t *testing.T) {
	cmd := &Command{Verb: VerbDelete, Target: &TargetRef{Name: "pod-1"}}
	ctx := dispatchCtx(func(c *DispatchContext) { c.ReadOnly = true })
	_, err := Dispatch(cmd, ctx)
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != ReadOnlyBlocked {
		t.Fatalf("expected ReadOnlyBlocked, got %v", err)
	}
}

func TestDispatchDeleteRequiresSelectionOrTarget(t *testing.T) {
	cmd := &Command{Verb: VerbDelete}
	_, err := Dispatch(cmd, dispatchCtx())
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != NoSelection {
		t.Fatalf("expected NoSelection, got %v", err)
	}
}

func TestDispatchDeleteProducesPendingAction(t *testing.T) {
	cmd := &Command{Verb: VerbDelete}
	ctx := dispatchCtx(withSelection("default", "web-1"))
	eff, err := Dispatch(cmd, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectRequestConfirm || eff.PendingAction == nil {
		t.Fatalf("expected EffectRequestConfirm with a PendingAction, got %+v", eff)
	}
	if eff.PendingAction.ID == "" {
		t.Fatalf("expected PendingAction to carry a gate-minted ID")
	}
	if ctx.Gate.Pending() == nil {
		t.Fatalf("expected the gate to track the pending action")
	}
}

func TestDispatchRestartWrongKind(t *testing.T) {
	cmd := &Command{Verb: VerbRestart}
	ctx := dispatchCtx(withSelection("default", "web-1"), func(c *DispatchContext) { c.ActiveKind = kinds.Services })
	_, err := Dispatch(cmd, ctx)
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != WrongKindForAction {
		t.Fatalf("expected WrongKindForAction, got %v", err)
	}
}

func TestDispatchScaleImmediateByDefault(t *testing.T) {
	cmd := &Command{Verb: VerbScale, ScaleTo: 3}
	ctx := dispatchCtx(withSelection("default", "web-1"), func(c *DispatchContext) { c.ActiveKind = kinds.Deployments })
	eff, err := Dispatch(cmd, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectExecuteScaleNow || eff.ScaleTo != 3 {
		t.Fatalf("expected immediate scale, got %+v", eff)
	}
	if ctx.Gate.Pending() != nil {
		t.Fatalf("expected no pending confirmation for immediate scale")
	}
}

func TestDispatchScaleConfirmWhenToggled(t *testing.T) {
	cmd := &Command{Verb: VerbScale, ScaleTo: 0}
	ctx := dispatchCtx(withSelection("default", "web-1"), func(c *DispatchContext) {
		c.ActiveKind = kinds.Deployments
		c.ConfirmScale = true
	})
	eff, err := Dispatch(cmd, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectRequestConfirm || eff.PendingAction.Kind != confirm.Scale {
		t.Fatalf("expected scale confirmation gate, got %+v", eff)
	}
}

func TestDispatchLogsRequiresPodsTabAndSelection(t *testing.T) {
	cmd := &Command{Verb: VerbLogs}
	_, err := Dispatch(cmd, dispatchCtx())
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != NoSelection {
		t.Fatalf("expected NoSelection, got %v", err)
	}

	ctx := dispatchCtx(withSelection("default", "web-1"), func(c *DispatchContext) { c.ActiveKind = kinds.Nodes })
	_, err = Dispatch(cmd, ctx)
	cmderr, ok = err.(*Error)
	if !ok || cmderr.Kind != WrongKindForAction {
		t.Fatalf("expected WrongKindForAction, got %v", err)
	}
}

func TestDispatchActionBusyBlocksForegroundOnly(t *testing.T) {
	ctx := dispatchCtx(withSelection("default", "web-1"), func(c *DispatchContext) { c.ActionBusy = true })

	_, err := Dispatch(&Command{Verb: VerbEdit, Target: &TargetRef{Name: "web-1"}}, ctx)
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != ActionBusy {
		t.Fatalf("expected ActionBusy for edit, got %v", err)
	}

	eff, err := Dispatch(&Command{Verb: VerbRefresh}, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectRefresh {
		t.Fatalf("expected refresh to proceed while action busy, got %+v", eff)
	}
}

func TestDispatchPortForwardRequiresPodOrServiceKind(t *testing.T) {
	cmd := &Command{Verb: VerbPortForward, PortPair: &PortPair{Local: 8080, Remote: 80}}
	ctx := dispatchCtx(withSelection("default", "web-1"), func(c *DispatchContext) { c.ActiveKind = kinds.ConfigMaps })
	_, err := Dispatch(cmd, ctx)
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != WrongKindForAction {
		t.Fatalf("expected WrongKindForAction, got %v", err)
	}
}

func TestDispatchReadonlyToggleEffect(t *testing.T) {
	cmd := &Command{Verb: VerbReadonly, Filter: "toggle"}
	eff, err := Dispatch(cmd, dispatchCtx())
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectSetReadonly || !eff.ReadonlyToggle {
		t.Fatalf("expected readonly toggle effect, got %+v", eff)
	}
}

func TestDispatchNamespaceSwitchesToNamespacesTabWithoutArg(t *testing.T) {
	cmd := &Command{Verb: VerbNamespace}
	eff, err := Dispatch(cmd, dispatchCtx())
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectSwitchResource || eff.ResourceKind != kinds.Namespaces {
		t.Fatalf("expected switch to Namespaces tab, got %+v", eff)
	}
}

func TestDispatchJumpFuzzy(t *testing.T) {
	cmd := &Command{Verb: VerbJumpFuzzy, FuzzyName: "coredns"}
	eff, err := Dispatch(cmd, dispatchCtx())
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectJumpFuzzy || eff.FuzzyName != "coredns" {
		t.Fatalf("expected fuzzy jump effect, got %+v", eff)
	}
}

func TestDispatchPortForwardClose(t *testing.T) {
	cmd := &Command{Verb: VerbPortForward, Filter: "close"}
	ctx := dispatchCtx(withSelection("default", "web-1"))
	eff, err := Dispatch(cmd, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if eff.Kind != EffectClosePortForward {
		t.Fatalf("expected close-port-forward effect, got %+v", eff)
	}
}
