package command

import (
	"fmt"

	"github.com/orca-cli/orca/internal/confirm"
	"github.com/orca-cli/orca/internal/kinds"
)

// EffectKind names what the runtime loop should do with a successfully
// dispatched Command.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectQuit
	EffectRefresh
	EffectSwitchResource
	EffectSetFilter
	EffectJump
	EffectSetNamespace
	EffectSetAllNamespaces
	EffectRequestConfirm
	EffectExecuteScaleNow
	EffectOpenLogs
	EffectOpenEdit
	EffectOpenExec
	EffectOpenShell
	EffectOpenPortForward
	EffectSetReadonly
	EffectOpenCRDCatalog
	EffectRefreshCRDs
	EffectOpenHelp
	EffectOpenDevOpsTool
	EffectRunPlugin
	EffectOpenContextCatalog
	EffectOpenClusterCatalog
	EffectOpenUserCatalog
	EffectOpenConfig
	EffectSetScaleConfirm
	EffectJumpFuzzy
	EffectClosePortForward
)

// Effect is the dispatcher's instruction to the runtime loop.
type Effect struct {
	Kind             EffectKind
	ResourceKind     kinds.ResourceKind
	Filter           string
	Target           *TargetRef
	Namespace        string
	PendingAction    *confirm.PendingAction
	ScaleTo          int
	PortPair         *PortPair
	ExecArgs         []string
	ReadonlyOn       bool
	ReadonlyToggle   bool
	DevOpsTool       string
	PluginName       string
	FuzzyName        string
}

// Selection describes the currently selected row, if any; several verbs
// operate on the selection when no explicit target is given.
type Selection struct {
	Kind      kinds.ResourceKind
	Namespace string
	Name      string
}

// DispatchContext supplies the state Dispatch needs beyond the Command
// itself: current tab/kind, selection, policy toggles, and the gate that
// mints PendingActions so they carry a real ID.
type DispatchContext struct {
	ActiveKind   kinds.ResourceKind
	Selection    *Selection
	ReadOnly     bool
	ActionBusy   bool
	ConfirmScale bool // route :scale through the confirm gate instead of executing immediately
	Gate         *confirm.Gate
}

// mutatingVerbs lists every verb the read-only guard gates.
var mutatingVerbs = map[Verb]bool{
	VerbDelete: true, VerbRestart: true, VerbScale: true, VerbEdit: true,
	VerbExec: true, VerbPortForward: true, VerbShell: true,
}

// Dispatch validates cmd against ctx and produces the Effect for the runtime
// loop to apply, or a structured Error.
func Dispatch(cmd *Command, ctx DispatchContext) (*Effect, error) {
	if mutatingVerbs[cmd.Verb] && ctx.ReadOnly {
		// scale is exempt only from confirmation, never from the read-only
		// guard.
		return nil, newErr(ReadOnlyBlocked, string(cmd.Verb))
	}
	if ctx.ActionBusy && isForegroundVerb(cmd.Verb) {
		return nil, newErr(ActionBusy, string(cmd.Verb))
	}

	switch cmd.Verb {
	case VerbQuit:
		return &Effect{Kind: EffectQuit}, nil
	case VerbRefresh:
		return &Effect{Kind: EffectRefresh}, nil
	case VerbHelp:
		return &Effect{Kind: EffectOpenHelp}, nil
	case VerbConfig:
		return &Effect{Kind: EffectOpenConfig}, nil
	case VerbContext:
		return &Effect{Kind: EffectOpenContextCatalog}, nil
	case VerbCluster:
		return &Effect{Kind: EffectOpenClusterCatalog}, nil
	case VerbUser:
		return &Effect{Kind: EffectOpenUserCatalog}, nil
	case VerbCRD:
		return &Effect{Kind: EffectOpenCRDCatalog}, nil
	case VerbCRDRefresh:
		return &Effect{Kind: EffectRefreshCRDs}, nil
	case VerbNamespace:
		if cmd.NamespaceArg == "" {
			return &Effect{Kind: EffectSwitchResource, ResourceKind: kinds.Namespaces}, nil
		}
		return &Effect{Kind: EffectSetNamespace, Namespace: cmd.NamespaceArg}, nil
	case VerbAllNamespaces:
		return &Effect{Kind: EffectSetAllNamespaces}, nil
	case VerbFilter:
		return &Effect{Kind: EffectSetFilter, Filter: cmd.Filter}, nil
	case VerbClear:
		return &Effect{Kind: EffectSetFilter, Filter: ""}, nil
	case VerbTab:
		return &Effect{Kind: EffectSwitchResource, ResourceKind: ctx.ActiveKind}, nil
	case VerbReadonly:
		switch cmd.Filter {
		case "on":
			return &Effect{Kind: EffectSetReadonly, ReadonlyOn: true}, nil
		case "off":
			return &Effect{Kind: EffectSetReadonly, ReadonlyOn: false}, nil
		case "toggle":
			return &Effect{Kind: EffectSetReadonly, ReadonlyToggle: true}, nil
		default:
			return nil, newErr(BadArg, "readonly expects on|off|toggle")
		}
	case VerbScaleConfirm:
		switch cmd.Filter {
		case "on":
			return &Effect{Kind: EffectSetScaleConfirm, ReadonlyOn: true}, nil
		case "off":
			return &Effect{Kind: EffectSetScaleConfirm, ReadonlyOn: false}, nil
		default:
			return nil, newErr(BadArg, "scale-confirm expects on|off")
		}

	case VerbSwitchResource:
		eff := &Effect{Kind: EffectSwitchResource, ResourceKind: cmd.ResourceKind, Filter: cmd.Filter}
		if cmd.Target != nil {
			eff.Kind = EffectJump
			eff.Target = cmd.Target
		}
		return eff, nil

	case VerbLogs:
		if ctx.ActiveKind != kinds.Pods {
			return nil, newErr(WrongKindForAction, "logs requires the Pods tab")
		}
		if ctx.Selection == nil {
			return nil, newErr(NoSelection, "logs requires a selected pod")
		}
		return &Effect{Kind: EffectOpenLogs, ExecArgs: cmd.ExecArgs}, nil

	case VerbEdit:
		ref := targetOrSelection(cmd.Target, ctx.Selection)
		if ref == nil {
			return nil, newErr(NoSelection, "edit requires a target or selection")
		}
		return &Effect{Kind: EffectOpenEdit, Target: ref}, nil

	case VerbExec:
		if ctx.ActiveKind != kinds.Pods {
			return nil, newErr(WrongKindForAction, "exec is only valid when the active tab is Pods")
		}
		if ctx.Selection == nil {
			return nil, newErr(NoSelection, "exec requires a selected pod")
		}
		return &Effect{Kind: EffectOpenExec, ExecArgs: cmd.ExecArgs}, nil

	case VerbShell:
		return &Effect{Kind: EffectOpenShell, ExecArgs: cmd.ExecArgs}, nil

	case VerbPortForward:
		if ctx.ActiveKind != kinds.Pods && ctx.ActiveKind != kinds.Services {
			return nil, newErr(WrongKindForAction, "port-forward requires a Pod or Service target")
		}
		if ctx.Selection == nil {
			return nil, newErr(NoSelection, "port-forward requires a selection")
		}
		if cmd.Filter == "close" {
			return &Effect{Kind: EffectClosePortForward}, nil
		}
		return &Effect{Kind: EffectOpenPortForward, PortPair: cmd.PortPair}, nil

	case VerbDelete:
		ref := targetOrSelection(cmd.Target, ctx.Selection)
		if ref == nil {
			return nil, newErr(NoSelection, "delete requires a target or selection")
		}
		pa := ctx.Gate.Request(confirm.Delete,
			confirm.ResourceRef{Kind: ctx.ActiveKind, Namespace: ref.Namespace, Name: ref.Name},
			0, fmt.Sprintf("delete %s?", refString(*ref)))
		return &Effect{Kind: EffectRequestConfirm, PendingAction: pa}, nil

	case VerbRestart:
		capInfo, _ := kinds.CapabilityOf(ctx.ActiveKind)
		if !capInfo.SupportsRestart {
			return nil, newErr(WrongKindForAction, fmt.Sprintf("%s does not support restart", ctx.ActiveKind))
		}
		ref := targetOrSelection(cmd.Target, ctx.Selection)
		if ref == nil {
			return nil, newErr(NoSelection, "restart requires a target or selection")
		}
		pa := ctx.Gate.Request(confirm.Restart,
			confirm.ResourceRef{Kind: ctx.ActiveKind, Namespace: ref.Namespace, Name: ref.Name},
			0, fmt.Sprintf("restart %s?", refString(*ref)))
		return &Effect{Kind: EffectRequestConfirm, PendingAction: pa}, nil

	case VerbScale:
		capInfo, _ := kinds.CapabilityOf(ctx.ActiveKind)
		if !capInfo.SupportsScale {
			return nil, newErr(WrongKindForAction, fmt.Sprintf("%s does not support scale", ctx.ActiveKind))
		}
		if ctx.Selection == nil {
			return nil, newErr(NoSelection, "scale requires a selection")
		}
		if ctx.ConfirmScale {
			pa := ctx.Gate.Request(confirm.Scale,
				confirm.ResourceRef{Kind: ctx.ActiveKind, Namespace: ctx.Selection.Namespace, Name: ctx.Selection.Name},
				cmd.ScaleTo, fmt.Sprintf("scale %s/%s to %d?", ctx.Selection.Namespace, ctx.Selection.Name, cmd.ScaleTo))
			return &Effect{Kind: EffectRequestConfirm, PendingAction: pa}, nil
		}
		return &Effect{Kind: EffectExecuteScaleNow, ScaleTo: cmd.ScaleTo}, nil

	case VerbDevOpsTool:
		return &Effect{Kind: EffectOpenDevOpsTool, DevOpsTool: cmd.DevOpsTool}, nil

	case VerbPlugin:
		return &Effect{Kind: EffectRunPlugin, PluginName: cmd.PluginName, ExecArgs: cmd.ExecArgs}, nil

	case VerbJumpFuzzy:
		if cmd.FuzzyName == "" {
			return nil, newErr(MissingArg, "jump requires a name")
		}
		return &Effect{Kind: EffectJumpFuzzy, FuzzyName: cmd.FuzzyName}, nil
	}

	return nil, newErr(UnknownVerb, string(cmd.Verb))
}

func isForegroundVerb(v Verb) bool {
	switch v {
	case VerbEdit, VerbExec, VerbShell:
		return true
	default:
		return false
	}
}

func targetOrSelection(t *TargetRef, sel *Selection) *TargetRef {
	if t != nil {
		return t
	}
	if sel != nil {
		return &TargetRef{Namespace: sel.Namespace, Name: sel.Name}
	}
	return nil
}

func refString(r TargetRef) string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "/" + r.Name
}
