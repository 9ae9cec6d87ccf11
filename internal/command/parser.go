// Package command implements the command parser and dispatcher: parses
// `:`/`>` buffers into a typed Command, resolves builtin verbs ahead of user
// aliases ahead of resource aliases, and validates the resolved command
// against current selection/scope before handing it to the runtime loop for
// execution.
package command

import (
	"strconv"
	"strings"

	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/registry"
)

// Verb is the resolved, canonical verb of a parsed command. Resource aliases
// resolve to VerbSwitchResource.
type Verb string

const (
	VerbQuit           Verb = "quit"
	VerbRefresh        Verb = "refresh"
	VerbContext        Verb = "ctx"
	VerbCluster        Verb = "cluster"
	VerbUser           Verb = "user"
	VerbNamespace      Verb = "ns"
	VerbAllNamespaces  Verb = "all-ns"
	VerbFilter         Verb = "filter"
	VerbClear          Verb = "clear"
	VerbLogs           Verb = "logs"
	VerbEdit           Verb = "edit"
	VerbDelete         Verb = "delete"
	VerbRestart        Verb = "restart"
	VerbScale          Verb = "scale"
	VerbExec           Verb = "exec"
	VerbShell          Verb = "shell"
	VerbPortForward    Verb = "port-forward"
	VerbCRD            Verb = "crd"
	VerbCRDRefresh     Verb = "crd-refresh"
	VerbHelp           Verb = "help"
	VerbTab            Verb = "tab"
	VerbReadonly       Verb = "readonly"
	VerbConfig         Verb = "config"
	VerbScaleConfirm   Verb = "scale-confirm"
	VerbDevOpsTool     Verb = "devops-tool"
	VerbSwitchResource Verb = "switch-resource"
	VerbPlugin         Verb = "plugin"
	VerbJumpFuzzy      Verb = "jump-fuzzy"
)

var aliasToCanonical = map[string]Verb{
	"q": VerbQuit, "quit": VerbQuit, "exit": VerbQuit,
	"refresh": VerbRefresh, "r": VerbRefresh, "reload": VerbRefresh,
	"ctx": VerbContext, "cluster": VerbCluster, "user": VerbUser,
	"ns": VerbNamespace, "all-ns": VerbAllNamespaces,
	"filter": VerbFilter, "clear": VerbClear,
	"logs": VerbLogs, "edit": VerbEdit,
	"delete": VerbDelete, "del": VerbDelete,
	"restart": VerbRestart, "scale": VerbScale,
	"exec": VerbExec,
	"shell": VerbShell, "ssh": VerbShell, "bash": VerbShell,
	"pf": VerbPortForward, "port-forward": VerbPortForward,
	"crd": VerbCRD, "crd-refresh": VerbCRDRefresh,
	"help": VerbHelp, "tab": VerbTab,
	"readonly": VerbReadonly, "ro": VerbReadonly,
	"config": VerbConfig,
	"scale-confirm": VerbScaleConfirm,
	"plugin":        VerbPlugin,
}

var devOpsVerbs = map[string]bool{
	"alerts": true, "pulses": true, "xray": true, "argocd": true, "helm": true,
	"tf": true, "terraform": true, "ansible": true, "docker": true, "rbac": true,
	"oc": true, "openshift": true, "kustomize": true,
}

// TargetRef is a parsed `[namespace/]name` target token.
type TargetRef struct {
	Namespace string
	Name      string
}

// PortPair is a parsed `local:remote` port-forward argument.
type PortPair struct {
	Local  int
	Remote int
}

// Command is the typed result of parsing one `:`/`>` buffer.
type Command struct {
	Verb         Verb
	DevOpsTool   string // set when Verb == VerbDevOpsTool
	PluginName   string // set when Verb == VerbPlugin
	ResourceKind kinds.ResourceKind
	Filter       string
	Target       *TargetRef
	ScaleTo      int
	PortPair     *PortPair
	ExecArgs     []string
	NamespaceArg string
	IsJump       bool // true if parsed from the `>` buffer
	FuzzyName    string
	Raw          string
}

// Parse parses a raw `:`/`>` buffer into a Command, resolving builtin verbs
// first, then a single level of user alias expansion (recursion disallowed),
// then resource aliases; builtins win on ambiguity.
func Parse(raw string, isJump bool, reg *registry.Registry) (*Command, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, newErr(MissingArg, "empty command")
	}
	verbToken, args := fields[0], fields[1:]

	resolved, verbTok := resolveVerbToken(verbToken, reg)

	cmd := &Command{IsJump: isJump, Raw: raw}

	switch {
	case resolved != "":
		if err := parseBuiltin(cmd, resolved, args); err != nil {
			return nil, err
		}
	case devOpsVerbs[verbTok]:
		cmd.Verb = VerbDevOpsTool
		cmd.DevOpsTool = verbTok
	default:
		if k, ok := kinds.Resolve(verbTok); ok {
			cmd.Verb = VerbSwitchResource
			cmd.ResourceKind = k
			if len(args) > 0 {
				if ref, ok := parseTarget(args[0]); ok && strings.Contains(args[0], "/") {
					cmd.Target = &ref
				} else {
					cmd.Filter = strings.Join(args, " ")
				}
			}
		} else if reg != nil && reg.HasPlugin(verbTok) {
			cmd.Verb = VerbPlugin
			cmd.PluginName = verbTok
			cmd.ExecArgs = args
		} else if isJump {
			// `>` additionally permits fuzzy name match when the whole buffer
			// is a bare name matching no verb, alias, or resource kind.
			cmd.Verb = VerbJumpFuzzy
			cmd.FuzzyName = strings.TrimSpace(raw)
		} else {
			return nil, newErr(UnknownVerb, verbToken)
		}
	}

	return cmd, nil
}

// resolveVerbToken applies builtin-first, then one level of user-alias
// expansion. Returns ("", token) when the token isn't a recognized builtin
// even after alias expansion, so the caller can try resource-alias/plugin
// resolution next.
func resolveVerbToken(token string, reg *registry.Registry) (Verb, string) {
	if v, ok := aliasToCanonical[strings.ToLower(token)]; ok {
		return v, token
	}
	if reg != nil {
		if expanded, ok := reg.ResolveAlias(token); ok {
			if v, ok := aliasToCanonical[strings.ToLower(expanded)]; ok {
				return v, expanded
			}
			// Expands to something else (resource/plugin); let the caller
			// retry resolution against the expanded token.
			return "", expanded
		}
	}
	return "", token
}

func parseBuiltin(cmd *Command, verb Verb, args []string) error {
	cmd.Verb = verb
	switch verb {
	case VerbQuit, VerbRefresh, VerbHelp, VerbClear, VerbCRD, VerbCRDRefresh, VerbTab, VerbConfig, VerbContext, VerbCluster, VerbUser:
		return nil
	case VerbNamespace:
		if len(args) > 0 {
			cmd.NamespaceArg = args[0]
		}
		return nil
	case VerbAllNamespaces:
		return nil
	case VerbFilter:
		cmd.Filter = strings.Join(args, " ")
		return nil
	case VerbLogs:
		cmd.ExecArgs = args
		return nil
	case VerbEdit, VerbDelete, VerbRestart:
		if len(args) > 0 {
			if ref, ok := parseTarget(args[0]); ok {
				cmd.Target = &ref
			}
		}
		return nil
	case VerbScale:
		if len(args) == 0 {
			return newErr(MissingArg, "scale requires a replica count")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return newErr(BadArg, "replica count must be a non-negative integer")
		}
		cmd.ScaleTo = n
		return nil
	case VerbExec:
		if len(args) == 0 {
			return newErr(MissingArg, "exec requires a command")
		}
		cmd.ExecArgs = args
		return nil
	case VerbShell:
		cmd.ExecArgs = args
		return nil
	case VerbPortForward:
		if len(args) == 0 {
			return newErr(MissingArg, "port-forward requires local:remote, or close")
		}
		if args[0] == "close" || args[0] == "kill" {
			cmd.Filter = "close"
			return nil
		}
		pp, err := parsePortPair(args[0])
		if err != nil {
			return err
		}
		cmd.PortPair = pp
		return nil
	case VerbReadonly:
		if len(args) == 0 {
			return newErr(MissingArg, "readonly requires on|off|toggle")
		}
		cmd.Filter = strings.ToLower(args[0]) // reused field: on/off/toggle
		return nil
	case VerbScaleConfirm:
		if len(args) == 0 {
			return newErr(MissingArg, "scale-confirm requires on|off")
		}
		cmd.Filter = strings.ToLower(args[0])
		return nil
	case VerbPlugin:
		if len(args) == 0 {
			return newErr(MissingArg, "plugin requires a plugin name")
		}
		cmd.PluginName = args[0]
		cmd.ExecArgs = args[1:]
		return nil
	default:
		return newErr(UnknownVerb, string(verb))
	}
}

func parseTarget(tok string) (TargetRef, bool) {
	if ns, name, ok := strings.Cut(tok, "/"); ok {
		return TargetRef{Namespace: ns, Name: name}, true
	}
	return TargetRef{Name: tok}, true
}

func parsePortPair(tok string) (*PortPair, error) {
	localStr, remoteStr, ok := strings.Cut(tok, ":")
	if !ok {
		return nil, newErr(BadArg, "expected local:remote port pair")
	}
	local, err1 := strconv.Atoi(localStr)
	remote, err2 := strconv.Atoi(remoteStr)
	if err1 != nil || err2 != nil {
		return nil, newErr(BadArg, "ports must be numeric")
	}
	if local < 1 || local > 65535 || remote < 1 || remote > 65535 {
		return nil, newErr(BadArg, "ports must be in range 1-65535")
	}
	return &PortPair{Local: local, Remote: remote}, nil
}
