package command

import (
	"testing"

	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/registry"
)

func TestParseBuiltinAlias(t *testing.T) {
	cmd, err := Parse("q", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbQuit {
		t.Fatalf("expected VerbQuit, got %v", cmd.Verb)
	}
}

func TestParseResourceSwitch(t *testing.T) {
	cmd, err := Parse("deploy", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbSwitchResource || cmd.ResourceKind != kinds.Deployments {
		t.Fatalf("expected switch to Deployments, got verb=%v kind=%v", cmd.Verb, cmd.ResourceKind)
	}
}

func TestParseResourceWithTarget(t *testing.T) {
	cmd, err := Parse("pods kube-system/coredns-123", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Target == nil || cmd.Target.Namespace != "kube-system" || cmd.Target.Name != "coredns-123" {
		t.Fatalf("expected parsed target, got %+v", cmd.Target)
	}
}

func TestParseResourceWithFilter(t *testing.T) {
	cmd, err := Parse("pods crashloop", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Filter != "crashloop" {
		t.Fatalf("expected filter %q, got %q", "crashloop", cmd.Filter)
	}
}

func TestParseScaleRequiresInt(t *testing.T) {
	_, err := Parse("scale abc", false, nil)
	if err == nil {
		t.Fatalf("expected error for non-numeric scale arg")
	}
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != BadArg {
		t.Fatalf("expected BadArg, got %v", err)
	}
}

func TestParseScaleMissingArg(t *testing.T) {
	_, err := Parse("scale", false, nil)
	if err == nil {
		t.Fatalf("expected error for missing scale arg")
	}
	cmderr, ok := err.(*Error)
	if !ok || cmderr.Kind != MissingArg {
		t.Fatalf("expected MissingArg, got %v", err)
	}
}

func TestParsePortForward(t *testing.T) {
	cmd, err := Parse("pf 8080:80", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.PortPair == nil || cmd.PortPair.Local != 8080 || cmd.PortPair.Remote != 80 {
		t.Fatalf("unexpected port pair: %+v", cmd.PortPair)
	}
}

func TestParsePortForwardInvalidRange(t *testing.T) {
	_, err := Parse("pf 0:80", false, nil)
	if err == nil {
		t.Fatalf("expected error for out-of-range port")
	}
}

func TestParseDevOpsVerb(t *testing.T) {
	cmd, err := Parse("helm", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbDevOpsTool || cmd.DevOpsTool != "helm" {
		t.Fatalf("expected devops-tool helm, got %+v", cmd)
	}
}

func TestParseUnknownVerb(t *testing.T) {
	_, err := Parse("nonsense", false, nil)
	if err == nil {
		t.Fatalf("expected error for unknown verb")
	}
}

func TestParseBuiltinWinsOverResourceAlias(t *testing.T) {
	// "ns" is both the builtin namespace verb and an alias for Namespaces;
	// the builtin must win.
	cmd, err := Parse("ns prod", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbNamespace || cmd.NamespaceArg != "prod" {
		t.Fatalf("expected builtin ns verb to win, got %+v", cmd)
	}
}

func TestParseUserAliasExpandsToResource(t *testing.T) {
	reg := registry.New()
	if err := reg.Reload(map[string]string{"k": "pods"}, nil, nil); err != nil {
		t.Fatal(err)
	}
	cmd, err := Parse("k", false, reg)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbSwitchResource || cmd.ResourceKind != kinds.Pods {
		t.Fatalf("expected alias k to expand to pods, got %+v", cmd)
	}
}

func TestParseUserAliasExpandsToBuiltin(t *testing.T) {
	reg := registry.New()
	if err := reg.Reload(map[string]string{"rm": "delete"}, nil, nil); err != nil {
		t.Fatal(err)
	}
	cmd, err := Parse("rm", false, reg)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbDelete {
		t.Fatalf("expected alias rm to expand to delete, got %+v", cmd)
	}
}

func TestParseJumpFuzzyName(t *testing.T) {
	cmd, err := Parse("coredns-abc", true, nil)
	if err != nil {
		t.Fatalf("expected jump-mode bare name to fuzzy-match, got error: %v", err)
	}
	if cmd.FuzzyName != "coredns-abc" {
		t.Fatalf("expected fuzzy name to be set, got %+v", cmd)
	}
}

func TestParseNonJumpUnresolvedIsError(t *testing.T) {
	_, err := Parse("coredns-abc", false, nil)
	if err == nil {
		t.Fatalf("expected unresolved non-jump token to error")
	}
}

func TestParsePluginByRegisteredName(t *testing.T) {
	reg := registry.New()
	plugins := map[string]registry.PluginDef{"mytool": {Name: "mytool", Command: "mytool"}}
	if err := reg.Reload(nil, nil, plugins); err != nil {
		t.Fatal(err)
	}
	cmd, err := Parse("mytool extra", false, reg)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbPlugin || cmd.PluginName != "mytool" || len(cmd.ExecArgs) != 1 {
		t.Fatalf("expected plugin command, got %+v", cmd)
	}
}

func TestParsePortForwardClose(t *testing.T) {
	cmd, err := Parse("pf close", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbPortForward || cmd.Filter != "close" || cmd.PortPair != nil {
		t.Fatalf("expected pf close, got %+v", cmd)
	}
}
