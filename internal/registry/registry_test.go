package registry

import "testing"

func TestValidateRejectsBuiltinRebind(t *testing.T) {
	err := Validate(map[string]string{"delete": "rm"})
	if err == nil {
		t.Fatalf("expected rebinding a builtin verb to fail")
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	err := Validate(map[string]string{"a": "b", "b": "a"})
	if err == nil {
		t.Fatalf("expected alias cycle to be rejected")
	}
}

func TestValidateAcceptsChain(t *testing.T) {
	err := Validate(map[string]string{"k": "pods"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReloadLeavesPreviousStateOnFailure(t *testing.T) {
	r := New()
	if err := r.Reload(map[string]string{"k": "pods"}, nil, nil); err != nil {
		t.Fatal(err)
	}
	err := r.Reload(map[string]string{"delete": "rm"}, nil, nil)
	if err == nil {
		t.Fatalf("expected invalid reload to fail")
	}
	if target, ok := r.ResolveAlias("k"); !ok || target != "pods" {
		t.Fatalf("expected previous alias table to survive failed reload, got %q, %v", target, ok)
	}
}

func TestSubstitutePlaceholders(t *testing.T) {
	out, err := Substitute("logs -n {namespace} {name}", PlaceholderContext{Namespace: "default", Name: "web-1"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "logs -n default web-1" {
		t.Fatalf("unexpected substitution: %q", out)
	}
}

func TestSubstituteMissingArg(t *testing.T) {
	_, err := Substitute("exec {name}", PlaceholderContext{})
	if err == nil {
		t.Fatalf("expected missing {name} to error")
	}
	if _, ok := err.(*ErrMissingArg); !ok {
		t.Fatalf("expected ErrMissingArg, got %T", err)
	}
}

func TestSubstituteAllNamespacesAlwaysResolves(t *testing.T) {
	out, err := Substitute("list --all={all_namespaces}", PlaceholderContext{AllNamespaces: false})
	if err != nil {
		t.Fatalf("false is a valid boolean value, got error: %v", err)
	}
	if out != "list --all=false" {
		t.Fatalf("unexpected substitution: %q", out)
	}
	out, err = Substitute("{all_namespaces}", PlaceholderContext{AllNamespaces: true})
	if err != nil || out != "true" {
		t.Fatalf("expected true, got %q, %v", out, err)
	}
}
