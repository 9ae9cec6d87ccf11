package kinds

import "testing"

func TestAliasRoundTrip(t *testing.T) {
	for _, c := range All() {
		for _, a := range append([]string{c.Canonical}, c.Aliases...) {
			got, ok := Resolve(a)
			if !ok {
				t.Fatalf("alias %q did not resolve", a)
			}
			if got != c.Kind {
				t.Fatalf("alias %q resolved to %v, want %v", a, got, c.Kind)
			}
		}
		if PrimaryAlias(c.Kind) != c.Canonical {
			t.Fatalf("primary alias for %v = %q, want %q", c.Kind, PrimaryAlias(c.Kind), c.Canonical)
		}
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	k, ok := Resolve("PO")
	if !ok || k != Pods {
		t.Fatalf("expected PO to resolve to Pods, got %v, %v", k, ok)
	}
}

func TestAliasesUnique(t *testing.T) {
	seen := map[string]ResourceKind{}
	for _, c := range All() {
		for _, a := range append([]string{c.Canonical}, c.Aliases...) {
			if prev, ok := seen[a]; ok && prev != c.Kind {
				t.Fatalf("alias %q claimed by both %v and %v", a, prev, c.Kind)
			}
			seen[a] = c.Kind
		}
	}
}

func TestClusterScopedIgnoresNamespace(t *testing.T) {
	if !ClusterScopedKind(Nodes) {
		t.Fatalf("expected Nodes to be cluster-scoped")
	}
	if ClusterScopedKind(Pods) {
		t.Fatalf("expected Pods to be namespaced")
	}
}
