package k8s

import (
	"testing"

	"github.com/orca-cli/orca/internal/kinds"
)

func TestIsCustomGroupExcludesCoreAndK8sIO(t *testing.T) {
	cases := map[string]bool{
		"":                          false,
		"apps":                      false,
		"networking.k8s.io":         false,
		"rbac.authorization.k8s.io": false,
		"argoproj.io":               true,
		"cert-manager.io":           true,
	}
	for group, want := range cases {
		if got := isCustomGroup(group); got != want {
			t.Errorf("isCustomGroup(%q) = %v, want %v", group, got, want)
		}
	}
}

func TestIsSubresourceName(t *testing.T) {
	if !isSubresourceName("pods/log") {
		t.Errorf("expected pods/log to be a subresource")
	}
	if isSubresourceName("pods") {
		t.Errorf("expected pods not to be a subresource")
	}
}

func TestNamespacedScope(t *testing.T) {
	if got := namespacedScope(true); got != kinds.Namespaced {
		t.Errorf("namespacedScope(true) = %v, want Namespaced", got)
	}
	if got := namespacedScope(false); got != kinds.ClusterScoped {
		t.Errorf("namespacedScope(false) = %v, want ClusterScoped", got)
	}
}
