package k8s

import (
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/orca-cli/orca/internal/kinds"
)

func schemaParseGroupVersion(gv string) (schema.GroupVersion, error) {
	return schema.ParseGroupVersion(gv)
}

// isCustomGroup reports whether a discovered API group belongs to a CRD
// rather than a built-in Kubernetes API: the core group and the dotless
// legacy groups (apps, batch, autoscaling, policy, ...) are built-in, as is
// every extension API under the k8s.io domain (rbac.authorization.k8s.io,
// networking.k8s.io, storage.k8s.io, ...). CRD groups always contain a dot.
func isCustomGroup(group string) bool {
	if !strings.Contains(group, ".") {
		return false
	}
	return !strings.HasSuffix(group, ".k8s.io") && group != "k8s.io"
}

func isSubresourceName(name string) bool {
	return strings.Contains(name, "/")
}

func namespacedScope(namespaced bool) kinds.Scope {
	if namespaced {
		return kinds.Namespaced
	}
	return kinds.ClusterScoped
}
