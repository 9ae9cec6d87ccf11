package k8s

import (
	"fmt"
	"os"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// ContextInfo is one row of the context catalog overlay.
type ContextInfo struct {
	Name      string
	Cluster   string
	Namespace string
	User      string
	Current   bool
}

// ClusterInfo is one row of the cluster catalog overlay.
type ClusterInfo struct {
	Name   string
	Server string
}

// UserInfo is one row of the user catalog overlay.
type UserInfo struct {
	Name string
}

// Kubeconfig loads a single kubeconfig file and exposes its contexts,
// clusters, and users as catalog rows, and builds a REST config for a named
// context. Resolution follows clientcmd's standard $KUBECONFIG handling.
type Kubeconfig struct {
	path    string
	raw     *api.Config
	loading *clientcmd.ClientConfigLoadingRules
}

// LoadKubeconfig resolves $KUBECONFIG (or ~/.kube/config) using the
// standard clientcmd loading rules.
func LoadKubeconfig() (*Kubeconfig, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	raw, err := rules.Load()
	if err != nil {
		return nil, fmt.Errorf("k8s: load kubeconfig: %w", err)
	}
	path := os.Getenv("KUBECONFIG")
	if path == "" {
		path = rules.GetDefaultFilename()
	}
	return &Kubeconfig{path: path, raw: raw, loading: rules}, nil
}

// CurrentContext returns the kubeconfig's current-context name.
func (k *Kubeconfig) CurrentContext() string { return k.raw.CurrentContext }

// Contexts lists every context entry for the context catalog overlay.
func (k *Kubeconfig) Contexts() []ContextInfo {
	out := make([]ContextInfo, 0, len(k.raw.Contexts))
	for name, c := range k.raw.Contexts {
		out = append(out, ContextInfo{
			Name:      name,
			Cluster:   c.Cluster,
			Namespace: c.Namespace,
			User:      c.AuthInfo,
			Current:   name == k.raw.CurrentContext,
		})
	}
	return out
}

// Clusters lists every cluster entry for the cluster catalog overlay.
func (k *Kubeconfig) Clusters() []ClusterInfo {
	out := make([]ClusterInfo, 0, len(k.raw.Clusters))
	for name, c := range k.raw.Clusters {
		out = append(out, ClusterInfo{Name: name, Server: c.Server})
	}
	return out
}

// Users lists every auth-info entry for the user catalog overlay. Orca
// never surfaces credential material, only identity names.
func (k *Kubeconfig) Users() []UserInfo {
	out := make([]UserInfo, 0, len(k.raw.AuthInfos))
	for name := range k.raw.AuthInfos {
		out = append(out, UserInfo{Name: name})
	}
	return out
}

// RESTConfigForContext builds a *rest.Config for the named context without
// mutating the loaded kubeconfig or current-context on disk.
func (k *Kubeconfig) RESTConfigForContext(contextName string) (*rest.Config, error) {
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		k.loading,
		&clientcmd.ConfigOverrides{CurrentContext: contextName},
	).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("k8s: build REST config for context %q: %w", contextName, err)
	}
	return cfg, nil
}

// NamespaceForContext returns the context's configured default namespace,
// falling back to "default" the way kubectl does.
func (k *Kubeconfig) NamespaceForContext(contextName string) string {
	if c, ok := k.raw.Contexts[contextName]; ok && c.Namespace != "" {
		return c.Namespace
	}
	return "default"
}
