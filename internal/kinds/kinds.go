// Package kinds enumerates the resource kinds orca's cockpit can display and
// operate on, along with their short aliases and per-kind capabilities.
//
// This avoids scattering kind-specific branches through the store, command
// dispatcher, and action supervisor: each consults the same capability table
// keyed by ResourceKind.
package kinds

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// ResourceKind identifies one of the built-in resource kinds the cockpit
// knows how to list and watch. CRD lists the CustomResourceDefinitions
// themselves; CRDInstance stands for kinds discovered at runtime; see
// Capability.Dynamic.
type ResourceKind int

const (
	Unknown ResourceKind = iota
	Pods
	CronJobs
	DaemonSets
	Deployments
	ReplicaSets
	ReplicationControllers
	StatefulSets
	Jobs
	Services
	Ingresses
	IngressClasses
	ConfigMaps
	PersistentVolumeClaims
	Secrets
	StorageClasses
	PersistentVolumes
	ServiceAccounts
	Roles
	RoleBindings
	ClusterRoles
	ClusterRoleBindings
	NetworkPolicies
	Nodes
	Events
	Namespaces
	CRD
	CRDInstance
)

// Scope describes whether a kind is namespaced or cluster-scoped.
type Scope int

const (
	Namespaced Scope = iota
	ClusterScoped
)

// Capability describes what the cockpit is allowed to do with a kind.
type Capability struct {
	Kind            ResourceKind
	Canonical       string
	Aliases         []string
	GVK             schema.GroupVersionKind
	ScopeKind       Scope
	SupportsScale   bool
	SupportsRestart bool
	SupportsLogs    bool
	SupportsExec    bool
	Dynamic         bool // true for CRDInstance: GVK resolved at runtime
}

var table = []Capability{
	{Kind: Pods, Canonical: "pods", Aliases: []string{"po", "pod"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "Pod"}, ScopeKind: Namespaced, SupportsLogs: true, SupportsExec: true},
	{Kind: CronJobs, Canonical: "cronjobs", Aliases: []string{"cj", "cronjob"}, GVK: schema.GroupVersionKind{Group: "batch", Version: "v1", Kind: "CronJob"}, ScopeKind: Namespaced},
	{Kind: DaemonSets, Canonical: "daemonsets", Aliases: []string{"ds", "daemonset"}, GVK: schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "DaemonSet"}, ScopeKind: Namespaced, SupportsRestart: true},
	{Kind: Deployments, Canonical: "deployments", Aliases: []string{"deploy", "deployment"}, GVK: schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, ScopeKind: Namespaced, SupportsScale: true, SupportsRestart: true},
	{Kind: ReplicaSets, Canonical: "replicasets", Aliases: []string{"rs", "replicaset"}, GVK: schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "ReplicaSet"}, ScopeKind: Namespaced, SupportsScale: true},
	{Kind: ReplicationControllers, Canonical: "replicationcontrollers", Aliases: []string{"rc"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "ReplicationController"}, ScopeKind: Namespaced, SupportsScale: true},
	{Kind: StatefulSets, Canonical: "statefulsets", Aliases: []string{"sts", "statefulset"}, GVK: schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "StatefulSet"}, ScopeKind: Namespaced, SupportsScale: true, SupportsRestart: true},
	{Kind: Jobs, Canonical: "jobs", Aliases: []string{"job"}, GVK: schema.GroupVersionKind{Group: "batch", Version: "v1", Kind: "Job"}, ScopeKind: Namespaced},
	{Kind: Services, Canonical: "services", Aliases: []string{"svc", "service"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "Service"}, ScopeKind: Namespaced},
	{Kind: Ingresses, Canonical: "ingresses", Aliases: []string{"ing", "ingress"}, GVK: schema.GroupVersionKind{Group: "networking.k8s.io", Version: "v1", Kind: "Ingress"}, ScopeKind: Namespaced},
	{Kind: IngressClasses, Canonical: "ingressclasses", Aliases: []string{"ingclass"}, GVK: schema.GroupVersionKind{Group: "networking.k8s.io", Version: "v1", Kind: "IngressClass"}, ScopeKind: ClusterScoped},
	{Kind: ConfigMaps, Canonical: "configmaps", Aliases: []string{"cm", "configmap"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}, ScopeKind: Namespaced},
	{Kind: PersistentVolumeClaims, Canonical: "persistentvolumeclaims", Aliases: []string{"pvc"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "PersistentVolumeClaim"}, ScopeKind: Namespaced},
	{Kind: Secrets, Canonical: "secrets", Aliases: []string{"secret"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "Secret"}, ScopeKind: Namespaced},
	{Kind: StorageClasses, Canonical: "storageclasses", Aliases: []string{"sc"}, GVK: schema.GroupVersionKind{Group: "storage.k8s.io", Version: "v1", Kind: "StorageClass"}, ScopeKind: ClusterScoped},
	{Kind: PersistentVolumes, Canonical: "persistentvolumes", Aliases: []string{"pv"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "PersistentVolume"}, ScopeKind: ClusterScoped},
	{Kind: ServiceAccounts, Canonical: "serviceaccounts", Aliases: []string{"sa"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "ServiceAccount"}, ScopeKind: Namespaced},
	{Kind: Roles, Canonical: "roles", Aliases: []string{"role"}, GVK: schema.GroupVersionKind{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "Role"}, ScopeKind: Namespaced},
	{Kind: RoleBindings, Canonical: "rolebindings", Aliases: []string{"rb"}, GVK: schema.GroupVersionKind{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "RoleBinding"}, ScopeKind: Namespaced},
	{Kind: ClusterRoles, Canonical: "clusterroles", Aliases: []string{"cr"}, GVK: schema.GroupVersionKind{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRole"}, ScopeKind: ClusterScoped},
	{Kind: ClusterRoleBindings, Canonical: "clusterrolebindings", Aliases: []string{"crb"}, GVK: schema.GroupVersionKind{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRoleBinding"}, ScopeKind: ClusterScoped},
	{Kind: NetworkPolicies, Canonical: "networkpolicies", Aliases: []string{"np"}, GVK: schema.GroupVersionKind{Group: "networking.k8s.io", Version: "v1", Kind: "NetworkPolicy"}, ScopeKind: Namespaced},
	{Kind: Nodes, Canonical: "nodes", Aliases: []string{"no", "node"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "Node"}, ScopeKind: ClusterScoped},
	{Kind: Events, Canonical: "events", Aliases: []string{"ev", "event"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "Event"}, ScopeKind: Namespaced},
	{Kind: Namespaces, Canonical: "namespaces", Aliases: []string{"ns", "namespace"}, GVK: schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}, ScopeKind: ClusterScoped},
	{Kind: CRD, Canonical: "customresourcedefinitions", Aliases: []string{"crd", "crds"}, GVK: schema.GroupVersionKind{Group: "apiextensions.k8s.io", Version: "v1", Kind: "CustomResourceDefinition"}, ScopeKind: ClusterScoped},
	{Kind: CRDInstance, Canonical: "crd-instance", Aliases: nil, ScopeKind: Namespaced, Dynamic: true},
}

var (
	byAlias     = map[string]ResourceKind{}
	byKind      = map[ResourceKind]Capability{}
	primaryName = map[ResourceKind]string{}
)

func init() {
	for _, c := range table {
		byKind[c.Kind] = c
		primaryName[c.Kind] = c.Canonical
		byAlias[strings.ToLower(c.Canonical)] = c.Kind
		for _, a := range c.Aliases {
			byAlias[strings.ToLower(a)] = c.Kind
		}
	}
}

// Resolve performs a case-insensitive alias lookup, returning the canonical
// kind. Resolution is unique: the alias table is built once at init and
// panics-free on duplicate registration would be a programming error caught
// by TestAliasesUnique.
func Resolve(alias string) (ResourceKind, bool) {
	k, ok := byAlias[strings.ToLower(strings.TrimSpace(alias))]
	return k, ok
}

// CapabilityOf returns the capability row for a kind.
func CapabilityOf(k ResourceKind) (Capability, bool) {
	c, ok := byKind[k]
	return c, ok
}

// PrimaryAlias returns the canonical (longest-form) name for a kind, the
// alias round-trip's fixed point.
func PrimaryAlias(k ResourceKind) string {
	return primaryName[k]
}

// All returns every known static capability row, in declaration order.
func All() []Capability {
	out := make([]Capability, len(table))
	copy(out, table)
	return out
}

// ClusterScopedKind reports whether a kind ignores namespace scoping.
func ClusterScopedKind(k ResourceKind) bool {
	c, ok := byKind[k]
	return ok && c.ScopeKind == ClusterScoped
}

func (k ResourceKind) String() string {
	if name, ok := primaryName[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}
