// Package registry implements the hotkey/alias/plugin registry:
// runtime-reloadable key->command and alias->command tables, sourced from
// pkg/config and validated on every reload.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BuiltinVerbs is the fixed vocabulary the command parser resolves first.
// Rebinding any of these via a user alias is rejected.
var BuiltinVerbs = map[string]bool{}

func init() {
	for _, v := range strings.Fields(
		"q quit exit refresh r reload ctx cluster user ns all-ns filter clear " +
			"logs edit delete del restart scale exec shell ssh bash pf port-forward " +
			"crd crd-refresh help tab readonly ro config alerts pulses xray argocd " +
			"helm tf terraform ansible docker rbac oc openshift kustomize plugin",
	) {
		BuiltinVerbs[v] = true
	}
}

// PluginDef describes a user-defined plugin command; its Args may carry
// {name}-style placeholders expanded at dispatch time.
type PluginDef struct {
	Name    string
	Command string
	Args    []string
	// Background selects whether the plugin runs as a foreground suspension
	// or a background task with its output streamed into the UI.
	Background bool
	// Mutating marks the plugin as cluster-mutating, subjecting it to the
	// read-only guard.
	Mutating bool
}

// Registry holds the live alias/hotkey/plugin tables.
type Registry struct {
	mu      sync.RWMutex
	aliases map[string]string // user alias -> target verb (expanded once)
	hotkeys map[string]string // key -> verb or alias
	plugins map[string]PluginDef
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		aliases: make(map[string]string),
		hotkeys: make(map[string]string),
		plugins: make(map[string]PluginDef),
	}
}

// Reload validates and swaps in a new snapshot atomically. On validation
// failure the previous tables are left untouched and the error is returned
// for the caller to surface as a non-modal status message.
func (r *Registry) Reload(aliases map[string]string, hotkeys map[string]string, plugins map[string]PluginDef) error {
	if err := Validate(aliases); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases = cloneStrMap(aliases)
	r.hotkeys = cloneStrMap(hotkeys)
	r.plugins = make(map[string]PluginDef, len(plugins))
	for k, v := range plugins {
		r.plugins[k] = v
	}
	return nil
}

// Validate rejects cycles in the alias graph and rebinding a builtin verb.
func Validate(aliases map[string]string) error {
	for name := range aliases {
		if BuiltinVerbs[name] {
			return fmt.Errorf("registry: alias %q rebinds a builtin verb", name)
		}
	}
	for start := range aliases {
		seen := map[string]bool{start: true}
		cur := start
		for {
			next, ok := aliases[cur]
			if !ok {
				break // resolves to a builtin verb or resource alias; terminal
			}
			if seen[next] {
				return fmt.Errorf("registry: alias cycle detected starting at %q", start)
			}
			seen[next] = true
			cur = next
		}
	}
	return nil
}

// ResolveAlias expands a user alias exactly once; resource-alias or builtin
// resolution of the expanded token happens downstream in internal/command.
func (r *Registry) ResolveAlias(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.aliases[token]
	return target, ok
}

// Hotkey resolves a key to its bound verb/alias, if any user hotkey claims it.
func (r *Registry) Hotkey(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.hotkeys[key]
	return v, ok
}

// HasPlugin reports whether a plugin is registered under name.
func (r *Registry) HasPlugin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[name]
	return ok
}

// Plugin looks up a plugin definition by name.
func (r *Registry) Plugin(name string) (PluginDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Plugins returns all plugin names, sorted, for autocomplete candidates.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Aliases returns all alias names, sorted, for autocomplete candidates.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.aliases))
	for name := range r.aliases {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func cloneStrMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
