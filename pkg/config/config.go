// Package config is the external source of truth for the hotkey/alias/
// plugin registry and the few process-wide policy toggles (read-only
// default, refresh cadence, scale confirmation). It emits a Snapshot on
// startup and again on every file change.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "sigs.k8s.io/yaml"

	"github.com/orca-cli/orca/internal/registry"
)

// PluginConfig is the on-disk shape of one registry.PluginDef.
type PluginConfig struct {
	Name       string   `json:"name"`
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	Background bool     `json:"background"`
	Mutating   bool     `json:"mutating"`
}

// Config is the full on-disk configuration document.
type Config struct {
	ReadOnly     bool              `json:"readOnly"`
	RefreshMs    int               `json:"refreshMs"`
	ScaleConfirm bool              `json:"scaleConfirm"`
	Aliases      map[string]string `json:"aliases"`
	Hotkeys      map[string]string `json:"hotkeys"`
	Plugins      []PluginConfig    `json:"plugins"`
}

// Snapshot is the Config collaborator's wire shape to the rest of the cockpit
//.
type Snapshot struct {
	Aliases map[string]string
	Hotkeys map[string]string
	Plugins map[string]registry.PluginDef
}

// Default returns the built-in configuration: guarded (not read-only unless
// ORCA_READONLY says so — that env var is applied by the caller, not here),
// immediate scale, and no user aliases,
// hotkeys, or plugins.
func Default() *Config {
	return &Config{
		RefreshMs:    1000,
		ScaleConfirm: false,
		Aliases:      map[string]string{},
		Hotkeys:      map[string]string{},
	}
}

// Snapshot converts the on-disk Config into the collaborator's wire Snapshot.
func (c *Config) Snapshot() Snapshot {
	plugins := make(map[string]registry.PluginDef, len(c.Plugins))
	for _, p := range c.Plugins {
		plugins[p.Name] = registry.PluginDef{
			Name: p.Name, Command: p.Command, Args: append([]string(nil), p.Args...),
			Background: p.Background, Mutating: p.Mutating,
		}
	}
	return Snapshot{
		Aliases: cloneMap(c.Aliases),
		Hotkeys: cloneMap(c.Hotkeys),
		Plugins: plugins,
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Path resolves the config file location: $ORCA_CONFIG if set,
// otherwise ~/.config/orca/config.yaml.
func Path() (string, error) {
	if p := os.Getenv("ORCA_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "orca", "config.yaml"), nil
}

// Load reads the config file if present, falling back to Default() when it
// is absent; a missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()
	p, err := Path()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	return parse(data, cfg)
}

// parse tries a direct typed unmarshal first (sigs.k8s.io/yaml matches keys
// case-insensitively, so upper-case keys already parse there) and only falls
// back to manual case-insensitive extraction of the top-level toggles if that
// fails outright, e.g. when some other field has the wrong type.
func parse(data []byte, cfg *Config) (*Config, error) {
	if err := yaml.Unmarshal(data, cfg); err == nil {
		normalize(cfg)
		return cfg, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, err
	}
	if v, ok := lookupCI(raw, "readonly"); ok {
		if b, ok := v.(bool); ok {
			cfg.ReadOnly = b
		}
	}
	if v, ok := lookupCI(raw, "refreshms"); ok {
		switch n := v.(type) {
		case int:
			cfg.RefreshMs = n
		case float64:
			cfg.RefreshMs = int(n)
		}
	}
	if v, ok := lookupCI(raw, "scaleconfirm"); ok {
		if b, ok := v.(bool); ok {
			cfg.ScaleConfirm = b
		}
	}
	normalize(cfg)
	return cfg, nil
}

func lookupCI(m map[string]any, key string) (any, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func normalize(cfg *Config) {
	if cfg.RefreshMs <= 0 {
		cfg.RefreshMs = 1000
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	if cfg.Hotkeys == nil {
		cfg.Hotkeys = map[string]string{}
	}
}

// Save writes cfg back to Path(), creating the parent directory if needed.
func Save(cfg *Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Watcher watches the config file for changes using fsnotify, re-parsing
// and delivering a fresh Snapshot on every write.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	updates chan Snapshot
	errs    chan error
}

// NewWatcher creates a Watcher over the resolved config path's directory.
// It emits nothing itself; Run sends the initial Snapshot (from Load) as the
// first value on Updates before watching for further changes.
func NewWatcher() (*Watcher, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{path: p, fsw: fsw, updates: make(chan Snapshot, 1), errs: make(chan error, 1)}
	return w, nil
}

// Updates delivers a Snapshot for every successful load, starting with one
// synthesized from the current on-disk (or default) config.
func (w *Watcher) Updates() <-chan Snapshot { return w.updates }

// Errors delivers a reload error when a changed file fails to parse; the
// previous snapshot is left in effect (the caller simply ignores the write).
func (w *Watcher) Errors() <-chan error { return w.errs }

// Run blocks, pushing an initial snapshot and then one per relevant fsnotify
// event, until Close is called. Callers run this in its own goroutine; the
// runtime loop never blocks on it directly.
func (w *Watcher) Run() {
	if cfg, err := Load(); err == nil {
		w.updates <- cfg.Snapshot()
	}
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false
	for {
		select {
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(w.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !pending {
				pending = true
				debounce.Reset(100 * time.Millisecond)
			}
		case <-debounce.C:
			pending = false
			cfg, err := Load()
			if err != nil {
				select {
				case w.errs <- err:
				default:
				}
				continue
			}
			select {
			case w.updates <- cfg.Snapshot():
			default:
				// Drop stale snapshot rather than block; the next change will
				// deliver a fresher one.
				<-w.updates
				w.updates <- cfg.Snapshot()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }
