package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("ORCA_CONFIG", filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReadOnly || cfg.ScaleConfirm || cfg.RefreshMs != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadParsesAliasesHotkeysPlugins(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
readOnly: true
refreshMs: 750
aliases:
  k: pods
hotkeys:
  "ctrl+l": logs
plugins:
  - name: ktop
    command: ktop
    args: ["-n", "{namespace}"]
    background: true
    mutating: false
`
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ORCA_CONFIG", p)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.ReadOnly || cfg.RefreshMs != 750 {
		t.Fatalf("top-level fields not parsed: %+v", cfg)
	}
	snap := cfg.Snapshot()
	if snap.Aliases["k"] != "pods" {
		t.Fatalf("alias not parsed: %+v", snap.Aliases)
	}
	if snap.Hotkeys["ctrl+l"] != "logs" {
		t.Fatalf("hotkey not parsed: %+v", snap.Hotkeys)
	}
	pl, ok := snap.Plugins["ktop"]
	if !ok || !pl.Background || pl.Mutating || len(pl.Args) != 2 {
		t.Fatalf("plugin not parsed: %+v", snap.Plugins)
	}
}

func TestParseAcceptsUpperCaseKeys(t *testing.T) {
	cfg, err := parse([]byte("ReadOnly: true\nRefreshMs: 2000\n"), Default())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RefreshMs != 2000 {
		t.Fatalf("expected refreshMs 2000, got %d", cfg.RefreshMs)
	}
}

func TestPathHonorsOverride(t *testing.T) {
	t.Setenv("ORCA_CONFIG", "/tmp/orca-test.yaml")
	p, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/orca-test.yaml" {
		t.Fatalf("expected ORCA_CONFIG override, got %q", p)
	}
}
