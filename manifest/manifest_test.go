package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[memory]
arena_bytes = 131072
heap_cells = 20000
max_depth = 300

[storage]
backend = "sqlite"
database = "flash.db"

[startup]
file = "startup.lg"
prefix = "/work"

[log]
verbosity = 2
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Memory.ArenaBytes != 131072 || m.Memory.HeapCells != 20000 || m.Memory.MaxDepth != 300 {
		t.Errorf("memory = %+v", m.Memory)
	}
	if m.Storage.Backend != BackendSQLite {
		t.Errorf("backend = %q, want sqlite", m.Storage.Backend)
	}
	if m.DatabasePath() != filepath.Join(m.Dir, "flash.db") {
		t.Errorf("database path = %q", m.DatabasePath())
	}
	if m.Startup.File != "startup.lg" || m.Startup.Prefix != "/work" {
		t.Errorf("startup = %+v", m.Startup)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", m.Log.Verbosity)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Storage.Backend != BackendOS {
		t.Errorf("default backend = %q, want os", m.Storage.Backend)
	}
	if m.RootPath() != m.Dir {
		t.Errorf("default root = %q, want %q", m.RootPath(), m.Dir)
	}
	if m.Storage.Database != "logo.db" {
		t.Errorf("default database = %q", m.Storage.Database)
	}
	if m.Startup.Prefix != "/" {
		t.Errorf("default prefix = %q, want /", m.Startup.Prefix)
	}
	if m.Memory != (Memory{}) {
		t.Errorf("memory should stay zero for interpreter defaults: %+v", m.Memory)
	}
}

func TestLoadManifestRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"unknown backend", "[storage]\nbackend = \"floppy\"\n", "unknown storage backend"},
		{"negative size", "[memory]\nheap_cells = -1\n", "negative"},
		{"unaligned arena", "[memory]\narena_bytes = 10\n", "whole number of words"},
		{"bad toml", "[memory\n", "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Load err = %v, want it to mention %q", err, tt.errText)
			}
		})
	}
}

func TestLoadManifestAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	root := t.TempDir()
	writeManifest(t, dir, "[storage]\nroot = \""+filepath.ToSlash(root)+"\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.RootPath() != filepath.FromSlash(filepath.ToSlash(root)) {
		t.Errorf("root = %q, want %q", m.RootPath(), root)
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[startup]\nfile = \"boot.lg\"\n")

	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Startup.File != "boot.lg" {
		t.Errorf("startup file = %q", m.Startup.File)
	}
	absDir, _ := filepath.Abs(dir)
	if m.Dir != absDir {
		t.Errorf("Dir = %q, want %q", m.Dir, absDir)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no logo.toml exists")
	}
}

func TestDefault(t *testing.T) {
	m, err := Default(".")
	if err != nil {
		t.Fatal(err)
	}
	if m.Storage.Backend != BackendOS || m.Startup.Prefix != "/" || !filepath.IsAbs(m.Dir) {
		t.Errorf("Default = %+v", m)
	}
}
