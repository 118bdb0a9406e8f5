package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/turtle/device"
	"github.com/chazu/turtle/manifest"
)

func TestLoadManifestFromFlag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte("[log]\nverbosity = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := loadManifest(dir)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m.Log.Verbosity != 1 {
		t.Errorf("verbosity = %d, want 1", m.Log.Verbosity)
	}

	if _, err := loadManifest(t.TempDir()); err == nil {
		t.Error("expected an error for a directory without logo.toml")
	}
}

func TestOpenStorageBackends(t *testing.T) {
	dir := t.TempDir()

	osm, _ := manifest.Default(dir)
	store, closeStore, err := openStorage(osm)
	if err != nil {
		t.Fatalf("os backend: %v", err)
	}
	if _, ok := store.(*device.OSStorage); !ok {
		t.Errorf("os backend gave %T", store)
	}
	closeStore()

	sqlm, _ := manifest.Default(dir)
	sqlm.Storage.Backend = manifest.BackendSQLite
	store, closeStore, err = openStorage(sqlm)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*device.SQLiteStorage); !ok {
		t.Errorf("sqlite backend gave %T", store)
	}
	if _, err := os.Stat(filepath.Join(dir, "logo.db")); err != nil {
		t.Errorf("database not created: %v", err)
	}
}
