// Package manifest handles logo.toml interpreter configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked for by Load and FindAndLoad.
const FileName = "logo.toml"

// Storage backends.
const (
	BackendOS     = "os"
	BackendSQLite = "sqlite"
)

// Manifest represents a logo.toml configuration.
type Manifest struct {
	Memory  Memory  `toml:"memory"`
	Storage Storage `toml:"storage"`
	Startup Startup `toml:"startup"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the logo.toml file (set at load time).
	Dir string `toml:"-"`
}

// Memory sizes the interpreter. Zero leaves the interpreter default.
type Memory struct {
	ArenaBytes int `toml:"arena_bytes"`
	HeapCells  int `toml:"heap_cells"`
	MaxDepth   int `toml:"max_depth"`
}

// Storage selects the file system Logo programs see.
type Storage struct {
	Backend  string `toml:"backend"`
	Root     string `toml:"root"`
	Database string `toml:"database"`
}

// Startup configures what runs before the first prompt.
type Startup struct {
	File   string `toml:"file"`
	Prefix string `toml:"prefix"`
}

// Log configures diagnostics.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no logo.toml exists.
func Default(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m := &Manifest{Dir: abs}
	m.applyDefaults()
	return m, nil
}

// Load parses a logo.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Storage.Backend == "" {
		m.Storage.Backend = BackendOS
	}
	if m.Storage.Root == "" {
		m.Storage.Root = "."
	}
	if m.Storage.Database == "" {
		m.Storage.Database = "logo.db"
	}
	if m.Startup.Prefix == "" {
		m.Startup.Prefix = "/"
	}
}

func (m *Manifest) validate() error {
	switch m.Storage.Backend {
	case BackendOS, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", m.Storage.Backend)
	}
	if m.Memory.ArenaBytes < 0 || m.Memory.HeapCells < 0 || m.Memory.MaxDepth < 0 {
		return fmt.Errorf("memory sizes must not be negative")
	}
	if m.Memory.ArenaBytes%4 != 0 {
		return fmt.Errorf("arena_bytes %d is not a whole number of words", m.Memory.ArenaBytes)
	}
	return nil
}

// FindAndLoad walks up from startDir to find a logo.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// RootPath returns the host directory served by the os backend.
func (m *Manifest) RootPath() string {
	return m.resolve(m.Storage.Root)
}

// DatabasePath returns the database file used by the sqlite backend.
func (m *Manifest) DatabasePath() string {
	return m.resolve(m.Storage.Database)
}
