package device

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// EntryKind filters ListDirectory results.
type EntryKind int

const (
	AllEntries EntryKind = iota
	FilesOnly
	DirsOnly
)

// Entry is one directory listing item.
type Entry struct {
	Name  string
	IsDir bool
}

// Storage is the file system collaborator. Paths are absolute, slash
// separated and already normalised by the caller.
type Storage interface {
	Open(path string) (Stream, error)
	FileExists(path string) bool
	DirExists(path string) bool
	FileDelete(path string) error
	DirCreate(path string) error
	DirDelete(path string) error
	Rename(from, to string) error
	FileSize(path string) (int64, error)
	ListDirectory(path string, fn func(Entry) bool, filter EntryKind) error
}

// ---------------------------------------------------------------------------
// OSStorage: host file system under a root directory
// ---------------------------------------------------------------------------

// OSStorage maps interpreter paths onto a directory of the host file system.
type OSStorage struct {
	Root string
}

// NewOSStorage returns storage rooted at root.
func NewOSStorage(root string) (*OSStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "storage", Path: abs, Err: syscall.ENOTDIR}
	}
	return &OSStorage{Root: abs}, nil
}

func (s *OSStorage) host(p string) string {
	clean := path.Clean("/" + p)
	return filepath.Join(s.Root, filepath.FromSlash(clean))
}

type osBacking struct {
	*os.File
}

func (b osBacking) Size() (int64, error) {
	info, err := b.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *OSStorage) Open(p string) (Stream, error) {
	f, err := os.OpenFile(s.host(p), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		log.Warningf("open %s: %v", p, err)
		return nil, translate(err)
	}
	return newFileStream(p, osBacking{f}), nil
}

func (s *OSStorage) FileExists(p string) bool {
	info, err := os.Stat(s.host(p))
	return err == nil && !info.IsDir()
}

func (s *OSStorage) DirExists(p string) bool {
	info, err := os.Stat(s.host(p))
	return err == nil && info.IsDir()
}

func (s *OSStorage) FileDelete(p string) error {
	if !s.FileExists(p) {
		return ErrNotFound
	}
	return translate(os.Remove(s.host(p)))
}

func (s *OSStorage) DirCreate(p string) error {
	if s.DirExists(p) || s.FileExists(p) {
		return ErrExists
	}
	return translate(os.Mkdir(s.host(p), 0o755))
}

func (s *OSStorage) DirDelete(p string) error {
	if !s.DirExists(p) {
		return ErrNotFound
	}
	entries, err := os.ReadDir(s.host(p))
	if err != nil {
		return translate(err)
	}
	if len(entries) > 0 {
		return ErrNotEmpty
	}
	return translate(os.Remove(s.host(p)))
}

func (s *OSStorage) Rename(from, to string) error {
	if !s.FileExists(from) && !s.DirExists(from) {
		return ErrNotFound
	}
	if s.FileExists(to) || s.DirExists(to) {
		return ErrExists
	}
	return translate(os.Rename(s.host(from), s.host(to)))
}

func (s *OSStorage) FileSize(p string) (int64, error) {
	info, err := os.Stat(s.host(p))
	if err != nil {
		return 0, translate(err)
	}
	if info.IsDir() {
		return 0, ErrNotFound
	}
	return info.Size(), nil
}

func (s *OSStorage) ListDirectory(p string, fn func(Entry) bool, filter EntryKind) error {
	entries, err := os.ReadDir(s.host(p))
	if err != nil {
		return translate(err)
	}
	names := make([]Entry, 0, len(entries))
	for _, e := range entries {
		names = append(names, Entry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return emit(names, fn, filter)
}

func emit(entries []Entry, fn func(Entry) bool, filter EntryKind) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") {
			continue
		}
		if (filter == FilesOnly && e.IsDir) || (filter == DirsOnly && !e.IsDir) {
			continue
		}
		if !fn(e) {
			break
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrExist):
		return ErrExists
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	}
	return err
}
