package device

import (
	"errors"
	"io"
	"testing"
)

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	osStore, err := NewOSStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewOSStorage: %v", err)
	}
	sqlStore, err := OpenSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { sqlStore.Close() })
	return map[string]Storage{"os": osStore, "sqlite": sqlStore}
}

func TestStorageFileLifecycle(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			if s.FileExists("/notes.txt") {
				t.Fatal("file exists before creation")
			}
			f, err := s.Open("/notes.txt")
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := f.Write("hello\nworld\n"); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := f.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			if !s.FileExists("/notes.txt") {
				t.Fatal("file missing after close")
			}
			size, err := s.FileSize("/notes.txt")
			if err != nil || size != 12 {
				t.Errorf("FileSize = %d, %v; want 12", size, err)
			}

			f, err = s.Open("/notes.txt")
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			line, err := f.ReadLine()
			if err != nil || line != "hello" {
				t.Errorf("ReadLine = %q, %v", line, err)
			}
			pos, _ := f.ReadPos()
			if pos != 6 {
				t.Errorf("ReadPos = %d, want 6", pos)
			}
			wpos, _ := f.WritePos()
			if wpos != 0 {
				t.Errorf("WritePos = %d, want 0", wpos)
			}
			f.Close()

			if err := s.FileDelete("/notes.txt"); err != nil {
				t.Fatalf("FileDelete: %v", err)
			}
			if err := s.FileDelete("/notes.txt"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second FileDelete = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorageDirectories(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.DirCreate("/games"); err != nil {
				t.Fatalf("DirCreate: %v", err)
			}
			if err := s.DirCreate("/games"); !errors.Is(err, ErrExists) {
				t.Errorf("duplicate DirCreate = %v, want ErrExists", err)
			}
			f, err := s.Open("/games/pong.logo")
			if err != nil {
				t.Fatalf("Open in dir: %v", err)
			}
			f.Write("to pong\nend\n")
			f.Close()
			if err := s.DirCreate("/games/levels"); err != nil {
				t.Fatalf("nested DirCreate: %v", err)
			}

			var all, files, dirs []string
			s.ListDirectory("/games", func(e Entry) bool { all = append(all, e.Name); return true }, AllEntries)
			s.ListDirectory("/games", func(e Entry) bool { files = append(files, e.Name); return true }, FilesOnly)
			s.ListDirectory("/games", func(e Entry) bool { dirs = append(dirs, e.Name); return true }, DirsOnly)
			if len(all) != 2 || all[0] != "levels" || all[1] != "pong.logo" {
				t.Errorf("all = %v", all)
			}
			if len(files) != 1 || files[0] != "pong.logo" {
				t.Errorf("files = %v", files)
			}
			if len(dirs) != 1 || dirs[0] != "levels" {
				t.Errorf("dirs = %v", dirs)
			}

			if err := s.DirDelete("/games"); !errors.Is(err, ErrNotEmpty) {
				t.Errorf("DirDelete non-empty = %v, want ErrNotEmpty", err)
			}

			if err := s.Rename("/games", "/arcade"); err != nil {
				t.Fatalf("Rename: %v", err)
			}
			if !s.FileExists("/arcade/pong.logo") || !s.DirExists("/arcade/levels") {
				t.Error("children not moved with directory")
			}
			if s.DirExists("/games") {
				t.Error("old directory still present")
			}
		})
	}
}

func TestStorageOpenMissingParent(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Open("/nowhere/file"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Open = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMemoryStreamPositions(t *testing.T) {
	s := NewMemoryStream("mem", "abc")
	if err := s.SetReadPos(4); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("SetReadPos past end = %v", err)
	}
	s.SetWritePos(3)
	s.Write("de")
	got, err := s.ReadChars(10)
	if err != nil || got != "abcde" {
		t.Errorf("ReadChars = %q, %v", got, err)
	}
	if s.CanRead() {
		t.Error("CanRead at end of stream")
	}
	if _, err := s.ReadChar(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadChar at end = %v, want EOF", err)
	}
}

func TestBufferConsole(t *testing.T) {
	c, out := NewBufferConsole("first line\nx")
	line, err := c.ReadLine()
	if err != nil || line != "first line" {
		t.Errorf("ReadLine = %q, %v", line, err)
	}
	r, err := c.ReadChar()
	if err != nil || r != 'x' {
		t.Errorf("ReadChar = %q, %v", r, err)
	}
	c.Write("ok")
	if out.String() != "ok" {
		t.Errorf("out = %q", out.String())
	}
	if _, err := c.ReadPos(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ReadPos = %v, want ErrUnsupported", err)
	}
}
