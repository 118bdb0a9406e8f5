// Package device defines the collaborators the interpreter talks to for
// console, storage and hardware access, plus host and in-memory adapters.
package device

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("logo.device")

var (
	// ErrUnsupported is returned by operations a device cannot perform, such
	// as seeking on the keyboard.
	ErrUnsupported = errors.New("device: operation not supported")
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = errors.New("device: not found")
	// ErrExists is returned when creating something that already exists.
	ErrExists = errors.New("device: already exists")
	// ErrNotEmpty is returned when deleting a directory that still has entries.
	ErrNotEmpty = errors.New("device: directory not empty")
	// ErrDiskFull is returned when storage has no room left.
	ErrDiskFull = errors.New("device: disk full")
)

// Stream is a readable and writable character stream. Keyboard and screen
// streams report ErrUnsupported for the positioning calls.
type Stream interface {
	Name() string
	ReadChar() (rune, error)
	ReadChars(n int) (string, error)
	ReadLine() (string, error)
	CanRead() bool
	Write(s string) error
	Flush() error
	ReadPos() (int64, error)
	SetReadPos(pos int64) error
	WritePos() (int64, error)
	SetWritePos(pos int64) error
	Length() (int64, error)
	Close() error
}

// ---------------------------------------------------------------------------
// fileStream: seekable stream with independent read and write positions
// ---------------------------------------------------------------------------

type backing interface {
	io.ReaderAt
	io.WriterAt
	Size() (int64, error)
	Sync() error
	Close() error
}

type fileStream struct {
	name   string
	b      backing
	rpos   int64
	wpos   int64
	closed bool
}

func newFileStream(name string, b backing) *fileStream {
	return &fileStream{name: name, b: b}
}

func (f *fileStream) Name() string { return f.name }

func (f *fileStream) ReadChar() (rune, error) {
	if f.closed {
		return 0, io.ErrClosedPipe
	}
	var buf [utf8.UTFMax]byte
	n, err := f.b.ReadAt(buf[:], f.rpos)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	r, size := utf8.DecodeRune(buf[:n])
	f.rpos += int64(size)
	return r, nil
}

func (f *fileStream) ReadChars(n int) (string, error) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		r, err := f.ReadChar()
		if err != nil {
			if sb.Len() > 0 && errors.Is(err, io.EOF) {
				break
			}
			return sb.String(), err
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

func (f *fileStream) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		r, err := f.ReadChar()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return sb.String(), nil
			}
			return sb.String(), err
		}
		if r == '\n' {
			return strings.TrimSuffix(sb.String(), "\r"), nil
		}
		sb.WriteRune(r)
	}
}

func (f *fileStream) CanRead() bool {
	size, err := f.b.Size()
	return err == nil && !f.closed && f.rpos < size
}

func (f *fileStream) Write(s string) error {
	if f.closed {
		return io.ErrClosedPipe
	}
	n, err := f.b.WriteAt([]byte(s), f.wpos)
	f.wpos += int64(n)
	return err
}

func (f *fileStream) Flush() error { return f.b.Sync() }

func (f *fileStream) ReadPos() (int64, error) { return f.rpos, nil }
func (f *fileStream) WritePos() (int64, error) { return f.wpos, nil }

func (f *fileStream) SetReadPos(pos int64) error {
	size, err := f.b.Size()
	if err != nil {
		return err
	}
	if pos < 0 || pos > size {
		return io.ErrUnexpectedEOF
	}
	f.rpos = pos
	return nil
}

func (f *fileStream) SetWritePos(pos int64) error {
	size, err := f.b.Size()
	if err != nil {
		return err
	}
	if pos < 0 || pos > size {
		return io.ErrUnexpectedEOF
	}
	f.wpos = pos
	return nil
}

func (f *fileStream) Length() (int64, error) { return f.b.Size() }

func (f *fileStream) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.b.Sync(); err != nil {
		f.b.Close()
		return err
	}
	return f.b.Close()
}

// ---------------------------------------------------------------------------
// memBacking: growable byte buffer with an optional persist hook
// ---------------------------------------------------------------------------

type memBacking struct {
	data    []byte
	dirty   bool
	persist func([]byte) error
}

func (m *memBacking) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memBacking) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[off:], p)
	m.dirty = true
	return len(p), nil
}

func (m *memBacking) Size() (int64, error) { return int64(len(m.data)), nil }

func (m *memBacking) Sync() error {
	if !m.dirty || m.persist == nil {
		return nil
	}
	if err := m.persist(m.data); err != nil {
		return err
	}
	m.dirty = false
	return nil
}

func (m *memBacking) Close() error { return nil }

// NewMemoryStream returns a seekable in-memory stream holding content.
func NewMemoryStream(name, content string) Stream {
	return newFileStream(name, &memBacking{data: []byte(content)})
}
