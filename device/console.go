package device

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ---------------------------------------------------------------------------
// Console: keyboard and screen
// ---------------------------------------------------------------------------

// Console is a non-seekable stream over a reader and a writer.
type Console struct {
	name string
	in   *bufio.Reader
	out  *bufio.Writer

	mu  sync.Mutex
	raw func() (rune, error) // single keypress reader, nil for cooked input
}

// NewConsole wraps in and out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		name: "console",
		in:   bufio.NewReader(in),
		out:  bufio.NewWriter(out),
	}
}

// NewBufferConsole returns a console reading input and writing to the
// returned buffer. Writes are flushed eagerly.
func NewBufferConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return NewConsole(strings.NewReader(input), &out), &out
}

// NewTerminalConsole returns a console on stdin/stdout. When stdin is a
// terminal, ReadChar switches it to raw mode for the duration of one
// keypress.
func NewTerminalConsole() *Console {
	c := NewConsole(os.Stdin, os.Stdout)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		c.raw = func() (rune, error) {
			state, err := term.MakeRaw(fd)
			if err != nil {
				return 0, err
			}
			defer term.Restore(fd, state)
			r, _, err := c.in.ReadRune()
			return r, err
		}
	}
	return c
}

func (c *Console) Name() string { return c.name }

func (c *Console) ReadChar() (rune, error) {
	c.out.Flush()
	if c.raw != nil {
		return c.raw()
	}
	r, _, err := c.in.ReadRune()
	return r, err
}

func (c *Console) ReadChars(n int) (string, error) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		r, err := c.ReadChar()
		if err != nil {
			return sb.String(), err
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

func (c *Console) ReadLine() (string, error) {
	c.out.Flush()
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return line, err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (c *Console) CanRead() bool { return c.in.Buffered() > 0 }

func (c *Console) Write(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.out.WriteString(s); err != nil {
		return err
	}
	if c.raw == nil {
		return c.out.Flush()
	}
	return nil
}

func (c *Console) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Flush()
}

func (c *Console) ReadPos() (int64, error) { return 0, ErrUnsupported }
func (c *Console) SetReadPos(int64) error { return ErrUnsupported }
func (c *Console) WritePos() (int64, error) { return 0, ErrUnsupported }
func (c *Console) SetWritePos(int64) error { return ErrUnsupported }
func (c *Console) Length() (int64, error) { return 0, ErrUnsupported }
func (c *Console) Close() error { return c.Flush() }
