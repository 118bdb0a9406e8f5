package device

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Signals: asynchronous user requests polled by the evaluator
// ---------------------------------------------------------------------------

// Signals holds the user-interrupt, pause and freeze flags. Each Take call
// reads and clears its flag in one step, so a request is seen once.
type Signals struct {
	interrupt atomic.Bool
	pause     atomic.Bool
	freeze    atomic.Bool
}

// RequestInterrupt asks the evaluator to stop at its next dispatch.
func (s *Signals) RequestInterrupt() { s.interrupt.Store(true) }

// TakeInterrupt reports and clears a pending interrupt.
func (s *Signals) TakeInterrupt() bool { return s.interrupt.Swap(false) }

// RequestPause asks the evaluator to pause at its next dispatch.
func (s *Signals) RequestPause() { s.pause.Store(true) }

// TakePause reports and clears a pending pause.
func (s *Signals) TakePause() bool { return s.pause.Swap(false) }

// RequestFreeze asks the evaluator to wait for a key at its next dispatch.
func (s *Signals) RequestFreeze() { s.freeze.Store(true) }

// TakeFreeze reports and clears a pending freeze.
func (s *Signals) TakeFreeze() bool { return s.freeze.Swap(false) }

// ---------------------------------------------------------------------------
// Hardware collaborator
// ---------------------------------------------------------------------------

// Conn is an open TCP connection.
type Conn interface {
	Read(max int, timeout time.Duration) (string, error)
	Write(s string) (int, error)
	CanRead() bool
	Close() error
}

// Hardware is the board-level collaborator: clock, randomness, power,
// sound, user signals and networking. No call retries on failure.
type Hardware interface {
	Sleep(ms int)
	Random() uint32
	Battery() (level int, charging bool, err error)
	Tone(freq, ms int) error
	Now() time.Time
	SetTime(t time.Time) error
	Signals() *Signals
	Resolve(host string) (string, error)
	Ping(host string) (time.Duration, error)
	NTP(server string) (time.Time, error)
	Dial(host string, port int) (Conn, error)
}

// ---------------------------------------------------------------------------
// Host: the machine the interpreter runs on
// ---------------------------------------------------------------------------

// Host implements Hardware on top of the operating system.
type Host struct {
	signals Signals
	offset  time.Duration
	Timeout time.Duration
}

// NewHost returns host hardware with a five second network timeout.
func NewHost() *Host {
	return &Host{Timeout: 5 * time.Second}
}

func (h *Host) Sleep(ms int) {
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	for time.Now().Before(deadline) {
		if h.signals.interrupt.Load() {
			return
		}
		step := time.Until(deadline)
		if step > 20*time.Millisecond {
			step = 20 * time.Millisecond
		}
		time.Sleep(step)
	}
}

func (h *Host) Random() uint32 { return rand.Uint32() }

func (h *Host) Battery() (int, bool, error) { return 0, false, ErrUnsupported }

func (h *Host) Tone(freq, ms int) error { return ErrUnsupported }

func (h *Host) Now() time.Time { return time.Now().Add(h.offset) }

func (h *Host) SetTime(t time.Time) error {
	h.offset = time.Until(t)
	return nil
}

func (h *Host) Signals() *Signals { return &h.signals }

func (h *Host) Resolve(host string) (string, error) {
	addrs, err := net.LookupHost(host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", ErrNotFound
	}
	return addrs[0], nil
}

// Ping measures a TCP handshake to port 80; raw ICMP needs privileges the
// interpreter does not have.
func (h *Host) Ping(host string) (time.Duration, error) {
	start := time.Now()
	c, err := net.DialTimeout("tcp", net.JoinHostPort(host, "80"), h.Timeout)
	if err != nil {
		return 0, err
	}
	c.Close()
	return time.Since(start), nil
}

func (h *Host) NTP(server string) (time.Time, error) {
	return time.Time{}, ErrUnsupported
}

func (h *Host) Dial(host string, port int) (Conn, error) {
	c, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), h.Timeout)
	if err != nil {
		return nil, err
	}
	return &tcpConn{c: c, r: bufio.NewReader(c)}, nil
}

type tcpConn struct {
	c net.Conn
	r *bufio.Reader
}

func (t *tcpConn) Read(max int, timeout time.Duration) (string, error) {
	if max <= 0 {
		return "", fmt.Errorf("read size %d", max)
	}
	t.c.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, max)
	n, err := t.r.Read(buf)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		err = nil
	}
	return string(buf[:n]), err
}

func (t *tcpConn) Write(s string) (int, error) { return t.c.Write([]byte(s)) }

func (t *tcpConn) CanRead() bool {
	if t.r.Buffered() > 0 {
		return true
	}
	t.c.SetReadDeadline(time.Now().Add(time.Millisecond))
	_, err := t.r.Peek(1)
	t.c.SetReadDeadline(time.Time{})
	return err == nil
}

func (t *tcpConn) Close() error { return t.c.Close() }

// ---------------------------------------------------------------------------
// Simulated: deterministic hardware for tests and headless runs
// ---------------------------------------------------------------------------

// Simulated is deterministic hardware: a virtual clock advanced by Sleep, a
// seeded generator, a fixed battery and no network.
type Simulated struct {
	signals Signals
	rng     *rand.Rand
	clock   time.Time
	Level   int
	Tones   [][2]int
	Slept   time.Duration
}

// NewSimulated returns simulated hardware seeded with seed.
func NewSimulated(seed uint64) *Simulated {
	return &Simulated{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		clock: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
		Level: 100,
	}
}

func (s *Simulated) Sleep(ms int) {
	d := time.Duration(ms) * time.Millisecond
	s.clock = s.clock.Add(d)
	s.Slept += d
}

func (s *Simulated) Random() uint32 { return s.rng.Uint32() }

func (s *Simulated) Battery() (int, bool, error) { return s.Level, false, nil }

func (s *Simulated) Tone(freq, ms int) error {
	s.Tones = append(s.Tones, [2]int{freq, ms})
	return nil
}

func (s *Simulated) Now() time.Time { return s.clock }

func (s *Simulated) SetTime(t time.Time) error {
	s.clock = t
	return nil
}

func (s *Simulated) Signals() *Signals { return &s.signals }

func (s *Simulated) Resolve(host string) (string, error) {
	if host == "localhost" {
		return "127.0.0.1", nil
	}
	return "", ErrNotFound
}

func (s *Simulated) Ping(host string) (time.Duration, error) {
	if host == "localhost" || host == "127.0.0.1" {
		return 1500 * time.Microsecond, nil
	}
	return 0, ErrNotFound
}

func (s *Simulated) NTP(string) (time.Time, error) { return s.clock, nil }

func (s *Simulated) Dial(string, int) (Conn, error) { return nil, ErrUnsupported }
