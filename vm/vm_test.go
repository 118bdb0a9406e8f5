package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/turtle/device"
)

// newTestVM returns an interpreter on a buffer console with simulated
// hardware and scratch SQLite storage. input feeds the console.
func newTestVM(t *testing.T, input string) (*VM, *bytes.Buffer) {
	t.Helper()
	return newTestVMConfig(t, input, Config{})
}

func newTestVMConfig(t *testing.T, input string, cfg Config) (*VM, *bytes.Buffer) {
	t.Helper()
	console, out := device.NewBufferConsole(input)
	cfg.Console = console
	if cfg.Hardware == nil {
		cfg.Hardware = device.NewSimulated(1)
	}
	v, err := NewVM(cfg)
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v, out
}

// runLines feeds each line to the top level and reports results the way
// the interactive loop does.
func runLines(v *VM, lines ...string) {
	for _, line := range lines {
		v.report(v.RunLine(line))
	}
}

func TestNewVMDefaults(t *testing.T) {
	v, _ := newTestVM(t, "")

	s := v.Stats()
	if s.Cells != DefaultHeapCells {
		t.Errorf("Cells = %d, want %d", s.Cells, DefaultHeapCells)
	}
	if s.ArenaMax != DefaultArenaBytes {
		t.Errorf("ArenaMax = %d, want %d", s.ArenaMax, DefaultArenaBytes)
	}
	if s.Procedures != 0 || s.Globals != 0 {
		t.Errorf("fresh workspace not empty: %+v", s)
	}
	for _, name := range []string{"print", "PRINT", "se", "op", "network.tcpopen", "true"} {
		if !v.IsPrimitive(name) {
			t.Errorf("%s should be a primitive", name)
		}
	}
	if v.IsPrimitive("square") {
		t.Error("square should not be a primitive")
	}
}

func TestNewVMRejectsBadArena(t *testing.T) {
	console, _ := device.NewBufferConsole("")
	if _, err := NewVM(Config{ArenaBytes: 3, Console: console}); err == nil {
		t.Error("expected an error for an unaligned arena size")
	}
}

func TestToplevelRunsUntilBye(t *testing.T) {
	v, out := newTestVM(t, "print 1\nbye\nprint 2\n")
	if r := v.Toplevel(); r.Status() != StatusEOF {
		t.Fatalf("Toplevel = %v, want eof", r.Status())
	}
	if got := out.String(); got != "1\n" {
		t.Errorf("output = %q, want %q", got, "1\n")
	}
}

func TestToplevelContinuesAfterErrors(t *testing.T) {
	v, out := newTestVM(t, "print :nothing\nprint [a\nb]\n5\n")
	v.Toplevel()
	want := "nothing has no value\na b\nYou don't say what to do with 5\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestInteractivePrompts(t *testing.T) {
	v, out := newTestVMConfig(t, "to sq :n\noutput :n * :n\nend\nprint sq 3\n", Config{Interactive: true})
	v.Toplevel()
	want := "? > > sq defined\n? 9\n? "
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPauseAndContinue(t *testing.T) {
	v, out := newTestVM(t, "print :n\ncontinue\n")
	runLines(v,
		"to p :n",
		"pause",
		"print :n + 1",
		"end",
		"p 5",
	)
	want := "Pausing...\n5\n6\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPauseAtToplevelIsAnError(t *testing.T) {
	v, out := newTestVM(t, "")
	runLines(v, "pause", "continue")
	want := "Can only use pause inside a procedure\nCan only use continue inside a procedure\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestInterruptStopsLoop(t *testing.T) {
	v, out := newTestVM(t, "")
	v.Signals().RequestInterrupt()
	runLines(v, `forever [make "x 1]`)
	if got := out.String(); got != "Stopped!\n" {
		t.Errorf("output = %q, want %q", got, "Stopped!\n")
	}
	// the interrupt is consumed
	runLines(v, "print 1")
	if !strings.HasSuffix(out.String(), "1\n") {
		t.Errorf("interpreter did not recover: %q", out.String())
	}
}

func TestWaitUsesHardwareClock(t *testing.T) {
	hw := device.NewSimulated(1)
	v, _ := newTestVMConfig(t, "", Config{Hardware: hw})
	runLines(v, "wait 60")
	if hw.Slept.Milliseconds() != 1000 {
		t.Errorf("slept %v, want 1s", hw.Slept)
	}
}

func TestEvalOutputsValue(t *testing.T) {
	v, _ := newTestVM(t, "")
	r := v.Eval("sum 2 3")
	if r.Status() != StatusOK {
		t.Fatalf("Eval status = %v", r.Status())
	}
	if got := v.Show(r.Value()); got != "5" {
		t.Errorf("Eval = %s, want 5", got)
	}
}
