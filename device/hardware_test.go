package device

import (
	"testing"
	"time"
)

func TestSignalsTakeClears(t *testing.T) {
	var s Signals
	if s.TakeInterrupt() {
		t.Fatal("interrupt set initially")
	}
	s.RequestInterrupt()
	if !s.TakeInterrupt() {
		t.Fatal("interrupt request lost")
	}
	if s.TakeInterrupt() {
		t.Error("interrupt not cleared by Take")
	}

	s.RequestPause()
	s.RequestFreeze()
	if !s.TakePause() || s.TakePause() {
		t.Error("pause not seen exactly once")
	}
	if !s.TakeFreeze() || s.TakeFreeze() {
		t.Error("freeze not seen exactly once")
	}
}

func TestSimulatedClockAndRandom(t *testing.T) {
	a, b := NewSimulated(7), NewSimulated(7)
	for i := 0; i < 5; i++ {
		if a.Random() != b.Random() {
			t.Fatal("same seed produced different sequences")
		}
	}

	start := a.Now()
	a.Sleep(250)
	if got := a.Now().Sub(start); got != 250*time.Millisecond {
		t.Errorf("clock advanced %v, want 250ms", got)
	}

	when := time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC)
	a.SetTime(when)
	if !a.Now().Equal(when) {
		t.Errorf("Now = %v after SetTime", a.Now())
	}

	a.Tone(440, 100)
	if len(a.Tones) != 1 || a.Tones[0] != [2]int{440, 100} {
		t.Errorf("Tones = %v", a.Tones)
	}
}

func TestHostSleepInterrupted(t *testing.T) {
	h := NewHost()
	h.Signals().RequestInterrupt()
	start := time.Now()
	h.Sleep(5000)
	if time.Since(start) > time.Second {
		t.Error("Sleep ignored a pending interrupt")
	}
	if !h.Signals().TakeInterrupt() {
		t.Error("Sleep consumed the interrupt")
	}
}
