package arena

import (
	"errors"
	"testing"
	"unsafe"
)

func alignedBuffer(words int) []byte {
	w := make([]uint32, words)
	return unsafe.Slice((*byte)(unsafe.Pointer(&w[0])), words*WordSize)
}

func TestNewRejectsBadBuffers(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("New(nil) err = %v, want ErrInvalidBuffer", err)
	}

	buf := alignedBuffer(8)
	if _, err := New(buf[:7]); !errors.Is(err, ErrUnalignedSize) {
		t.Errorf("New(7 bytes) err = %v, want ErrUnalignedSize", err)
	}
	if _, err := New(buf[1:29]); !errors.Is(err, ErrMisaligned) {
		t.Errorf("New(misaligned) err = %v, want ErrMisaligned", err)
	}

	var a *Arena
	if err := a.Init(buf); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("nil arena Init err = %v, want ErrInvalidBuffer", err)
	}
}

func TestCapacityClampedBelowSentinel(t *testing.T) {
	a, err := New(alignedBuffer(int(OffsetNone) + 10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Capacity() >= int(OffsetNone) {
		t.Fatalf("Capacity = %d, must stay below OffsetNone", a.Capacity())
	}
	off := a.AllocWords(a.Capacity())
	if off != 0 {
		t.Fatalf("AllocWords(all) = %d, want 0", off)
	}
	if a.Mark() == OffsetNone {
		t.Error("full arena top collides with OffsetNone")
	}
}

func TestAllocSequential(t *testing.T) {
	a, err := New(alignedBuffer(64))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []int{1, 3, 7, 2, 10}
	for _, n := range tests {
		before := a.Used()
		off := a.AllocWords(n)
		if int(off) != before {
			t.Errorf("AllocWords(%d) = %d, want pre-call top %d", n, off, before)
		}
		if a.Used() != before+n {
			t.Errorf("Used after AllocWords(%d) = %d, want %d", n, a.Used(), before+n)
		}
	}
	if a.Available() != 64-23 {
		t.Errorf("Available = %d, want %d", a.Available(), 64-23)
	}
}

func TestAllocFailureDoesNotMutate(t *testing.T) {
	a := NewWords(16)
	a.AllocWords(4)

	if off := a.AllocWords(0); off != OffsetNone {
		t.Errorf("AllocWords(0) = %d, want OffsetNone", off)
	}
	if off := a.AllocWords(a.Available() + 1); off != OffsetNone {
		t.Errorf("AllocWords(available+1) = %d, want OffsetNone", off)
	}
	if a.Used() != 4 {
		t.Errorf("Used = %d after failed allocs, want 4", a.Used())
	}
}

func TestFreeTo(t *testing.T) {
	a := NewWords(32)
	a.AllocWords(5)
	mark := a.Mark()
	a.AllocWords(10)

	a.FreeTo(mark)
	if a.Used() != int(mark) {
		t.Errorf("Used after FreeTo = %d, want %d", a.Used(), mark)
	}

	// Stale marks above top are ignored.
	a.FreeTo(Offset(20))
	if a.Used() != int(mark) {
		t.Errorf("FreeTo(above top) changed Used to %d", a.Used())
	}
	a.FreeTo(OffsetNone)
	if a.Used() != int(mark) {
		t.Errorf("FreeTo(OffsetNone) changed Used to %d", a.Used())
	}

	a.FreeTo(0)
	if a.Used() != 0 {
		t.Errorf("FreeTo(0) Used = %d, want 0", a.Used())
	}
}

func TestExtendAndTopAllocation(t *testing.T) {
	a := NewWords(16)
	first := a.AllocWords(3)
	if !a.IsTopAllocation(first, 3) {
		t.Fatal("fresh allocation should be on top")
	}
	if !a.Extend(first, 3, 2) {
		t.Fatal("Extend of top allocation failed")
	}
	if a.Used() != 5 {
		t.Errorf("Used after Extend = %d, want 5", a.Used())
	}

	second := a.AllocWords(1)
	if a.IsTopAllocation(first, 5) {
		t.Error("first allocation still reported on top after another alloc")
	}
	if a.Extend(first, 5, 1) {
		t.Error("Extend of a buried allocation succeeded")
	}
	if a.Extend(second, 1, 100) {
		t.Error("Extend beyond capacity succeeded")
	}
	if a.Used() != 6 {
		t.Errorf("failed Extend mutated Used = %d", a.Used())
	}
}

func TestPointerRoundTrip(t *testing.T) {
	a := NewWords(8)
	if p := a.OffsetToPtr(OffsetNone); p != nil {
		t.Error("OffsetToPtr(OffsetNone) should be nil")
	}
	if off := a.PtrToOffset(nil); off != OffsetNone {
		t.Errorf("PtrToOffset(nil) = %d, want OffsetNone", off)
	}
	if a.OffsetToPtr(0) != &a.words[0] {
		t.Error("offset 0 should map to the buffer base")
	}
	for x := Offset(0); int(x) < a.Capacity(); x++ {
		if got := a.PtrToOffset(a.OffsetToPtr(x)); got != x {
			t.Errorf("round trip %d = %d", x, got)
		}
	}
}

func TestByteQueries(t *testing.T) {
	a := NewWords(10)
	a.AllocWords(4)
	if a.CapacityBytes() != 40 || a.UsedBytes() != 16 || a.AvailableBytes() != 24 {
		t.Errorf("bytes = %d/%d/%d, want 40/16/24", a.CapacityBytes(), a.UsedBytes(), a.AvailableBytes())
	}
}

func TestWordsAlias(t *testing.T) {
	a := NewWords(8)
	off := a.AllocWords(2)
	w := a.Words(off, 2)
	w[1] = 99
	if a.Word(off+1) != 99 {
		t.Error("Words slice does not alias arena memory")
	}
	a.SetWord(off, 7)
	if w[0] != 7 {
		t.Error("SetWord not visible through Words slice")
	}
}
