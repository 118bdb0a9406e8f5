// Package arena implements a fixed-capacity, word-addressed stack allocator.
//
// Every allocation is a range of 32-bit words identified by a 16-bit Offset
// from the start of a caller-supplied buffer. Memory is released only in LIFO
// order by rewinding the top of the arena to a previously captured mark.
package arena

import (
	"errors"
	"unsafe"
)

// Offset addresses a word inside an Arena.
type Offset uint16

// OffsetNone is the reserved "no offset" sentinel. No allocation can ever be
// placed at, or extend the top to, this value.
const OffsetNone Offset = 0xFFFF

// WordSize is the size of one arena word in bytes.
const WordSize = 4

// maxWords keeps top (and therefore every mark) below OffsetNone.
const maxWords = int(OffsetNone) - 1

var (
	// ErrInvalidBuffer is returned by New for a nil or empty buffer.
	ErrInvalidBuffer = errors.New("arena: invalid buffer")
	// ErrUnalignedSize is returned by New when the buffer length is not a whole number of words.
	ErrUnalignedSize = errors.New("arena: capacity is not a multiple of the word size")
	// ErrMisaligned is returned by New when the buffer does not start on a word boundary.
	ErrMisaligned = errors.New("arena: buffer is not word aligned")
)

// ---------------------------------------------------------------------------
// Arena: bump allocator over caller memory
// ---------------------------------------------------------------------------

// Arena is a bump allocator over caller memory. The zero value is unusable;
// construct with New or Init.
type Arena struct {
	words    []uint32
	top      int
	capacity int
}

// New creates an arena over buf.
func New(buf []byte) (*Arena, error) {
	a := &Arena{}
	if err := a.Init(buf); err != nil {
		return nil, err
	}
	return a, nil
}

// NewWords allocates a fresh word-aligned buffer of the given size and wraps it.
func NewWords(n int) *Arena {
	if n <= 0 {
		n = 1
	}
	if n > maxWords {
		n = maxWords
	}
	w := make([]uint32, n)
	return &Arena{words: w, capacity: n}
}

// Init (re)initialises the arena over buf. The buffer must be non-empty, a
// whole number of words long and word aligned. Capacity is clamped so that no
// valid offset collides with OffsetNone.
func (a *Arena) Init(buf []byte) error {
	if a == nil || len(buf) == 0 {
		return ErrInvalidBuffer
	}
	if len(buf)%WordSize != 0 {
		return ErrUnalignedSize
	}
	base := unsafe.Pointer(&buf[0])
	if uintptr(base)%WordSize != 0 {
		return ErrMisaligned
	}
	n := len(buf) / WordSize
	if n > maxWords {
		n = maxWords
	}
	a.words = unsafe.Slice((*uint32)(base), n)
	a.top = 0
	a.capacity = n
	return nil
}

// AllocWords reserves n words and returns the offset of the first one, which
// always equals the top before the call. It returns OffsetNone without
// touching state when n is zero or larger than the space available.
func (a *Arena) AllocWords(n int) Offset {
	if n <= 0 || n > a.Available() {
		return OffsetNone
	}
	off := Offset(a.top)
	a.top += n
	clear(a.words[off:a.top])
	return off
}

// Mark returns the current top, to be passed to FreeTo later.
func (a *Arena) Mark() Offset {
	return Offset(a.top)
}

// FreeTo releases everything allocated after mark. Marks above the current
// top (stale or duplicate frees) are ignored.
func (a *Arena) FreeTo(mark Offset) {
	if mark == OffsetNone || int(mark) > a.top {
		return
	}
	a.top = int(mark)
}

// IsTopAllocation reports whether the size-word allocation at off is still
// the most recent one, i.e. nothing has been allocated after it.
func (a *Arena) IsTopAllocation(off Offset, size int) bool {
	if off == OffsetNone || size < 0 {
		return false
	}
	return int(off)+size == a.top
}

// Extend grows the size-word allocation at off by additional words in place.
// It fails without mutating anything when the allocation is not on top or
// there is not enough room.
func (a *Arena) Extend(off Offset, size, additional int) bool {
	if additional < 0 || !a.IsTopAllocation(off, size) {
		return false
	}
	if additional > a.Available() {
		return false
	}
	clear(a.words[a.top : a.top+additional])
	a.top += additional
	return true
}

// Word returns the word at off.
func (a *Arena) Word(off Offset) uint32 {
	return a.words[off]
}

// SetWord stores w at off.
func (a *Arena) SetWord(off Offset, w uint32) {
	a.words[off] = w
}

// Words returns the n words starting at off as a slice aliasing the arena.
func (a *Arena) Words(off Offset, n int) []uint32 {
	if off == OffsetNone {
		return nil
	}
	return a.words[int(off) : int(off)+n : int(off)+n]
}

// OffsetToPtr converts an offset into a pointer into the arena buffer.
// OffsetNone maps to nil.
func (a *Arena) OffsetToPtr(off Offset) *uint32 {
	if off == OffsetNone || int(off) >= a.capacity {
		return nil
	}
	return &a.words[off]
}

// PtrToOffset is the inverse of OffsetToPtr. Nil, or a pointer outside the
// buffer, maps to OffsetNone.
func (a *Arena) PtrToOffset(p *uint32) Offset {
	if p == nil || a.capacity == 0 {
		return OffsetNone
	}
	base := uintptr(unsafe.Pointer(&a.words[0]))
	addr := uintptr(unsafe.Pointer(p))
	if addr < base {
		return OffsetNone
	}
	idx := (addr - base) / WordSize
	if idx >= uintptr(a.capacity) {
		return OffsetNone
	}
	return Offset(idx)
}

// ---------------------------------------------------------------------------
// Usage queries
// ---------------------------------------------------------------------------

// Capacity returns the total number of words.
func (a *Arena) Capacity() int { return a.capacity }

// Used returns the number of allocated words.
func (a *Arena) Used() int { return a.top }

// Available returns the number of free words.
func (a *Arena) Available() int { return a.capacity - a.top }

// CapacityBytes returns Capacity in bytes.
func (a *Arena) CapacityBytes() int { return a.capacity * WordSize }

// UsedBytes returns Used in bytes.
func (a *Arena) UsedBytes() int { return a.top * WordSize }

// AvailableBytes returns Available in bytes.
func (a *Arena) AvailableBytes() int { return a.Available() * WordSize }
