package vm

import (
	"math"
	"sort"

	"github.com/chazu/turtle/arena"
)

// ---------------------------------------------------------------------------
// Scopes: dynamic variable frames on the arena
// ---------------------------------------------------------------------------

// Frame layout, in arena words:
//
//	0      parent frame offset (arena.OffsetNone for the outermost)
//	1      bits 0-15 binding count, bit 16 test set, bit 17 test value
//	2      procedure name atom (Nil for anonymous scopes)
//	3..    bindings, three words each: key atom, value kind, payload
const (
	frameParent      = 0
	frameInfo        = 1
	frameProc        = 2
	frameHeaderWords = 3
	bindingWords     = 3

	infoCountMask = 0xFFFF
	infoTestSet   = 1 << 16
	infoTestTrue  = 1 << 17
)

type globalBinding struct {
	name  Node // as first written, for listings and save
	value Value
}

// Scopes is the variable scope stack. The global frame lives in a map and is
// never popped; every procedure call pushes an arena frame above it. A
// binding holding NoValue is declared but unbound.
type Scopes struct {
	arena   *arena.Arena
	top     arena.Offset
	depth   int
	globals map[Node]*globalBinding

	globalTest uint32
}

// NewScopes creates a scope stack whose frames are carved from a.
func NewScopes(a *arena.Arena) *Scopes {
	return &Scopes{
		arena:   a,
		top:     arena.OffsetNone,
		globals: make(map[Node]*globalBinding),
	}
}

// Depth returns the number of frames above the global frame.
func (s *Scopes) Depth() int { return s.depth }

// PushScope opens a frame for proc (Nil for an anonymous scope) and returns
// the mark that PopScope must be given. ok is false when the arena is full.
func (s *Scopes) PushScope(proc Node) (mark arena.Offset, ok bool) {
	off := s.arena.AllocWords(frameHeaderWords)
	if off == arena.OffsetNone {
		return arena.OffsetNone, false
	}
	s.arena.SetWord(off+frameParent, uint32(s.top))
	s.arena.SetWord(off+frameInfo, 0)
	s.arena.SetWord(off+frameProc, uint32(proc))
	s.top = off
	s.depth++
	return off, true
}

// PopScope discards the frame opened by the PushScope that returned mark,
// together with every binding declared in it.
func (s *Scopes) PopScope(mark arena.Offset) {
	if mark == arena.OffsetNone || s.depth == 0 {
		return
	}
	s.top = arena.Offset(s.arena.Word(mark + frameParent))
	s.arena.FreeTo(mark)
	s.depth--
}

// Proc returns the procedure atom of the innermost frame.
func (s *Scopes) Proc() Node {
	if s.top == arena.OffsetNone {
		return Nil
	}
	return Node(s.arena.Word(s.top + frameProc))
}

func (s *Scopes) count(frame arena.Offset) int {
	return int(s.arena.Word(frame+frameInfo) & infoCountMask)
}

func (s *Scopes) slot(frame arena.Offset, i int) arena.Offset {
	return frame + frameHeaderWords + arena.Offset(i*bindingWords)
}

func (s *Scopes) find(frame arena.Offset, key Node) (arena.Offset, bool) {
	n := s.count(frame)
	for i := 0; i < n; i++ {
		at := s.slot(frame, i)
		if Node(s.arena.Word(at)) == key {
			return at, true
		}
	}
	return arena.OffsetNone, false
}

func (s *Scopes) load(at arena.Offset) Value {
	kind := ValueKind(s.arena.Word(at + 1))
	payload := s.arena.Word(at + 2)
	switch kind {
	case KindNumber:
		return Number(math.Float32frombits(payload))
	case KindWord:
		return Word(Node(payload))
	case KindList:
		return List(Node(payload))
	}
	return NoValue()
}

func (s *Scopes) store(at arena.Offset, v Value) {
	s.arena.SetWord(at+1, uint32(v.kind))
	switch v.kind {
	case KindNumber:
		s.arena.SetWord(at+2, math.Float32bits(v.num))
	case KindWord, KindList:
		s.arena.SetWord(at+2, uint32(v.node))
	default:
		s.arena.SetWord(at+2, 0)
	}
}

// Thing looks key up from the innermost frame outwards, then in the globals.
// found is false when no frame declares the name; a declared but unbound
// name is found with NoValue.
func (s *Scopes) Thing(key Node) (v Value, found bool) {
	for f := s.top; f != arena.OffsetNone; f = arena.Offset(s.arena.Word(f + frameParent)) {
		if at, ok := s.find(f, key); ok {
			return s.load(at), true
		}
	}
	if g, ok := s.globals[key]; ok {
		return g.value, true
	}
	return NoValue(), false
}

// Make assigns to the nearest frame declaring key, or to the global binding
// when none does.
func (s *Scopes) Make(key, name Node, v Value) {
	for f := s.top; f != arena.OffsetNone; f = arena.Offset(s.arena.Word(f + frameParent)) {
		if at, ok := s.find(f, key); ok {
			s.store(at, v)
			return
		}
	}
	if g, ok := s.globals[key]; ok {
		g.value = v
		return
	}
	s.globals[key] = &globalBinding{name: name, value: v}
}

// Local declares key in the innermost frame only. At global level it
// declares a global if none exists. It fails only when the arena is full or
// the innermost frame is not the most recent allocation.
func (s *Scopes) Local(key, name Node) bool {
	if s.top == arena.OffsetNone {
		if _, ok := s.globals[key]; !ok {
			s.globals[key] = &globalBinding{name: name}
		}
		return true
	}
	if _, ok := s.find(s.top, key); ok {
		return true
	}
	n := s.count(s.top)
	if n >= infoCountMask {
		return false
	}
	size := frameHeaderWords + n*bindingWords
	if !s.arena.Extend(s.top, size, bindingWords) {
		return false
	}
	at := s.slot(s.top, n)
	s.arena.SetWord(at, uint32(key))
	s.store(at, NoValue())
	info := s.arena.Word(s.top + frameInfo)
	s.arena.SetWord(s.top+frameInfo, info&^infoCountMask|uint32(n+1))
	return true
}

// SetLocal declares key in the innermost frame and binds it to v.
func (s *Scopes) SetLocal(key, name Node, v Value) bool {
	if !s.Local(key, name) {
		return false
	}
	if s.top == arena.OffsetNone {
		s.globals[key].value = v
		return true
	}
	at, _ := s.find(s.top, key)
	s.store(at, v)
	return true
}

// Own returns the binding key has in the innermost frame, or among the
// globals at top level. Bindings in enclosing frames are not reported.
func (s *Scopes) Own(key Node) (v Value, ok bool) {
	if s.top == arena.OffsetNone {
		if g, found := s.globals[key]; found {
			return g.value, true
		}
		return NoValue(), false
	}
	if at, found := s.find(s.top, key); found {
		return s.load(at), true
	}
	return NoValue(), false
}

// Unbind removes key from the innermost frame, or from the globals at top
// level. The last binding moves into the freed slot and the frame shrinks
// when it is still the most recent allocation.
func (s *Scopes) Unbind(key Node) {
	if s.top == arena.OffsetNone {
		delete(s.globals, key)
		return
	}
	at, ok := s.find(s.top, key)
	if !ok {
		return
	}
	n := s.count(s.top)
	last := s.slot(s.top, n-1)
	if at != last {
		for i := arena.Offset(0); i < bindingWords; i++ {
			s.arena.SetWord(at+i, s.arena.Word(last+i))
		}
	}
	info := s.arena.Word(s.top + frameInfo)
	s.arena.SetWord(s.top+frameInfo, info&^infoCountMask|uint32(n-1))
	if s.arena.IsTopAllocation(s.top, frameHeaderWords+n*bindingWords) {
		s.arena.FreeTo(last)
	}
}

// EraseGlobal removes a global binding.
func (s *Scopes) EraseGlobal(key Node) bool {
	if _, ok := s.globals[key]; !ok {
		return false
	}
	delete(s.globals, key)
	return true
}

// GlobalNames returns the keys of bound globals sorted by display text.
func (s *Scopes) GlobalNames(h *Heap) []Node {
	keys := make([]Node, 0, len(s.globals))
	for k, g := range s.globals {
		if !g.value.IsNone() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return h.Text(s.globals[keys[i]].name) < h.Text(s.globals[keys[j]].name)
	})
	return keys
}

// Global returns the display name and value of a global binding.
func (s *Scopes) Global(key Node) (name Node, v Value, ok bool) {
	g, ok := s.globals[key]
	if !ok {
		return Nil, NoValue(), false
	}
	return g.name, g.value, true
}

// ---------------------------------------------------------------------------
// Test state
// ---------------------------------------------------------------------------

// SetTest records the result of test in the innermost frame, so a called
// procedure inherits it but its own test never leaks back to the caller.
func (s *Scopes) SetTest(b bool) {
	bits := uint32(infoTestSet)
	if b {
		bits |= infoTestTrue
	}
	if s.top == arena.OffsetNone {
		s.globalTest = bits
		return
	}
	info := s.arena.Word(s.top+frameInfo) &^ (infoTestSet | infoTestTrue)
	s.arena.SetWord(s.top+frameInfo, info|bits)
}

// Test returns the nearest recorded test result.
func (s *Scopes) Test() (value, ok bool) {
	for f := s.top; f != arena.OffsetNone; f = arena.Offset(s.arena.Word(f + frameParent)) {
		info := s.arena.Word(f + frameInfo)
		if info&infoTestSet != 0 {
			return info&infoTestTrue != 0, true
		}
	}
	if s.globalTest&infoTestSet != 0 {
		return s.globalTest&infoTestTrue != 0, true
	}
	return false, false
}

// ---------------------------------------------------------------------------
// Roots
// ---------------------------------------------------------------------------

func (s *Scopes) markRoots(mark func(Node)) {
	for k, g := range s.globals {
		mark(k)
		mark(g.name)
		mark(g.value.Node())
	}
	for f := s.top; f != arena.OffsetNone; f = arena.Offset(s.arena.Word(f + frameParent)) {
		mark(Node(s.arena.Word(f + frameProc)))
		n := s.count(f)
		for i := 0; i < n; i++ {
			at := s.slot(f, i)
			mark(Node(s.arena.Word(at)))
			mark(s.load(at).Node())
		}
	}
}
