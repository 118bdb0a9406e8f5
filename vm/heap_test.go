package vm

import "testing"

func TestConsCarCdr(t *testing.T) {
	h := NewHeap(16)
	a := h.Atom("a")
	p := h.Cons(a, Nil)

	if !p.IsPair() || p.IsAtom() || p == Nil {
		t.Fatalf("Cons returned %#x", uint32(p))
	}
	if h.Car(p) != a || h.Cdr(p) != Nil {
		t.Errorf("Car/Cdr = %#x/%#x", uint32(h.Car(p)), uint32(h.Cdr(p)))
	}
	if h.Car(a) != Nil || h.Cdr(Nil) != Nil {
		t.Error("Car and Cdr of non-pairs must be Nil")
	}
	if h.Text(a) != "a" || h.Text(p) != "" {
		t.Error("Text of atom or pair wrong")
	}
	if !Nil.IsList() || !p.IsList() || a.IsList() {
		t.Error("IsList classification wrong")
	}
}

func TestAtomsAreInterned(t *testing.T) {
	h := NewHeap(16)
	if h.Atom("word") != h.Atom("word") {
		t.Error("same text gave different atoms")
	}
	if h.Atom("word") == h.Atom("Word") {
		t.Error("atoms must be case sensitive")
	}
	if h.Atom("") == Nil {
		t.Error("the empty word must not be Nil")
	}
}

func TestListHelpers(t *testing.T) {
	h := NewHeap(16)
	items := []Node{h.Atom("a"), h.Atom("b"), h.Atom("c")}
	list := h.ListFrom(items)

	if got := h.Length(list); got != 3 {
		t.Errorf("Length = %d, want 3", got)
	}
	got := h.Items(list)
	for i := range items {
		if got[i] != items[i] {
			t.Errorf("Items[%d] = %q, want %q", i, h.Text(got[i]), h.Text(items[i]))
		}
	}
	if h.ListFrom(nil) != Nil || h.Length(Nil) != 0 || h.Items(Nil) != nil {
		t.Error("empty list helpers wrong")
	}
	if h.FreeCells() != 13 {
		t.Errorf("FreeCells = %d, want 13", h.FreeCells())
	}
}

func TestHeapExhaustion(t *testing.T) {
	h := NewHeap(4)
	if h.Capacity() != 16 {
		t.Fatalf("Capacity = %d, want minimum 16", h.Capacity())
	}
	for i := 0; i < 16; i++ {
		if h.Cons(Nil, Nil) == Nil {
			t.Fatalf("Cons %d failed early", i)
		}
	}
	if h.TakeExhausted() {
		t.Error("exhausted before the heap was full")
	}
	if h.Cons(Nil, Nil) != Nil {
		t.Error("Cons on a full heap must return Nil")
	}
	if !h.TakeExhausted() {
		t.Error("TakeExhausted should report the failure")
	}
	if h.TakeExhausted() {
		t.Error("TakeExhausted should clear the flag")
	}
}

func TestCollectReclaimsUnreachable(t *testing.T) {
	h := NewHeap(16)
	keep := h.ListFrom([]Node{h.Atom("a"), h.ListFrom([]Node{h.Atom("b")})})
	h.ListFrom([]Node{h.Atom("c"), h.Atom("d"), h.Atom("e")})
	pinned := h.PinnedAtom("pinned")

	free, released := h.Collect(func(mark func(Node)) { mark(keep) })
	if free != 13 {
		t.Errorf("free = %d, want 13", free)
	}
	if released != 3 {
		t.Errorf("released = %d, want 3", released)
	}
	if h.FreeCells() != free {
		t.Errorf("FreeCells = %d, want %d", h.FreeCells(), free)
	}
	if _, ok := h.Atoms().Lookup("c"); ok {
		t.Error("unreachable atom c survived")
	}
	if h.Text(pinned) != "pinned" {
		t.Error("pinned atom was collected")
	}
	if h.Text(h.Car(keep)) != "a" || h.Text(h.Car(h.Car(h.Cdr(keep)))) != "b" {
		t.Error("reachable structure damaged")
	}

	// released IDs are handed out again
	before := len(h.atoms.byID)
	h.Atom("fresh")
	if len(h.atoms.byID) != before {
		t.Error("new atom did not reuse a released ID")
	}
}

func TestCollectRestoresFullHeap(t *testing.T) {
	h := NewHeap(16)
	for h.Cons(Nil, Nil) != Nil {
	}
	h.TakeExhausted()
	free, _ := h.Collect(func(func(Node)) {})
	if free != 16 {
		t.Errorf("free = %d, want 16", free)
	}
	if h.Cons(Nil, Nil) == Nil {
		t.Error("Cons failed after collection")
	}
}
