package vm

// ---------------------------------------------------------------------------
// Node: tagged reference into the heap
// ---------------------------------------------------------------------------

// Node is a 32-bit handle: Nil, an atom (interned word) or a pair.
//
// Encoding:
//   - Nil:  0
//   - Atom: tagAtom | atom ID
//   - Pair: tagPair | cell index
type Node uint32

const (
	nodeTagMask  Node = 3 << 30
	nodeDataMask Node = ^nodeTagMask
	tagAtom      Node = 1 << 30
	tagPair      Node = 2 << 30
)

// Nil is the empty list and the terminator of every list.
const Nil Node = 0

// IsNil reports whether n is Nil.
func (n Node) IsNil() bool { return n == Nil }

// IsAtom reports whether n is an interned word.
func (n Node) IsAtom() bool { return n&nodeTagMask == tagAtom }

// IsPair reports whether n is a cons cell.
func (n Node) IsPair() bool { return n&nodeTagMask == tagPair }

// IsList reports whether n is a pair or Nil.
func (n Node) IsList() bool { return n == Nil || n.IsPair() }

func (n Node) index() uint32 { return uint32(n & nodeDataMask) }

// ---------------------------------------------------------------------------
// Heap: fixed-capacity cons-cell pool
// ---------------------------------------------------------------------------

// Heap stores pairs in a fixed pool of cells threaded on a free list, and
// words in an AtomTable. When the pool runs dry Cons returns Nil and the heap
// remembers the failure until TakeExhausted is called.
type Heap struct {
	atoms *AtomTable

	car []Node
	cdr []Node

	freeHead  uint32 // first free cell index, 0 when empty
	freeCount int
	exhausted bool

	marks     []bool
	atomMarks []bool
}

// NewHeap creates a heap with room for cells pairs. Cell 0 is reserved so
// that a pair handle never equals Nil.
func NewHeap(cells int) *Heap {
	if cells < 16 {
		cells = 16
	}
	h := &Heap{
		atoms: NewAtomTable(),
		car:   make([]Node, cells+1),
		cdr:   make([]Node, cells+1),
	}
	for i := cells; i >= 1; i-- {
		h.cdr[i] = Node(h.freeHead)
		h.freeHead = uint32(i)
	}
	h.freeCount = cells
	return h
}

// Atoms returns the heap's atom table.
func (h *Heap) Atoms() *AtomTable { return h.atoms }

// Atom interns text and returns its node.
func (h *Heap) Atom(text string) Node {
	return tagAtom | Node(h.atoms.Intern(text))
}

// PinnedAtom interns text and protects it from collection.
func (h *Heap) PinnedAtom(text string) Node {
	id := h.atoms.Intern(text)
	h.atoms.Pin(id)
	return tagAtom | Node(id)
}

// Cons allocates a pair.
func (h *Heap) Cons(car, cdr Node) Node {
	if h.freeHead == 0 {
		h.exhausted = true
		return Nil
	}
	i := h.freeHead
	h.freeHead = uint32(h.cdr[i])
	h.freeCount--
	h.car[i] = car
	h.cdr[i] = cdr
	return tagPair | Node(i)
}

// Car returns the first element of a pair, or Nil for anything else.
func (h *Heap) Car(n Node) Node {
	if !n.IsPair() {
		return Nil
	}
	return h.car[n.index()]
}

// Cdr returns the rest of a pair, or Nil for anything else.
func (h *Heap) Cdr(n Node) Node {
	if !n.IsPair() {
		return Nil
	}
	return h.cdr[n.index()]
}

// Text returns the characters of an atom, or "" for non-atoms.
func (h *Heap) Text(n Node) string {
	if !n.IsAtom() {
		return ""
	}
	return h.atoms.Text(n.index())
}

// IsWord reports whether n is an atom.
func (h *Heap) IsWord(n Node) bool { return n.IsAtom() }

// IsList reports whether n is a pair or Nil.
func (h *Heap) IsList(n Node) bool { return n.IsList() }

// IsNil reports whether n is Nil.
func (h *Heap) IsNil(n Node) bool { return n == Nil }

// FreeCells returns the number of unallocated cells.
func (h *Heap) FreeCells() int { return h.freeCount }

// Capacity returns the total number of cells.
func (h *Heap) Capacity() int { return len(h.car) - 1 }

// TakeExhausted reports and clears the out-of-cells condition.
func (h *Heap) TakeExhausted() bool {
	e := h.exhausted
	h.exhausted = false
	return e
}

// ---------------------------------------------------------------------------
// List helpers
// ---------------------------------------------------------------------------

// ListFrom builds a proper list from items.
func (h *Heap) ListFrom(items []Node) Node {
	list := Nil
	for i := len(items) - 1; i >= 0; i-- {
		list = h.Cons(items[i], list)
	}
	return list
}

// Items returns the elements of list.
func (h *Heap) Items(list Node) []Node {
	var out []Node
	for n := list; n.IsPair(); n = h.Cdr(n) {
		out = append(out, h.Car(n))
	}
	return out
}

// Length returns the number of elements in list.
func (h *Heap) Length(list Node) int {
	c := 0
	for n := list; n.IsPair(); n = h.Cdr(n) {
		c++
	}
	return c
}

// ---------------------------------------------------------------------------
// Collection
// ---------------------------------------------------------------------------

// Collect marks everything reachable from the nodes passed to mark by roots
// and returns unreachable cells and unpinned atoms to their free lists. It
// reports the free cell count afterwards and the number of atoms released.
// It must only run when no Go code holds unrooted nodes.
func (h *Heap) Collect(roots func(mark func(Node))) (cells, atoms int) {
	if len(h.marks) != len(h.car) {
		h.marks = make([]bool, len(h.car))
	} else {
		clear(h.marks)
	}
	if len(h.atomMarks) < len(h.atoms.byID) {
		h.atomMarks = make([]bool, len(h.atoms.byID))
	} else {
		clear(h.atomMarks)
	}

	var stack []Node
	mark := func(n Node) { stack = append(stack, n) }
	roots(mark)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for {
			if n.IsAtom() {
				if id := n.index(); int(id) < len(h.atomMarks) {
					h.atomMarks[id] = true
				}
				break
			}
			if !n.IsPair() || h.marks[n.index()] {
				break
			}
			h.marks[n.index()] = true
			stack = append(stack, h.car[n.index()])
			n = h.cdr[n.index()]
		}
	}

	h.freeHead = 0
	h.freeCount = 0
	for i := len(h.car) - 1; i >= 1; i-- {
		if h.marks[i] {
			continue
		}
		h.car[i] = Nil
		h.cdr[i] = Node(h.freeHead)
		h.freeHead = uint32(i)
		h.freeCount++
	}
	cells = h.freeCount
	atoms = h.atoms.release(h.atomMarks)
	return cells, atoms
}
