package vm

// ---------------------------------------------------------------------------
// Value: what an expression evaluates to
// ---------------------------------------------------------------------------

// ValueKind discriminates the Value union.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindNumber
	KindWord
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNumber:
		return "number"
	case KindWord:
		return "word"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is one of: nothing (commands), a float32 number, a word (atom node)
// or a list (pair or Nil node). Only the field matching kind is meaningful.
type Value struct {
	kind ValueKind
	num  float32
	node Node
}

// NoValue is the absent value produced by commands.
func NoValue() Value { return Value{} }

// Number wraps a float32.
func Number(f float32) Value { return Value{kind: KindNumber, num: f} }

// Word wraps an atom.
func Word(n Node) Value { return Value{kind: KindWord, node: n} }

// List wraps a list head (Nil is the empty list).
func List(n Node) Value { return Value{kind: KindList, node: n} }

// Kind returns the variant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether v carries nothing.
func (v Value) IsNone() bool { return v.kind == KindNone }

// IsNumber reports whether v is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsWord reports whether v is a word.
func (v Value) IsWord() bool { return v.kind == KindWord }

// IsList reports whether v is a list.
func (v Value) IsList() bool { return v.kind == KindList }

// Num returns the number payload (0 for other kinds).
func (v Value) Num() float32 {
	if v.kind != KindNumber {
		return 0
	}
	return v.num
}

// Node returns the node payload of a word or list (Nil otherwise).
func (v Value) Node() Node {
	if v.kind != KindWord && v.kind != KindList {
		return Nil
	}
	return v.node
}

// ---------------------------------------------------------------------------
// Conversions and comparison
// ---------------------------------------------------------------------------

// ValueToNumber converts v to a float: numbers pass through, words are
// parsed, lists and none always fail.
func (h *Heap) ValueToNumber(v Value) (float32, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindWord:
		return ParseNumber(h.Text(v.node))
	}
	return 0, false
}

// ValueToNode turns v into a heap node so it can be stored in a list.
// Numbers become their canonical word form.
func (h *Heap) ValueToNode(v Value) Node {
	switch v.kind {
	case KindNumber:
		return h.Atom(FormatNumber(v.num))
	case KindWord, KindList:
		return v.node
	}
	return Nil
}

// NodeToValue wraps a list element as a Value.
func NodeToValue(n Node) Value {
	if n.IsAtom() {
		return Word(n)
	}
	return List(n)
}

// ValuesEqual compares values structurally. A number and a word are equal
// when the word parses to the same number, so 42 and "42 compare equal.
// Word text is compared with fold, which may be nil for exact comparison.
func (h *Heap) ValuesEqual(a, b Value, fold func(string) string) bool {
	if a.kind == KindNone || b.kind == KindNone {
		return a.kind == b.kind
	}
	if a.kind == KindNumber || b.kind == KindNumber {
		if a.kind == KindList || b.kind == KindList {
			return false
		}
		x, okA := h.ValueToNumber(a)
		y, okB := h.ValueToNumber(b)
		return okA && okB && x == y
	}
	if a.kind != b.kind {
		return false
	}
	return h.nodesEqual(a.node, b.node, fold)
}

func (h *Heap) nodesEqual(a, b Node, fold func(string) string) bool {
	for {
		if a == b {
			return true
		}
		if a.IsAtom() && b.IsAtom() {
			return h.wordsEqual(h.Text(a), h.Text(b), fold)
		}
		if !a.IsPair() || !b.IsPair() {
			return false
		}
		if !h.nodesEqual(h.Car(a), h.Car(b), fold) {
			return false
		}
		a, b = h.Cdr(a), h.Cdr(b)
	}
}

func (h *Heap) wordsEqual(x, y string, fold func(string) string) bool {
	if x == y {
		return true
	}
	if fx, ok := ParseNumber(x); ok {
		if fy, ok := ParseNumber(y); ok {
			return fx == fy
		}
	}
	if fold == nil {
		return false
	}
	return fold(x) == fold(y)
}
