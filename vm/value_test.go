package vm

import (
	"strings"
	"testing"
)

func TestValuesEqual(t *testing.T) {
	h := NewHeap(64)
	word := func(s string) Value { return Word(h.Atom(s)) }
	list := func(words ...string) Value {
		items := make([]Node, len(words))
		for i, w := range words {
			items[i] = h.Atom(w)
		}
		return List(h.ListFrom(items))
	}
	nested := func() Value {
		return List(h.ListFrom([]Node{h.Atom("a"), h.ListFrom([]Node{h.Atom("b")})}))
	}

	tests := []struct {
		name string
		a, b Value
		fold bool
		want bool
	}{
		{"number and word", Number(42), word("42"), false, true},
		{"number and decimal word", Number(42), word("42.0"), false, true},
		{"numeric words", word("1e2"), word("100"), false, true},
		{"different numbers", Number(1), Number(2), false, false},
		{"number and text", Number(1), word("one"), false, false},
		{"number and list", Number(1), list("1"), false, false},
		{"exact words", word("abc"), word("abc"), false, true},
		{"case without fold", word("abc"), word("ABC"), false, false},
		{"case with fold", word("abc"), word("ABC"), true, true},
		{"equal lists", list("a", "b"), list("a", "b"), false, true},
		{"lists differ in length", list("a"), list("a", "b"), false, false},
		{"nested lists", nested(), nested(), false, true},
		{"list and word", list("a"), word("a"), false, false},
		{"empty lists", List(Nil), List(Nil), false, true},
		{"empty list and empty word", List(Nil), word(""), false, false},
		{"none and none", NoValue(), NoValue(), false, true},
		{"none and number", NoValue(), Number(0), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fold func(string) string
			if tt.fold {
				fold = strings.ToLower
			}
			if got := h.ValuesEqual(tt.a, tt.b, fold); got != tt.want {
				t.Errorf("ValuesEqual = %v, want %v", got, tt.want)
			}
			if got := h.ValuesEqual(tt.b, tt.a, fold); got != tt.want {
				t.Errorf("ValuesEqual reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueConversions(t *testing.T) {
	h := NewHeap(16)

	if f, ok := h.ValueToNumber(Word(h.Atom("2.5"))); !ok || f != 2.5 {
		t.Errorf("ValueToNumber(\"2.5) = %v, %v", f, ok)
	}
	if _, ok := h.ValueToNumber(Word(h.Atom("abc"))); ok {
		t.Error("abc converted to a number")
	}
	if _, ok := h.ValueToNumber(List(Nil)); ok {
		t.Error("a list converted to a number")
	}

	n := h.ValueToNode(Number(3))
	if !n.IsAtom() || h.Text(n) != "3" {
		t.Errorf("ValueToNode(3) = %q", h.Text(n))
	}
	if h.ValueToNode(NoValue()) != Nil {
		t.Error("ValueToNode(none) should be Nil")
	}
	if v := NodeToValue(n); !v.IsWord() || v.Node() != n {
		t.Error("NodeToValue of an atom should be a word")
	}
	if v := NodeToValue(Nil); !v.IsList() {
		t.Error("NodeToValue(Nil) should be the empty list")
	}
}

func TestValueAccessors(t *testing.T) {
	if v := Number(7); v.Kind() != KindNumber || v.Num() != 7 || v.Node() != Nil {
		t.Errorf("Number accessors wrong: %+v", v)
	}
	if v := Word(tagAtom | 5); v.Num() != 0 || v.Node() != tagAtom|5 {
		t.Errorf("Word accessors wrong: %+v", v)
	}
	if !NoValue().IsNone() || NoValue().Kind().String() != "none" {
		t.Error("NoValue accessors wrong")
	}
	if KindList.String() != "list" || ValueKind(99).String() != "unknown" {
		t.Error("ValueKind.String wrong")
	}
}

func TestResultAccessors(t *testing.T) {
	ok := ResultOK(Number(1))
	if ok.Status() != StatusOK || !ok.IsReturnable() || ok.Value().Num() != 1 || ok.Err() != nil {
		t.Error("OK result accessors wrong")
	}
	out := ResultOutput(Number(2))
	if !out.IsReturnable() || out.Value().Num() != 2 {
		t.Error("Output result accessors wrong")
	}
	none := ResultNone()
	if none.IsReturnable() || !none.Value().IsNone() {
		t.Error("None result accessors wrong")
	}
	if r := ResultThrow("done"); r.Tag() != "done" || r.Label() != "" {
		t.Error("Throw result accessors wrong")
	}
	if r := ResultGoto("top"); r.Label() != "top" || r.Tag() != "" {
		t.Error("Goto result accessors wrong")
	}
	if r := ResultPause("p"); r.PauseProc() != "p" {
		t.Error("Pause result accessors wrong")
	}
	if r := ResultErrorProc(ErrStackOverflow, "f"); r.Err().Proc != "f" || r.Value().Kind() != KindNone {
		t.Error("Error result accessors wrong")
	}
	if StatusThrow.String() != "throw" || Status(200).String() != "unknown" {
		t.Error("Status.String wrong")
	}
}
