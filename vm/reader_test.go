package vm

import (
	"errors"
	"slices"
	"testing"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"print [a [b c]] d", "[print [a [b c]] d]"},
		{"  spaced   out  ", "[spaced out]"},
		{"", "[]"},
		{"[]", "[[]]"},
		{"print 1 ; comment [", "[print 1]"},
		{"|a b| c", "[a b c]"},
		{`a\ b`, "[a b]"},
		{"a ~\nb", "[a b]"},
		{"x[y]z", "[x [y] z]"},
		{`print "a+b (1+2)`, `[print "a+b (1+2)]`},
	}
	v, _ := newTestVM(t, "")
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			list, err := v.heap.ParseList(tt.in)
			if err != nil {
				t.Fatalf("ParseList(%q): %v", tt.in, err)
			}
			if got := v.Show(List(list)); got != tt.want {
				t.Errorf("ParseList(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseListBarWordCount(t *testing.T) {
	h := NewHeap(16)
	list, err := h.ParseList("|a b| c")
	if err != nil {
		t.Fatal(err)
	}
	if h.Length(list) != 2 || h.Text(h.Car(list)) != "a b" {
		t.Errorf("bar word not kept whole: %d items", h.Length(list))
	}
}

func TestParseListErrors(t *testing.T) {
	h := NewHeap(16)
	if _, err := h.ParseList("a ]"); !errors.Is(err, errUnexpectedBracket) {
		t.Errorf("a ] err = %v", err)
	}
	if _, err := h.ParseList("[a [b]"); !errors.Is(err, errIncomplete) {
		t.Errorf("[a [b] err = %v", err)
	}
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"print [a", true},
		{"print [a]", false},
		{"print [a [b]", true},
		{"repeat 4 [fd 10 ~", true},
		{"print 1 ~  ", true},
		{`print \~`, false},
		{"print 1 ; [", false},
		{"print |[|", false},
		{`print \[`, false},
		{"]", false},
	}
	for _, tt := range tests {
		if got := NeedsMoreInput(tt.in); got != tt.want {
			t.Errorf("NeedsMoreInput(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitWord(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"3-2", []string{"3", "-", "2"}},
		{"a-b", []string{"a", "-", "b"}},
		{"-x", []string{unaryMinusText, "x"}},
		{"-3", []string{"-3"}},
		{"(-3)", []string{"(", "-3", ")"}},
		{"2*-3", []string{"2", "*", "-3"}},
		{":x+1", []string{":x", "+", "1"}},
		{`"a)`, []string{`"a`, ")"}},
		{`"a+b`, []string{`"a+b`}},
		{"x<=y", []string{"x", "<=", "y"}},
		{"a<>b", []string{"a", "<>", "b"}},
		{"a>=b", []string{"a", ">=", "b"}},
		{"1e+5", []string{"1e+5"}},
		{"2e3*4", []string{"2e3", "*", "4"}},
		{"(print", []string{"(", "print"}},
		{"-", []string{"-"}},
		{"", []string{""}},
		{"word", []string{"word"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := splitWord(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("splitWord(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRunparseCachesAndSplits(t *testing.T) {
	v, _ := newTestVM(t, "")
	list, err := v.heap.ParseList("print 3-2")
	if err != nil {
		t.Fatal(err)
	}
	parsed, ok := v.runparse(list)
	if !ok {
		t.Fatal("runparse ran out of space")
	}
	if got := v.Show(List(parsed)); got != "[print 3 - 2]" {
		t.Errorf("runparse = %s", got)
	}
	again, _ := v.runparse(list)
	if again != parsed {
		t.Error("second runparse did not hit the cache")
	}

	plain, _ := v.heap.ParseList("print 1")
	if p, _ := v.runparse(plain); p != plain {
		t.Error("a list with nothing to split should be reused as is")
	}
}
