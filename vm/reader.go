package vm

import (
	"errors"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Reader: source text to list structure
// ---------------------------------------------------------------------------

// errIncomplete reports that the text ended inside an open bracket. The
// top-level loop reacts by reading another line.
var errIncomplete = errors.New("vm: unterminated list")

// errUnexpectedBracket reports a ']' with no matching '['.
var errUnexpectedBracket = errors.New("vm: unexpected ]")

// lineReader turns text into a list in data mode: words are split only on
// whitespace and brackets. Infix splitting happens later, when a list is run.
type lineReader struct {
	heap  *Heap
	src   []rune
	pos   int
	items [][]Node
}

// ParseList reads text as the contents of a list.
func (h *Heap) ParseList(text string) (Node, error) {
	r := &lineReader{heap: h, src: []rune(text)}
	return r.read()
}

func (r *lineReader) read() (Node, error) {
	r.items = [][]Node{nil}
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '~' && r.continuation():
			// line joined with the next one
		case unicode.IsSpace(c):
			r.pos++
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == '[':
			r.pos++
			r.items = append(r.items, nil)
		case c == ']':
			r.pos++
			if len(r.items) == 1 {
				return Nil, errUnexpectedBracket
			}
			top := r.items[len(r.items)-1]
			r.items = r.items[:len(r.items)-1]
			r.push(r.heap.ListFrom(top))
		default:
			r.push(r.word())
		}
	}
	if len(r.items) > 1 {
		return Nil, errIncomplete
	}
	return r.heap.ListFrom(r.items[0]), nil
}

func (r *lineReader) push(n Node) {
	last := len(r.items) - 1
	r.items[last] = append(r.items[last], n)
}

// continuation consumes "~" followed by optional spaces and a newline.
func (r *lineReader) continuation() bool {
	i := r.pos + 1
	for i < len(r.src) && (r.src[i] == ' ' || r.src[i] == '\t' || r.src[i] == '\r') {
		i++
	}
	if i < len(r.src) && r.src[i] == '\n' {
		r.pos = i + 1
		return true
	}
	return false
}

func (r *lineReader) word() Node {
	var sb strings.Builder
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '|':
			r.pos++
			for r.pos < len(r.src) && r.src[r.pos] != '|' {
				sb.WriteRune(r.src[r.pos])
				r.pos++
			}
			r.pos++ // closing bar, if any
			continue
		case c == '\\':
			r.pos++
			if r.pos < len(r.src) {
				sb.WriteRune(r.src[r.pos])
				r.pos++
			}
			continue
		case c == '~' && r.continuation():
			continue
		case unicode.IsSpace(c), c == '[', c == ']', c == ';':
			return r.heap.Atom(sb.String())
		}
		sb.WriteRune(c)
		r.pos++
	}
	return r.heap.Atom(sb.String())
}

// NeedsMoreInput reports whether text stops inside a list or ends with a
// continuation mark, so another line should be appended before running it.
func NeedsMoreInput(text string) bool {
	trimmed := strings.TrimRight(text, " \t\r\n")
	if strings.HasSuffix(trimmed, "~") && !strings.HasSuffix(trimmed, "\\~") {
		return true
	}
	depth := 0
	bar := false
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch {
		case bar:
			if c == '|' {
				bar = false
			}
		case c == '\\':
			i++
		case c == '|':
			bar = true
		case c == ';':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case c == '[':
			depth++
		case c == ']':
			depth--
		}
	}
	return depth > 0
}

// ---------------------------------------------------------------------------
// Run-parsing: infix splitting of a list about to be executed
// ---------------------------------------------------------------------------

func isOperatorChar(c byte) bool {
	switch c {
	case '(', ')', '+', '-', '*', '/', '=', '<', '>':
		return true
	}
	return false
}

// runparse returns list with every unquoted word split into operators and
// operands. The result is cached by list head until the next collection.
// ok is false when the heap ran out of cells.
func (vm *VM) runparse(list Node) (Node, bool) {
	if !list.IsPair() {
		return list, true
	}
	if cached, ok := vm.parsed[list]; ok {
		return cached, true
	}

	var out []Node
	changed := false
	for n := list; n.IsPair(); n = vm.heap.Cdr(n) {
		item := vm.heap.Car(n)
		if !item.IsAtom() || item == vm.newline {
			out = append(out, item)
			continue
		}
		parts := splitWord(vm.heap.Text(item))
		if len(parts) == 1 && parts[0] == vm.heap.Text(item) {
			out = append(out, item)
			continue
		}
		changed = true
		for _, p := range parts {
			out = append(out, vm.tokenAtom(p))
		}
	}

	result := list
	if changed {
		result = vm.heap.ListFrom(out)
		if vm.heap.TakeExhausted() {
			return Nil, false
		}
	}
	vm.parsed[list] = result
	return result, true
}

const unaryMinusText = "\x01-"

func (vm *VM) tokenAtom(text string) Node {
	if text == unaryMinusText {
		return vm.unaryMinus
	}
	return vm.heap.Atom(text)
}

// splitWord breaks one word into run-time tokens. A '-' that starts the
// word, or follows an operator or '(', is a sign; elsewhere it subtracts.
// A lone "-" word is left for the evaluator, which treats it as binary
// after an operand and as negation anywhere else.
func splitWord(w string) []string {
	if w == "" {
		return []string{w}
	}
	if _, ok := ParseNumber(w); ok {
		return []string{w}
	}
	if w[0] == '"' {
		// quoted words keep their operators; only closing parens split off
		end := len(w)
		for end > 1 && w[end-1] == ')' {
			end--
		}
		if end == len(w) {
			return []string{w}
		}
		parts := []string{w[:end]}
		for i := end; i < len(w); i++ {
			parts = append(parts, ")")
		}
		return parts
	}
	if w == "-" {
		return []string{w}
	}

	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	// unary is true where a '-' cannot be binary: word start, after an
	// operator or after '('.
	unary := true
	i := 0
	for i < len(w) {
		c := w[i]
		switch {
		case c == '-' && cur.Len() == 0 && unary:
			if n := numberPrefix(w[i+1:]); n > 0 {
				parts = append(parts, "-"+w[i+1:i+1+n])
				i += 1 + n
				unary = false
				continue
			}
			parts = append(parts, unaryMinusText)
			i++
			continue
		case isOperatorChar(c):
			flush()
			op := string(c)
			if i+1 < len(w) && (c == '<' || c == '>') && (w[i+1] == '=' || (c == '<' && w[i+1] == '>')) {
				op = w[i : i+2]
			}
			parts = append(parts, op)
			i += len(op)
			unary = c != ')'
			continue
		case cur.Len() == 0 && (isDigit(c) || (c == '.' && i+1 < len(w) && isDigit(w[i+1]))):
			n := numberPrefix(w[i:])
			cur.WriteString(w[i : i+n])
			i += n
			unary = false
			continue
		}
		cur.WriteByte(c)
		i++
		unary = false
	}
	flush()
	return parts
}

// numberPrefix returns the length of the decimal number at the start of s,
// including an exponent only when digits follow it.
func numberPrefix(s string) int {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > i+1 || i > 0 {
			i = j
		}
	}
	if i == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}
