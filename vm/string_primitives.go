package vm

import (
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Word and list primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerWordPrimitives() {
	vm.register("word", 2, 0, -1, primWord)
	vm.register("list", 2, 0, -1, primList)
	vm.register("sentence", 2, 0, -1, primSentence, "se")
	vm.fixed("fput", 2, primFput)
	vm.fixed("lput", 2, primLput)
	vm.fixed("first", 1, primFirst)
	vm.fixed("last", 1, primLast)
	vm.fixed("butfirst", 1, primButFirst, "bf")
	vm.fixed("butlast", 1, primButLast, "bl")
	vm.fixed("item", 2, primItem)
	vm.fixed("count", 1, primCount)
	vm.fixed("emptyp", 1, primEmptyp, "empty?")
	vm.fixed("wordp", 1, primWordp, "word?")
	vm.fixed("listp", 1, primListp, "list?")
	vm.fixed("numberp", 1, primNumberp, "number?")
	vm.fixed("equalp", 2, primEqualp, "equal?")
	vm.fixed("memberp", 2, primMemberp, "member?")
	vm.fixed("uppercase", 1, primUppercase)
	vm.fixed("lowercase", 1, primLowercase)
	vm.fixed("reverse", 1, primReverse)
	vm.fixed("char", 1, primChar)
	vm.fixed("ascii", 1, primASCII)
}

// wordValue interns text as a word.
func (vm *VM) wordValue(text string) Value {
	return Word(vm.heap.Atom(text))
}

func primWord(vm *VM, name string, args []Value) Result {
	var sb strings.Builder
	for _, a := range args {
		text, ok := vm.wordText(a)
		if !ok {
			return vm.doesntLike(name, a)
		}
		sb.WriteString(text)
	}
	return ResultOK(vm.wordValue(sb.String()))
}

func primList(vm *VM, name string, args []Value) Result {
	items := make([]Node, len(args))
	for i, a := range args {
		items[i] = vm.heap.ValueToNode(a)
	}
	return ResultOK(List(vm.heap.ListFrom(items)))
}

func primSentence(vm *VM, name string, args []Value) Result {
	var items []Node
	for _, a := range args {
		if a.IsList() {
			items = append(items, vm.heap.Items(a.node)...)
			continue
		}
		items = append(items, vm.heap.ValueToNode(a))
	}
	return ResultOK(List(vm.heap.ListFrom(items)))
}

func primFput(vm *VM, name string, args []Value) Result {
	if args[1].IsList() {
		return ResultOK(List(vm.heap.Cons(vm.heap.ValueToNode(args[0]), args[1].node)))
	}
	head, ok1 := vm.wordText(args[0])
	tail, ok2 := vm.wordText(args[1])
	if !ok1 || !ok2 || utf8.RuneCountInString(head) != 1 {
		return vm.doesntLike(name, args[1])
	}
	return ResultOK(vm.wordValue(head + tail))
}

func primLput(vm *VM, name string, args []Value) Result {
	if args[1].IsList() {
		items := append(vm.heap.Items(args[1].node), vm.heap.ValueToNode(args[0]))
		return ResultOK(List(vm.heap.ListFrom(items)))
	}
	tail, ok1 := vm.wordText(args[0])
	head, ok2 := vm.wordText(args[1])
	if !ok1 || !ok2 || utf8.RuneCountInString(tail) != 1 {
		return vm.doesntLike(name, args[1])
	}
	return ResultOK(vm.wordValue(head + tail))
}

// pieces splits a word into characters or a list into elements.
func (vm *VM) pieces(v Value) (runes []rune, items []Node, isList bool, ok bool) {
	if v.IsList() {
		return nil, vm.heap.Items(v.node), true, true
	}
	text, ok := vm.wordText(v)
	if !ok {
		return nil, nil, false, false
	}
	return []rune(text), nil, false, true
}

func (vm *VM) selectPiece(name string, v Value, pick func(n int) int) Result {
	runes, items, isList, ok := vm.pieces(v)
	if !ok {
		return vm.doesntLike(name, v)
	}
	if isList {
		if len(items) == 0 {
			return vm.doesntLike(name, v)
		}
		return ResultOK(NodeToValue(items[pick(len(items))]))
	}
	if len(runes) == 0 {
		return vm.doesntLike(name, v)
	}
	return ResultOK(vm.wordValue(string(runes[pick(len(runes))])))
}

func (vm *VM) dropPiece(name string, v Value, front bool) Result {
	runes, items, isList, ok := vm.pieces(v)
	if !ok {
		return vm.doesntLike(name, v)
	}
	if isList {
		if len(items) == 0 {
			return vm.doesntLike(name, v)
		}
		if front {
			return ResultOK(List(vm.heap.Cdr(v.node)))
		}
		return ResultOK(List(vm.heap.ListFrom(items[:len(items)-1])))
	}
	if len(runes) == 0 {
		return vm.doesntLike(name, v)
	}
	if front {
		return ResultOK(vm.wordValue(string(runes[1:])))
	}
	return ResultOK(vm.wordValue(string(runes[:len(runes)-1])))
}

func primFirst(vm *VM, name string, args []Value) Result {
	return vm.selectPiece(name, args[0], func(int) int { return 0 })
}

func primLast(vm *VM, name string, args []Value) Result {
	return vm.selectPiece(name, args[0], func(n int) int { return n - 1 })
}

func primButFirst(vm *VM, name string, args []Value) Result {
	return vm.dropPiece(name, args[0], true)
}

func primButLast(vm *VM, name string, args []Value) Result {
	return vm.dropPiece(name, args[0], false)
}

func primItem(vm *VM, name string, args []Value) Result {
	i, ok := vm.integer(args[0])
	if !ok || i < 1 {
		return vm.doesntLike(name, args[0])
	}
	runes, items, isList, ok := vm.pieces(args[1])
	if !ok {
		return vm.doesntLike(name, args[1])
	}
	n := len(runes)
	if isList {
		n = len(items)
	}
	if i > n {
		return ResultErrorArg(ErrTooFewItems, "", vm.Show(args[1]))
	}
	return vm.selectPiece(name, args[1], func(int) int { return i - 1 })
}

func primCount(vm *VM, name string, args []Value) Result {
	runes, items, isList, ok := vm.pieces(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	if isList {
		return ResultOK(Number(float32(len(items))))
	}
	return ResultOK(Number(float32(len(runes))))
}

func primEmptyp(vm *VM, name string, args []Value) Result {
	v := args[0]
	switch v.kind {
	case KindList:
		return ResultOK(vm.boolWord(v.node == Nil))
	case KindWord:
		return ResultOK(vm.boolWord(vm.heap.Text(v.node) == ""))
	}
	return ResultOK(vm.boolWord(false))
}

func primWordp(vm *VM, name string, args []Value) Result {
	return ResultOK(vm.boolWord(args[0].IsWord() || args[0].IsNumber()))
}

func primListp(vm *VM, name string, args []Value) Result {
	return ResultOK(vm.boolWord(args[0].IsList()))
}

func primNumberp(vm *VM, name string, args []Value) Result {
	_, ok := vm.number(args[0])
	return ResultOK(vm.boolWord(ok))
}

func primEqualp(vm *VM, name string, args []Value) Result {
	return ResultOK(vm.boolWord(vm.heap.ValuesEqual(args[0], args[1], vm.foldName)))
}

func primMemberp(vm *VM, name string, args []Value) Result {
	if args[1].IsList() {
		for _, n := range vm.heap.Items(args[1].node) {
			if vm.heap.ValuesEqual(args[0], NodeToValue(n), vm.foldName) {
				return ResultOK(vm.boolWord(true))
			}
		}
		return ResultOK(vm.boolWord(false))
	}
	needle, ok1 := vm.wordText(args[0])
	hay, ok2 := vm.wordText(args[1])
	if !ok1 || !ok2 {
		return vm.doesntLike(name, args[0])
	}
	return ResultOK(vm.boolWord(needle != "" && strings.Contains(vm.foldName(hay), vm.foldName(needle))))
}

func primUppercase(vm *VM, name string, args []Value) Result {
	text, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	return ResultOK(vm.wordValue(strings.ToUpper(text)))
}

func primLowercase(vm *VM, name string, args []Value) Result {
	text, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	return ResultOK(vm.wordValue(strings.ToLower(text)))
}

func primReverse(vm *VM, name string, args []Value) Result {
	runes, items, isList, ok := vm.pieces(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	if isList {
		out := Nil
		for _, n := range items {
			out = vm.heap.Cons(n, out)
		}
		return ResultOK(List(out))
	}
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return ResultOK(vm.wordValue(string(runes)))
}

func primChar(vm *VM, name string, args []Value) Result {
	n, ok := vm.integer(args[0])
	if !ok || n < 0 || n > utf8.MaxRune {
		return vm.doesntLike(name, args[0])
	}
	return ResultOK(vm.wordValue(string(rune(n))))
}

func primASCII(vm *VM, name string, args []Value) Result {
	text, ok := vm.wordText(args[0])
	if !ok || text == "" {
		return vm.doesntLike(name, args[0])
	}
	r, _ := utf8.DecodeRuneInString(text)
	return ResultOK(Number(float32(r)))
}
