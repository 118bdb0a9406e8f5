package vm

// ---------------------------------------------------------------------------
// Control primitives: running lists, loops and conditionals
// ---------------------------------------------------------------------------

func (vm *VM) registerControlPrimitives() {
	vm.fixed("run", 1, primRun)
	vm.fixed("repeat", 2, primRepeat)
	vm.fixed("repcount", 0, primRepcount)
	vm.fixed("forever", 1, primForever)
	vm.fixed("while", 2, primWhile)
	vm.fixed("until", 2, primUntil)
	vm.fixed("for", 2, primFor)
	vm.register("if", 2, 2, 3, primIf)
	vm.fixed("ifelse", 3, primIf)
	vm.fixed("test", 1, primTest)
	vm.fixed("iftrue", 1, primIfTrue, "ift")
	vm.fixed("iffalse", 1, primIfFalse, "iff")
	vm.fixed("stop", 0, primStop)
	vm.fixed("output", 1, primOutput, "op")
	vm.fixed("goto", 1, primGoto)
	vm.fixed("label", 1, primLabel)
	vm.fixed("ignore", 1, func(vm *VM, name string, args []Value) Result { return ResultNone() })
	vm.registerExceptionPrimitives()
	vm.registerCancellationPrimitives()
}

func primRun(vm *VM, name string, args []Value) Result {
	list, ok := vm.instructionList(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	return vm.evalList(list, true)
}

// loopBody runs one iteration. Only None lets the loop continue.
func (vm *VM) loopBody(list Node) (Result, bool) {
	if r, stop := vm.poll(); stop {
		return r, false
	}
	r := vm.evalList(list, false)
	return r, r.status == StatusNone
}

func primRepeat(vm *VM, name string, args []Value) Result {
	n, ok := vm.integer(args[0])
	if !ok || n < 0 {
		return vm.doesntLike(name, args[0])
	}
	list, ok := vm.listNode(args[1])
	if !ok {
		return vm.doesntLike(name, args[1])
	}
	vm.repcounts = append(vm.repcounts, 0)
	defer func() { vm.repcounts = vm.repcounts[:len(vm.repcounts)-1] }()
	top := len(vm.repcounts) - 1
	for i := 1; i <= n; i++ {
		vm.repcounts[top] = i
		if r, more := vm.loopBody(list); !more {
			return r
		}
	}
	return ResultNone()
}

// primRepcount outputs the innermost repeat counter, or -1 outside repeat.
func primRepcount(vm *VM, name string, args []Value) Result {
	if len(vm.repcounts) == 0 {
		return ResultOK(Number(-1))
	}
	return ResultOK(Number(float32(vm.repcounts[len(vm.repcounts)-1])))
}

func primForever(vm *VM, name string, args []Value) Result {
	list, ok := vm.listNode(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	vm.repcounts = append(vm.repcounts, 0)
	defer func() { vm.repcounts = vm.repcounts[:len(vm.repcounts)-1] }()
	top := len(vm.repcounts) - 1
	for i := 1; ; i++ {
		vm.repcounts[top] = i
		if r, more := vm.loopBody(list); !more {
			return r
		}
	}
}

// condition evaluates a while/until test given as a list or a word.
func (vm *VM) condition(name string, v Value) (bool, Result, bool) {
	if b, ok := vm.boolean(v); ok {
		return b, ResultNone(), true
	}
	list, ok := vm.listNode(v)
	if !ok {
		return false, vm.doesntLike(name, v), false
	}
	r := vm.evalList(list, true)
	if r.status == StatusNone {
		return false, ResultErrorArg(ErrDidntOutput, vm.lastNoneProc, name), false
	}
	if !r.IsReturnable() || r.status == StatusOutput {
		return false, r, false
	}
	b, ok := vm.boolean(r.value)
	if !ok {
		return false, vm.doesntLike(name, r.value), false
	}
	return b, ResultNone(), true
}

func (vm *VM) conditionalLoop(name string, args []Value, want bool) Result {
	list, ok := vm.listNode(args[1])
	if !ok {
		return vm.doesntLike(name, args[1])
	}
	for {
		b, r, ok := vm.condition(name, args[0])
		if !ok {
			return r
		}
		if b != want {
			return ResultNone()
		}
		if r, more := vm.loopBody(list); !more {
			return r
		}
	}
}

func primWhile(vm *VM, name string, args []Value) Result {
	return vm.conditionalLoop(name, args, true)
}

func primUntil(vm *VM, name string, args []Value) Result {
	return vm.conditionalLoop(name, args, false)
}

// primFor implements for [var start end step] [body]. The variable is local
// to the loop.
func primFor(vm *VM, name string, args []Value) Result {
	control, ok := vm.listNode(args[0])
	if !ok || control == Nil {
		return vm.doesntLike(name, args[0])
	}
	body, ok := vm.listNode(args[1])
	if !ok {
		return vm.doesntLike(name, args[1])
	}
	varTok := vm.heap.Car(control)
	if !varTok.IsAtom() {
		return vm.doesntLike(name, args[0])
	}
	varName := vm.heap.Text(varTok)

	rest, ok := vm.runparse(vm.heap.Cdr(control))
	if !ok {
		return ResultError(ErrOutOfSpace)
	}
	c := &cursor{pos: rest}
	var bounds []float32
	for len(bounds) < 3 {
		if _, ok := vm.peek(c); !ok {
			break
		}
		v, r, ok := vm.evalArg(c, name)
		if !ok {
			return r
		}
		f, ok := vm.number(v)
		if !ok {
			return vm.doesntLike(name, v)
		}
		bounds = append(bounds, f)
	}
	if len(bounds) < 2 {
		return ResultErrorProc(ErrNotEnoughInputs, name)
	}
	start, end := bounds[0], bounds[1]
	step := float32(1)
	if start > end {
		step = -1
	}
	if len(bounds) == 3 {
		step = bounds[2]
	}
	if step == 0 {
		return vm.doesntLike(name, args[0])
	}

	// The control variable is bound in the current frame until the loop
	// ends, then its previous binding there comes back.
	key, display := vm.key(varName), vm.heap.Atom(varName)
	saved, had := vm.scopes.Own(key)
	defer func() {
		if had {
			vm.scopes.SetLocal(key, display, saved)
		} else {
			vm.scopes.Unbind(key)
		}
	}()
	for i := start; (step > 0 && i <= end) || (step < 0 && i >= end); i += step {
		if !vm.scopes.SetLocal(key, display, Number(i)) {
			return ResultErrorProc(ErrOutOfSpace, name)
		}
		if r, more := vm.loopBody(body); !more {
			return r
		}
	}
	return ResultNone()
}

// primIf serves if, (if tf yes no) and ifelse.
func primIf(vm *VM, name string, args []Value) Result {
	b, ok := vm.boolean(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	for _, a := range args[1:] {
		if _, ok := vm.instructionList(a); !ok {
			return vm.doesntLike(name, a)
		}
	}
	var branch Value
	switch {
	case b:
		branch = args[1]
	case len(args) == 3:
		branch = args[2]
	default:
		return ResultNone()
	}
	list, _ := vm.instructionList(branch)
	return vm.evalList(list, true)
}

func primTest(vm *VM, name string, args []Value) Result {
	b, ok := vm.boolean(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	vm.scopes.SetTest(b)
	return ResultNone()
}

func (vm *VM) ifTest(name string, v Value, want bool) Result {
	list, ok := vm.instructionList(v)
	if !ok {
		return vm.doesntLike(name, v)
	}
	b, ok := vm.scopes.Test()
	if !ok {
		return ResultErrorProc(ErrNoTest, name)
	}
	if b != want {
		return ResultNone()
	}
	return vm.evalList(list, true)
}

func primIfTrue(vm *VM, name string, args []Value) Result {
	return vm.ifTest(name, args[0], true)
}

func primIfFalse(vm *VM, name string, args []Value) Result {
	return vm.ifTest(name, args[0], false)
}

func primStop(vm *VM, name string, args []Value) Result {
	if len(vm.callStack) == 0 {
		return ResultErrorProc(ErrCantUseToplevel, name)
	}
	return ResultStop()
}

func primOutput(vm *VM, name string, args []Value) Result {
	if len(vm.callStack) == 0 {
		return ResultErrorProc(ErrCantUseToplevel, name)
	}
	return ResultOutput(args[0])
}

func primGoto(vm *VM, name string, args []Value) Result {
	if len(vm.callStack) == 0 {
		return ResultErrorProc(ErrCantUseToplevel, name)
	}
	label, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	return ResultGoto(label)
}

func primLabel(vm *VM, name string, args []Value) Result {
	if _, ok := vm.wordText(args[0]); !ok {
		return vm.doesntLike(name, args[0])
	}
	return ResultNone()
}
