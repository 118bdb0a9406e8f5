package vm

// ---------------------------------------------------------------------------
// Logic primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerLogicPrimitives() {
	vm.register("and", 2, 0, -1, primAnd)
	vm.register("or", 2, 0, -1, primOr)
	vm.fixed("not", 1, primNot)
	vm.fixed("true", 0, func(vm *VM, name string, args []Value) Result {
		return ResultOK(vm.boolWord(true))
	})
	vm.fixed("false", 0, func(vm *VM, name string, args []Value) Result {
		return ResultOK(vm.boolWord(false))
	})
}

func (vm *VM) booleans(name string, args []Value) ([]bool, Result, bool) {
	out := make([]bool, len(args))
	for i, a := range args {
		b, ok := vm.boolean(a)
		if !ok {
			return nil, vm.doesntLike(name, a), false
		}
		out[i] = b
	}
	return out, ResultNone(), true
}

func primAnd(vm *VM, name string, args []Value) Result {
	bs, r, ok := vm.booleans(name, args)
	if !ok {
		return r
	}
	for _, b := range bs {
		if !b {
			return ResultOK(vm.boolWord(false))
		}
	}
	return ResultOK(vm.boolWord(true))
}

func primOr(vm *VM, name string, args []Value) Result {
	bs, r, ok := vm.booleans(name, args)
	if !ok {
		return r
	}
	for _, b := range bs {
		if b {
			return ResultOK(vm.boolWord(true))
		}
	}
	return ResultOK(vm.boolWord(false))
}

func primNot(vm *VM, name string, args []Value) Result {
	bs, r, ok := vm.booleans(name, args)
	if !ok {
		return r
	}
	return ResultOK(vm.boolWord(!bs[0]))
}
