package vm

// ---------------------------------------------------------------------------
// catch, throw and error
// ---------------------------------------------------------------------------

const (
	tagError    = "error"
	tagToplevel = "toplevel"
)

func (vm *VM) registerExceptionPrimitives() {
	vm.fixed("catch", 2, primCatch)
	vm.register("throw", 1, 1, 2, primThrow)
	vm.fixed("error", 0, primError)
}

// primCatch runs a list and absorbs a throw with a matching tag. catch
// "error also absorbs errors and records them for the error primitive.
// Throws to toplevel are never caught.
func primCatch(vm *VM, name string, args []Value) Result {
	tag, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	list, ok := vm.instructionList(args[1])
	if !ok {
		return vm.doesntLike(name, args[1])
	}

	r := vm.evalList(list, true)
	switch r.status {
	case StatusThrow:
		if vm.sameWord(r.Tag(), tagToplevel) || !vm.sameWord(r.Tag(), tag) {
			return r
		}
		v := vm.thrown
		vm.thrown = NoValue()
		if v.IsNone() {
			return ResultNone()
		}
		return ResultOK(v)
	case StatusError:
		if !vm.sameWord(tag, tagError) || r.err.Code == ErrStopped {
			return r
		}
		info := *r.err
		vm.lastError = &info
		log.Debugf("caught: %s", FormatError(&info))
		return ResultNone()
	}
	return r
}

// primThrow starts a non-local exit. (throw "error message) raises a user
// error instead, so catch "error and the top level report it.
func primThrow(vm *VM, name string, args []Value) Result {
	tag, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	if len(args) == 2 {
		if vm.sameWord(tag, tagError) {
			return ResultErrorArg(ErrUserThrow, name, vm.Print(args[1]))
		}
		vm.thrown = args[1]
	} else {
		vm.thrown = NoValue()
	}
	return ResultThrow(tag)
}

// primError outputs [code message proc caller] for the most recently caught
// error, or [] when there is none. An absent proc or caller is [].
func primError(vm *VM, name string, args []Value) Result {
	info := vm.lastError
	if info == nil {
		return ResultOK(List(Nil))
	}
	message := FormatError(&ErrorInfo{Code: info.Code, Proc: info.Proc, Arg: info.Arg})
	items := []Node{
		vm.heap.Atom(FormatNumber(float32(info.Code))),
		vm.heap.Atom(message),
		vm.optionalWord(info.Proc),
		vm.optionalWord(info.Caller),
	}
	return ResultOK(List(vm.heap.ListFrom(items)))
}

func (vm *VM) optionalWord(s string) Node {
	if s == "" {
		return Nil
	}
	return vm.heap.Atom(s)
}

// LastError returns the error most recently absorbed by catch "error.
func (vm *VM) LastError() *ErrorInfo { return vm.lastError }
