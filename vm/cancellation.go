package vm

// ---------------------------------------------------------------------------
// Cooperative interruption: user signals, wait, pause and continue
// ---------------------------------------------------------------------------

func (vm *VM) registerCancellationPrimitives() {
	vm.fixed("wait", 1, primWait)
	vm.fixed("pause", 0, primPause)
	vm.register("continue", 0, 0, 1, primContinue, "co")
	vm.fixed("bye", 0, func(vm *VM, name string, args []Value) Result { return ResultEOF() })
}

// poll checks the hardware signals. An interrupt is reported as STOPPED and
// cleared; a freeze waits for a key; a pause request enters a nested loop
// when a procedure is running. stop is true when r must propagate.
func (vm *VM) poll() (r Result, stop bool) {
	sig := vm.hw.Signals()
	if sig.TakeInterrupt() {
		return ResultError(ErrStopped), true
	}
	if sig.TakeFreeze() {
		vm.console.Flush()
		vm.console.ReadChar()
	}
	if sig.TakePause() && len(vm.callStack) > 0 {
		if r := vm.pauseLoop(vm.currentProcName()); r.status != StatusNone {
			return r, true
		}
	}
	return ResultNone(), false
}

func (vm *VM) currentProcName() string {
	if len(vm.callStack) == 0 {
		return ""
	}
	return vm.heap.Text(vm.callStack[len(vm.callStack)-1].Name)
}

// primWait sleeps for a number of 60ths of a second.
func primWait(vm *VM, name string, args []Value) Result {
	f, ok := vm.number(args[0])
	if !ok || f < 0 {
		return vm.doesntLike(name, args[0])
	}
	vm.writer.Flush()
	vm.hw.Sleep(int(f * 1000 / 60))
	if vm.hw.Signals().TakeInterrupt() {
		return ResultError(ErrStopped)
	}
	return ResultNone()
}

func primPause(vm *VM, name string, args []Value) Result {
	if len(vm.callStack) == 0 {
		return ResultErrorProc(ErrCantUseToplevel, name)
	}
	return ResultPause(vm.currentProcName())
}

func primContinue(vm *VM, name string, args []Value) Result {
	if vm.pauseDepth == 0 {
		return ResultErrorProc(ErrCantUseToplevel, name)
	}
	vm.continued = true
	return ResultNone()
}

// pauseLoop is a nested read-eval loop inside a paused procedure. Its
// instructions see the procedure's variables. It returns None on continue;
// stop, output, a throw to toplevel and end of input leave the procedure.
func (vm *VM) pauseLoop(proc string) Result {
	vm.pauseDepth++
	defer func() { vm.pauseDepth-- }()

	vm.writer.Write("Pausing...\n")
	for {
		text, err := vm.readInstruction(vm.console, proc+"? ")
		if err != nil {
			return ResultEOF()
		}
		r := vm.RunLine(text)
		if vm.continued {
			vm.continued = false
			return ResultNone()
		}
		switch r.status {
		case StatusStop, StatusOutput, StatusEOF:
			return r
		case StatusThrow:
			if vm.sameWord(r.Tag(), tagToplevel) {
				return r
			}
		}
		vm.report(r)
	}
}
