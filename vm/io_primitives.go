package vm

import (
	"errors"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Console and stream I/O
// ---------------------------------------------------------------------------

func (vm *VM) registerIOPrimitives() {
	vm.register("print", 1, 0, -1, primPrint, "pr")
	vm.register("type", 1, 0, -1, primType)
	vm.register("show", 1, 0, -1, primShow)
	vm.fixed("readlist", 0, primReadList, "rl")
	vm.fixed("readword", 0, primReadWord, "rw")
	vm.fixed("readchar", 0, primReadChar, "rc")
	vm.fixed("keyp", 0, primKeyp, "key?")
}

func (vm *VM) emit(name string, text string) Result {
	if err := vm.writer.Write(text); err != nil {
		return vm.streamError(name, err)
	}
	return ResultNone()
}

func (vm *VM) joinValues(args []Value, render func(Value) string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = render(a)
	}
	return strings.Join(parts, " ")
}

func primPrint(vm *VM, name string, args []Value) Result {
	return vm.emit(name, vm.joinValues(args, vm.Print)+"\n")
}

func primType(vm *VM, name string, args []Value) Result {
	return vm.emit(name, vm.joinValues(args, vm.Print))
}

func primShow(vm *VM, name string, args []Value) Result {
	return vm.emit(name, vm.joinValues(args, vm.Show)+"\n")
}

// readLine reads from the current reader after flushing pending output.
func (vm *VM) readLine() (string, bool, error) {
	vm.writer.Flush()
	line, err := vm.reader.ReadLine()
	if errors.Is(err, io.EOF) {
		return "", true, nil
	}
	return line, false, err
}

// primReadList outputs a line as a list; at end of file it outputs the
// empty word.
func primReadList(vm *VM, name string, args []Value) Result {
	line, eof, err := vm.readLine()
	if err != nil {
		return vm.streamError(name, err)
	}
	if eof {
		return ResultOK(vm.wordValue(""))
	}
	list, r := vm.parseInstruction(line)
	if r.status != StatusNone {
		return r
	}
	return ResultOK(List(list))
}

// primReadWord outputs a line as one word; at end of file it outputs the
// empty list.
func primReadWord(vm *VM, name string, args []Value) Result {
	line, eof, err := vm.readLine()
	if err != nil {
		return vm.streamError(name, err)
	}
	if eof {
		return ResultOK(List(Nil))
	}
	return ResultOK(vm.wordValue(line))
}

func primReadChar(vm *VM, name string, args []Value) Result {
	vm.writer.Flush()
	r, err := vm.reader.ReadChar()
	if errors.Is(err, io.EOF) {
		return ResultOK(List(Nil))
	}
	if err != nil {
		return vm.streamError(name, err)
	}
	return ResultOK(vm.wordValue(string(r)))
}

func primKeyp(vm *VM, name string, args []Value) Result {
	return ResultOK(vm.boolWord(vm.reader.CanRead()))
}
