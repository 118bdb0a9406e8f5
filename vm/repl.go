package vm

import (
	"errors"
	"io"
	"strings"

	"github.com/chazu/turtle/device"
)

// ---------------------------------------------------------------------------
// Top level: reading and running instruction lines
// ---------------------------------------------------------------------------

// RunLine runs one complete instruction line at top level, or adds it to
// the procedure being defined. The raw result is returned; a value left
// over at the end of the line is reported by Toplevel, not here.
func (vm *VM) RunLine(text string) Result {
	if vm.definition != nil {
		return vm.continueDefinition(text)
	}
	list, r := vm.parseInstruction(text)
	if r.status != StatusNone {
		return r
	}
	return vm.evalList(list, true)
}

func (vm *VM) parseInstruction(text string) (Node, Result) {
	list, err := vm.heap.ParseList(text)
	if vm.heap.TakeExhausted() {
		return Nil, ResultError(ErrOutOfSpace)
	}
	switch {
	case errors.Is(err, errUnexpectedBracket):
		return Nil, ResultError(ErrUnexpectedBracket)
	case errors.Is(err, errIncomplete):
		return Nil, ResultError(ErrBracketNotFound)
	}
	return list, ResultNone()
}

// Eval runs text and returns the value it outputs.
func (vm *VM) Eval(text string) Result {
	list, r := vm.parseInstruction(text)
	if r.status != StatusNone {
		return r
	}
	return vm.evalList(list, true)
}

// Toplevel reads instructions from the console until end of input or bye,
// reporting errors and leftover values to the writer. Memory is reclaimed
// between instructions.
func (vm *VM) Toplevel() Result {
	for {
		vm.maybeCollect()
		prompt := "? "
		if vm.definition != nil {
			prompt = "> "
		}
		text, err := vm.readInstruction(vm.console, prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Errorf("console: %v", err)
			}
			return ResultEOF()
		}
		r := vm.RunLine(text)
		if r.status == StatusEOF {
			return r
		}
		vm.report(r)
	}
}

// readInstruction reads lines from in until the brackets balance and no
// continuation mark is pending.
func (vm *VM) readInstruction(in device.Stream, prompt string) (string, error) {
	var sb strings.Builder
	for {
		if vm.interactive && in == vm.console {
			in.Write(prompt)
		}
		line, err := in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		sb.WriteString(line)
		if !NeedsMoreInput(sb.String()) {
			return sb.String(), nil
		}
		sb.WriteByte('\n')
		prompt = "~ "
	}
}

// Report prints the error, uncaught throw or stray value carried by r, the
// way the top-level loop does.
func (vm *VM) Report(r Result) { vm.report(r) }

// report prints what a top-level instruction left behind.
func (vm *VM) report(r Result) {
	switch r.status {
	case StatusOK:
		r = ResultErrorArg(ErrDontSayWhatToDo, "", vm.Show(r.value))
	case StatusThrow:
		if vm.sameWord(r.Tag(), tagToplevel) {
			return
		}
		r = ResultErrorArg(ErrNoCatch, "", r.Tag())
	case StatusStop, StatusOutput:
		r = ResultErrorProc(ErrCantUseToplevel, strings.ToLower(r.status.String()))
	case StatusGoto:
		r = ResultErrorProc(ErrCantUseToplevel, "goto")
	}
	if r.status != StatusError {
		return
	}
	msg := FormatError(r.err)
	log.Debugf("top-level error %d: %s", r.err.Code, msg)
	vm.writer.Write(msg + "\n")
}

// ---------------------------------------------------------------------------
// Loading source
// ---------------------------------------------------------------------------

// LoadFile runs a source file from storage at top level, reclaiming memory
// between instructions. It stops at the first error.
func (vm *VM) LoadFile(name string) Result {
	s, r := vm.openForRead("load", name)
	if s == nil {
		return r
	}
	defer s.Close()
	log.Infof("loading %s", vm.resolve(name))
	return vm.loadStream(s, true)
}

// loadStream runs every instruction in s. Errors end the load and are
// returned; a trailing unfinished definition is discarded.
func (vm *VM) loadStream(s device.Stream, collect bool) Result {
	saved := vm.interactive
	vm.interactive = false
	defer func() { vm.interactive = saved }()

	for {
		if collect {
			vm.maybeCollect()
		}
		text, err := vm.readInstruction(s, "")
		if err != nil {
			break
		}
		r := vm.RunLine(text)
		switch r.status {
		case StatusNone:
			continue
		case StatusOK:
			r = ResultErrorArg(ErrDontSayWhatToDo, "", vm.Show(r.value))
		}
		vm.definition = nil
		return r
	}
	if vm.definition != nil {
		name := vm.definition.name
		vm.definition = nil
		log.Warningf("definition of %s not closed by end", name)
	}
	return ResultNone()
}
