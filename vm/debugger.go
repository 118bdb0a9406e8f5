package vm

import "strings"

// ---------------------------------------------------------------------------
// Debugging: trace and step
// ---------------------------------------------------------------------------

func (vm *VM) registerDebugPrimitives() {
	vm.fixed("trace", 1, func(vm *VM, name string, args []Value) Result {
		return vm.setDebugFlag(name, args[0], func(p *Procedure) { p.Traced = true })
	})
	vm.fixed("untrace", 1, func(vm *VM, name string, args []Value) Result {
		return vm.setDebugFlag(name, args[0], func(p *Procedure) { p.Traced = false })
	})
	vm.fixed("step", 1, func(vm *VM, name string, args []Value) Result {
		return vm.setDebugFlag(name, args[0], func(p *Procedure) { p.Stepped = true })
	})
	vm.fixed("unstep", 1, func(vm *VM, name string, args []Value) Result {
		return vm.setDebugFlag(name, args[0], func(p *Procedure) { p.Stepped = false })
	})
}

// procedureArgs resolves a word or list of words to user procedures.
func (vm *VM) procedureArgs(name string, v Value) ([]*Procedure, Result) {
	var names []string
	if text, ok := vm.wordText(v); ok {
		names = []string{text}
	} else {
		for _, n := range vm.heap.Items(v.Node()) {
			if !n.IsAtom() {
				return nil, vm.doesntLike(name, v)
			}
			names = append(names, vm.heap.Text(n))
		}
	}
	procs := make([]*Procedure, 0, len(names))
	for _, n := range names {
		p, ok := vm.Procedure(n)
		if !ok {
			if vm.IsPrimitive(n) {
				return nil, ResultErrorArg(ErrIsPrimitive, name, n)
			}
			return nil, ResultErrorArg(ErrNotProcedure, "", n)
		}
		procs = append(procs, p)
	}
	return procs, ResultNone()
}

func (vm *VM) setDebugFlag(name string, v Value, set func(*Procedure)) Result {
	procs, r := vm.procedureArgs(name, v)
	if procs == nil {
		return r
	}
	for _, p := range procs {
		set(p)
	}
	return ResultNone()
}

func (vm *VM) traceIndent() string {
	return strings.Repeat("  ", vm.traceDepth)
}

// traceEntry prints ( name inputs... ) and indents nested trace output.
func (vm *VM) traceEntry(p *Procedure, args []Value) {
	var sb strings.Builder
	sb.WriteString(vm.traceIndent())
	sb.WriteString("( ")
	sb.WriteString(vm.heap.Text(p.Name))
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(vm.Literal(a))
	}
	sb.WriteString(" )\n")
	vm.writer.Write(sb.String())
	vm.traceDepth++
}

func (vm *VM) traceExit(p *Procedure, r Result) {
	if vm.traceDepth > 0 {
		vm.traceDepth--
	}
	name := vm.heap.Text(p.Name)
	switch r.status {
	case StatusOK:
		vm.writer.Write(vm.traceIndent() + name + " outputs " + vm.Literal(r.value) + "\n")
	case StatusNone:
		vm.writer.Write(vm.traceIndent() + name + " stops\n")
	}
}

// stepLine shows one body line and waits for a key on the console.
func (vm *VM) stepLine(p *Procedure, line int) {
	lines := vm.bodyLines(p.Body)
	if line >= len(lines) {
		return
	}
	vm.writer.Write(vm.formatLine(lines[line]) + " >>>")
	vm.writer.Flush()
	vm.console.ReadChar()
	vm.writer.Write("\n")
}
