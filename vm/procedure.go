package vm

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Defining procedures: to ... end, define and text
// ---------------------------------------------------------------------------

// pendingDefinition collects the lines typed after "to" until "end". Lines
// stay text until the definition closes, so collection can run meanwhile.
type pendingDefinition struct {
	name   string
	params []string
	lines  []string
}

func (vm *VM) registerProcedurePrimitives() {
	vm.prims["to"] = &primitive{name: "to", form: formTo}
	vm.prims["end"] = &primitive{name: "end", form: func(vm *VM, c *cursor) Result {
		return ResultErrorProc(ErrCantUseToplevel, "end")
	}}
	vm.fixed("define", 2, primDefine)
	vm.fixed("text", 1, primText)
	vm.fixed("erase", 1, primErase, "er")
	vm.fixed("procedures", 0, primProcedures)
	vm.fixed("po", 1, primPo)
	vm.fixed("pots", 0, primPots)
	vm.fixed("erall", 0, primErall)
	vm.fixed("erps", 0, primErps)
	vm.fixed("erns", 0, primErns)
}

// formTo starts a definition from the rest of the line: to name :a :b.
func formTo(vm *VM, c *cursor) Result {
	if len(vm.callStack) > 0 || vm.scopes.Depth() > 0 {
		return ResultErrorProc(ErrCantUseProcedure, "to")
	}
	var words []string
	for {
		tok, ok := vm.peek(c)
		if !ok {
			break
		}
		vm.advance(c)
		if !tok.IsAtom() {
			return ResultErrorArg(ErrDoesntLikeInput, "to", vm.Show(List(tok)))
		}
		words = append(words, vm.heap.Text(tok))
	}
	if len(words) == 0 {
		return ResultErrorProc(ErrNotEnoughInputs, "to")
	}

	name := words[0]
	if !vm.isCallable(vm.heap.Atom(name)) {
		return ResultErrorArg(ErrDoesntLikeInput, "to", name)
	}
	if vm.IsPrimitive(name) {
		return ResultErrorArg(ErrIsPrimitive, "", name)
	}
	if _, ok := vm.Procedure(name); ok {
		return ResultErrorArg(ErrAlreadyDefined, "", name)
	}
	var params []string
	for _, w := range words[1:] {
		p := strings.TrimLeft(w, `:"`)
		if p == "" {
			return ResultErrorArg(ErrDoesntLikeInput, "to", w)
		}
		params = append(params, p)
	}
	vm.definition = &pendingDefinition{name: name, params: params}
	return ResultNone()
}

func (vm *VM) continueDefinition(text string) Result {
	d := vm.definition
	if !vm.sameWord(strings.TrimSpace(text), "end") {
		d.lines = append(d.lines, text)
		return ResultNone()
	}
	vm.definition = nil

	lists := make([]Node, 0, len(d.lines))
	for _, line := range d.lines {
		list, r := vm.parseInstruction(line)
		if r.status != StatusNone {
			return r
		}
		lists = append(lists, list)
	}
	body, ok := vm.joinLines(lists)
	if !ok {
		return ResultError(ErrOutOfSpace)
	}
	if r := vm.Define(d.name, d.params, body); r.status != StatusNone {
		return r
	}
	if vm.interactive {
		vm.writer.Write(d.name + " defined\n")
	}
	return ResultNone()
}

// joinLines builds a flat body from line lists, with the newline marker
// between lines.
func (vm *VM) joinLines(lines []Node) (Node, bool) {
	var items []Node
	for i, line := range lines {
		if i > 0 {
			items = append(items, vm.newline)
		}
		items = append(items, vm.heap.Items(line)...)
	}
	body := vm.heap.ListFrom(items)
	return body, !vm.heap.TakeExhausted()
}

// primDefine installs a procedure from text form: [[params] [line] ...].
func primDefine(vm *VM, name string, args []Value) Result {
	procName, ok := vm.wordText(args[0])
	if !ok || !vm.isCallable(vm.heap.Atom(procName)) {
		return vm.doesntLike(name, args[0])
	}
	def, ok := vm.listNode(args[1])
	if !ok || def == Nil {
		return vm.doesntLike(name, args[1])
	}
	paramList := vm.heap.Car(def)
	if !paramList.IsList() {
		return vm.doesntLike(name, args[1])
	}
	var params []string
	for _, p := range vm.heap.Items(paramList) {
		if !p.IsAtom() {
			return vm.doesntLike(name, args[1])
		}
		params = append(params, strings.TrimLeft(vm.heap.Text(p), `:"`))
	}
	lines := vm.heap.Items(vm.heap.Cdr(def))
	for _, l := range lines {
		if !l.IsList() {
			return vm.doesntLike(name, args[1])
		}
	}
	body, ok := vm.joinLines(lines)
	if !ok {
		return ResultError(ErrOutOfSpace)
	}
	if vm.IsPrimitive(procName) {
		return ResultErrorArg(ErrIsPrimitive, name, procName)
	}
	return vm.Define(procName, params, body)
}

// primText outputs a procedure in the form define accepts.
func primText(vm *VM, name string, args []Value) Result {
	procs, r := vm.procedureArgs(name, args[0])
	if procs == nil {
		return r
	}
	if len(procs) != 1 {
		return vm.doesntLike(name, args[0])
	}
	p := procs[0]
	items := []Node{vm.heap.ListFrom(p.Params)}
	for _, line := range vm.bodyLines(p.Body) {
		items = append(items, vm.heap.ListFrom(line))
	}
	return ResultOK(List(vm.heap.ListFrom(items)))
}

func primErase(vm *VM, name string, args []Value) Result {
	procs, r := vm.procedureArgs(name, args[0])
	if procs == nil {
		return r
	}
	for _, p := range procs {
		delete(vm.procs, vm.key(vm.heap.Text(p.Name)))
		log.Debugf("erased %s", vm.heap.Text(p.Name))
	}
	return ResultNone()
}

func primProcedures(vm *VM, name string, args []Value) Result {
	names := vm.ProcedureNames()
	items := make([]Node, len(names))
	for i, n := range names {
		items[i] = vm.heap.Atom(n)
	}
	return ResultOK(List(vm.heap.ListFrom(items)))
}

func primPo(vm *VM, name string, args []Value) Result {
	procs, r := vm.procedureArgs(name, args[0])
	if procs == nil {
		return r
	}
	for _, p := range procs {
		if err := vm.writer.Write(vm.ProcedureText(p)); err != nil {
			return vm.streamError(name, err)
		}
	}
	return ResultNone()
}

func primPots(vm *VM, name string, args []Value) Result {
	for _, n := range vm.ProcedureNames() {
		p, _ := vm.Procedure(n)
		vm.writer.Write(vm.procedureTitle(p) + "\n")
	}
	return ResultNone()
}

func primErall(vm *VM, name string, args []Value) Result {
	primErps(vm, name, args)
	primErns(vm, name, args)
	clear(vm.plists)
	return ResultNone()
}

func primErps(vm *VM, name string, args []Value) Result {
	clear(vm.procs)
	return ResultNone()
}

func primErns(vm *VM, name string, args []Value) Result {
	for _, key := range vm.scopes.GlobalNames(vm.heap) {
		vm.scopes.EraseGlobal(key)
	}
	return ResultNone()
}
