package vm

import "sort"

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

func (vm *VM) registerVariablePrimitives() {
	vm.fixed("make", 2, primMake)
	vm.fixed("name", 2, func(vm *VM, name string, args []Value) Result {
		return primMake(vm, name, []Value{args[1], args[0]})
	})
	vm.register("local", 1, 1, -1, primLocal)
	vm.fixed("localmake", 2, primLocalMake)
	vm.fixed("thing", 1, primThing)
	vm.fixed("namep", 1, primNamep, "name?")

	vm.fixed("pprop", 3, primPprop)
	vm.fixed("gprop", 2, primGprop)
	vm.fixed("remprop", 2, primRemprop)
	vm.fixed("plist", 1, primPlist)
}

// variableName accepts a word naming a variable.
func (vm *VM) variableName(name string, v Value) (string, Result, bool) {
	text, ok := vm.wordText(v)
	if !ok || text == "" {
		return "", vm.doesntLike(name, v), false
	}
	return text, ResultNone(), true
}

func primMake(vm *VM, name string, args []Value) Result {
	varName, r, ok := vm.variableName(name, args[0])
	if !ok {
		return r
	}
	vm.scopes.Make(vm.key(varName), vm.heap.Atom(varName), args[1])
	return ResultNone()
}

// primLocal declares each named variable in the innermost frame.
func primLocal(vm *VM, name string, args []Value) Result {
	var names []string
	for _, a := range args {
		if a.IsList() {
			for _, n := range vm.heap.Items(a.node) {
				if !n.IsAtom() {
					return vm.doesntLike(name, a)
				}
				names = append(names, vm.heap.Text(n))
			}
			continue
		}
		text, r, ok := vm.variableName(name, a)
		if !ok {
			return r
		}
		names = append(names, text)
	}
	for _, n := range names {
		if !vm.scopes.Local(vm.key(n), vm.heap.Atom(n)) {
			return ResultErrorProc(ErrOutOfSpace, name)
		}
	}
	return ResultNone()
}

func primLocalMake(vm *VM, name string, args []Value) Result {
	varName, r, ok := vm.variableName(name, args[0])
	if !ok {
		return r
	}
	if !vm.scopes.SetLocal(vm.key(varName), vm.heap.Atom(varName), args[1]) {
		return ResultErrorProc(ErrOutOfSpace, name)
	}
	return ResultNone()
}

func primThing(vm *VM, name string, args []Value) Result {
	varName, r, ok := vm.variableName(name, args[0])
	if !ok {
		return r
	}
	return vm.thing(varName)
}

func primNamep(vm *VM, name string, args []Value) Result {
	text, ok := vm.wordText(args[0])
	if !ok {
		return ResultOK(vm.boolWord(false))
	}
	return ResultOK(vm.boolWord(vm.thing(text).IsReturnable()))
}

// ---------------------------------------------------------------------------
// Property lists
// ---------------------------------------------------------------------------

type property struct {
	key   Node // folded
	name  Node
	value Node
}

// propertyList keeps properties in insertion order so save output is
// stable.
type propertyList struct {
	name  Node
	props []property
}

func (pl *propertyList) find(key Node) int {
	for i, p := range pl.props {
		if p.key == key {
			return i
		}
	}
	return -1
}

func (vm *VM) sortedPlists() []*propertyList {
	out := make([]*propertyList, 0, len(vm.plists))
	for _, pl := range vm.plists {
		if len(pl.props) > 0 {
			out = append(out, pl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return vm.heap.Text(out[i].name) < vm.heap.Text(out[j].name)
	})
	return out
}

func (vm *VM) plistArgs(name string, obj, prop Value) (string, string, Result, bool) {
	o, ok := vm.wordText(obj)
	if !ok {
		return "", "", vm.doesntLike(name, obj), false
	}
	p, ok := vm.wordText(prop)
	if !ok {
		return "", "", vm.doesntLike(name, prop), false
	}
	return o, p, ResultNone(), true
}

func primPprop(vm *VM, name string, args []Value) Result {
	obj, prop, r, ok := vm.plistArgs(name, args[0], args[1])
	if !ok {
		return r
	}
	objKey := vm.key(obj)
	pl, ok := vm.plists[objKey]
	if !ok {
		pl = &propertyList{name: vm.heap.Atom(obj)}
		vm.plists[objKey] = pl
	}
	key := vm.key(prop)
	value := vm.heap.ValueToNode(args[2])
	if i := pl.find(key); i >= 0 {
		pl.props[i].value = value
	} else {
		pl.props = append(pl.props, property{key: key, name: vm.heap.Atom(prop), value: value})
	}
	return ResultNone()
}

func primGprop(vm *VM, name string, args []Value) Result {
	obj, prop, r, ok := vm.plistArgs(name, args[0], args[1])
	if !ok {
		return r
	}
	if pl, ok := vm.plists[vm.key(obj)]; ok {
		if i := pl.find(vm.key(prop)); i >= 0 {
			return ResultOK(NodeToValue(pl.props[i].value))
		}
	}
	return ResultOK(List(Nil))
}

func primRemprop(vm *VM, name string, args []Value) Result {
	obj, prop, r, ok := vm.plistArgs(name, args[0], args[1])
	if !ok {
		return r
	}
	objKey := vm.key(obj)
	if pl, ok := vm.plists[objKey]; ok {
		if i := pl.find(vm.key(prop)); i >= 0 {
			pl.props = append(pl.props[:i], pl.props[i+1:]...)
		}
		if len(pl.props) == 0 {
			delete(vm.plists, objKey)
		}
	}
	return ResultNone()
}

func primPlist(vm *VM, name string, args []Value) Result {
	obj, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	var items []Node
	if pl, ok := vm.plists[vm.key(obj)]; ok {
		for _, p := range pl.props {
			items = append(items, p.name, p.value)
		}
	}
	return ResultOK(List(vm.heap.ListFrom(items)))
}

func (vm *VM) markPlists(mark func(Node)) {
	for key, pl := range vm.plists {
		mark(key)
		mark(pl.name)
		for _, p := range pl.props {
			mark(p.key)
			mark(p.name)
			mark(p.value)
		}
	}
}
