package vm

// ---------------------------------------------------------------------------
// load: running a source file
// ---------------------------------------------------------------------------

// primLoad runs every instruction in a file. Unlike LoadFile it is called
// mid-instruction, so no collection happens while it runs.
func primLoad(vm *VM, name string, args []Value) Result {
	file, ok := vm.wordText(args[0])
	if !ok || file == "" {
		return vm.doesntLike(name, args[0])
	}
	s, r := vm.openForRead(name, file)
	if s == nil {
		return r
	}
	defer s.Close()
	log.Infof("loading %s", vm.resolve(file))
	return vm.loadStream(s, false)
}
