package vm

import (
	"github.com/dustin/go-humanize"
)

// ---------------------------------------------------------------------------
// save: writing the workspace as source
// ---------------------------------------------------------------------------

// primSave replaces a file with the workspace source: procedures, then
// variables, then property lists. Loading the file rebuilds the workspace.
func primSave(vm *VM, name string, args []Value) Result {
	file, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	if _, open := vm.files[p]; open {
		return ResultErrorArg(ErrFileAlreadyOpen, name, file)
	}
	if vm.storage.FileExists(p) {
		if err := vm.storage.FileDelete(p); err != nil {
			return vm.fileError(name, file, err)
		}
	}
	s, err := vm.storage.Open(p)
	if err != nil {
		return vm.fileError(name, file, err)
	}
	text := vm.WorkspaceText()
	if err := s.Write(text); err != nil {
		s.Close()
		return vm.fileError(name, file, err)
	}
	if err := s.Close(); err != nil {
		return vm.fileError(name, file, err)
	}
	log.Infof("saved %s (%s)", p, humanize.Bytes(uint64(len(text))))
	return ResultNone()
}
