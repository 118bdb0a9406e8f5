package vm

import (
	"errors"
	"path"
	"sort"

	"github.com/chazu/turtle/device"
)

// ---------------------------------------------------------------------------
// File primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerFilePrimitives() {
	vm.fixed("open", 1, primOpen)
	vm.fixed("close", 1, primClose)
	vm.fixed("closeall", 0, func(vm *VM, name string, args []Value) Result {
		vm.closeAll()
		return ResultNone()
	})
	vm.fixed("setread", 1, primSetRead)
	vm.fixed("setwrite", 1, primSetWrite)
	vm.fixed("reader", 0, func(vm *VM, name string, args []Value) Result {
		return ResultOK(vm.streamName(vm.reader))
	})
	vm.fixed("writer", 0, func(vm *VM, name string, args []Value) Result {
		return ResultOK(vm.streamName(vm.writer))
	})
	vm.fixed("readpos", 0, primReadPos)
	vm.fixed("setreadpos", 1, primSetReadPos)
	vm.fixed("writepos", 0, primWritePos)
	vm.fixed("setwritepos", 1, primSetWritePos)
	vm.fixed("filelen", 1, primFileLen)
	vm.fixed("eofp", 0, primEofp, "eof?")
	vm.fixed("filep", 1, primFilep, "file?")
	vm.fixed("dirp", 1, primDirp, "dir?")
	vm.fixed("erasefile", 1, primEraseFile, "erf")
	vm.fixed("createdir", 1, primCreateDir)
	vm.fixed("erasedir", 1, primEraseDir)
	vm.fixed("rename", 2, primRename)
	vm.register("files", 0, 0, 1, listing(device.FilesOnly))
	vm.register("directories", 0, 0, 1, listing(device.DirsOnly))
	vm.fixed("prefix", 0, func(vm *VM, name string, args []Value) Result {
		return ResultOK(vm.wordValue(vm.prefix))
	})
	vm.fixed("setprefix", 1, primSetPrefix)
	vm.fixed("load", 1, primLoad)
	vm.fixed("save", 1, primSave)
}

// ---------------------------------------------------------------------------
// Paths and errors
// ---------------------------------------------------------------------------

// cleanPrefix normalises a directory to an absolute slash path.
func cleanPrefix(p string) string {
	return path.Clean("/" + p)
}

// resolve turns a file name into an absolute path under the prefix.
func (vm *VM) resolve(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Join(vm.prefix, name)
}

// fileError translates a storage error into a Logo error.
func (vm *VM) fileError(proc, file string, err error) Result {
	switch {
	case errors.Is(err, device.ErrNotFound):
		return ResultErrorArg(ErrFileNotFound, proc, file)
	case errors.Is(err, device.ErrUnsupported):
		return ResultErrorProc(ErrUnsupported, proc)
	case errors.Is(err, device.ErrDiskFull):
		return ResultError(ErrDiskFull)
	}
	log.Warningf("%s %s: %v", proc, file, err)
	return ResultErrorProc(ErrFileSystem, proc)
}

func (vm *VM) streamError(proc string, err error) Result {
	return vm.fileError(proc, vm.streamFile(vm.writer), err)
}

// streamFile names an open stream for messages; the console has no name.
func (vm *VM) streamFile(s device.Stream) string {
	if s == vm.console {
		return ""
	}
	return s.Name()
}

func (vm *VM) streamName(s device.Stream) Value {
	if s == vm.console {
		return List(Nil)
	}
	return vm.wordValue(s.Name())
}

func (vm *VM) fileArg(name string, v Value) (string, string, Result, bool) {
	text, ok := vm.wordText(v)
	if !ok || text == "" {
		return "", "", vm.doesntLike(name, v), false
	}
	return text, vm.resolve(text), ResultNone(), true
}

// openForRead opens an existing file. The stream is nil when r holds an
// error.
func (vm *VM) openForRead(proc, file string) (device.Stream, Result) {
	p := vm.resolve(file)
	if !vm.storage.FileExists(p) {
		return nil, ResultErrorArg(ErrFileNotFound, proc, file)
	}
	s, err := vm.storage.Open(p)
	if err != nil {
		return nil, vm.fileError(proc, file, err)
	}
	return s, ResultNone()
}

// closeAll closes every open file and points reader and writer back at the
// console.
func (vm *VM) closeAll() {
	for p, s := range vm.files {
		if err := s.Close(); err != nil {
			log.Warningf("closing %s: %v", p, err)
		}
		delete(vm.files, p)
	}
	vm.reader, vm.writer = vm.console, vm.console
}

// openStream finds an open file by name; [] names the console.
func (vm *VM) openStream(name string, v Value) (device.Stream, Result, bool) {
	if v.IsList() && v.node == Nil {
		return vm.console, ResultNone(), true
	}
	file, p, r, ok := vm.fileArg(name, v)
	if !ok {
		return nil, r, false
	}
	s, ok := vm.files[p]
	if !ok {
		return nil, ResultErrorArg(ErrFileNotOpen, name, file), false
	}
	return s, ResultNone(), true
}

// ---------------------------------------------------------------------------
// Opening and selecting streams
// ---------------------------------------------------------------------------

func primOpen(vm *VM, name string, args []Value) Result {
	file, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	if _, open := vm.files[p]; open {
		return ResultErrorArg(ErrFileAlreadyOpen, name, file)
	}
	s, err := vm.storage.Open(p)
	if err != nil {
		return vm.fileError(name, file, err)
	}
	vm.files[p] = s
	return ResultNone()
}

func primClose(vm *VM, name string, args []Value) Result {
	file, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	s, open := vm.files[p]
	if !open {
		return ResultErrorArg(ErrFileNotOpen, name, file)
	}
	delete(vm.files, p)
	if vm.reader == s {
		vm.reader = vm.console
	}
	if vm.writer == s {
		vm.writer = vm.console
	}
	if err := s.Close(); err != nil {
		return vm.fileError(name, file, err)
	}
	return ResultNone()
}

func primSetRead(vm *VM, name string, args []Value) Result {
	s, r, ok := vm.openStream(name, args[0])
	if !ok {
		return r
	}
	vm.reader = s
	return ResultNone()
}

func primSetWrite(vm *VM, name string, args []Value) Result {
	s, r, ok := vm.openStream(name, args[0])
	if !ok {
		return r
	}
	vm.writer.Flush()
	vm.writer = s
	return ResultNone()
}

func primReadPos(vm *VM, name string, args []Value) Result {
	pos, err := vm.reader.ReadPos()
	if err != nil {
		return vm.fileError(name, vm.streamFile(vm.reader), err)
	}
	return ResultOK(Number(float32(pos)))
}

func primWritePos(vm *VM, name string, args []Value) Result {
	pos, err := vm.writer.WritePos()
	if err != nil {
		return vm.streamError(name, err)
	}
	return ResultOK(Number(float32(pos)))
}

func primSetReadPos(vm *VM, name string, args []Value) Result {
	pos, ok := vm.integer(args[0])
	if !ok || pos < 0 {
		return vm.doesntLike(name, args[0])
	}
	if err := vm.reader.SetReadPos(int64(pos)); err != nil {
		if errors.Is(err, device.ErrUnsupported) {
			return vm.fileError(name, "", err)
		}
		return vm.doesntLike(name, args[0])
	}
	return ResultNone()
}

func primSetWritePos(vm *VM, name string, args []Value) Result {
	pos, ok := vm.integer(args[0])
	if !ok || pos < 0 {
		return vm.doesntLike(name, args[0])
	}
	if err := vm.writer.SetWritePos(int64(pos)); err != nil {
		if errors.Is(err, device.ErrUnsupported) {
			return vm.fileError(name, "", err)
		}
		return vm.doesntLike(name, args[0])
	}
	return ResultNone()
}

func primEofp(vm *VM, name string, args []Value) Result {
	return ResultOK(vm.boolWord(!vm.reader.CanRead()))
}

// ---------------------------------------------------------------------------
// Files and directories
// ---------------------------------------------------------------------------

func primFileLen(vm *VM, name string, args []Value) Result {
	file, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	var (
		n   int64
		err error
	)
	if s, open := vm.files[p]; open {
		n, err = s.Length()
	} else {
		n, err = vm.storage.FileSize(p)
	}
	if err != nil {
		return vm.fileError(name, file, err)
	}
	return ResultOK(Number(float32(n)))
}

func primFilep(vm *VM, name string, args []Value) Result {
	_, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	return ResultOK(vm.boolWord(vm.storage.FileExists(p)))
}

func primDirp(vm *VM, name string, args []Value) Result {
	_, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	return ResultOK(vm.boolWord(vm.storage.DirExists(p)))
}

func primEraseFile(vm *VM, name string, args []Value) Result {
	file, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	if _, open := vm.files[p]; open {
		return ResultErrorArg(ErrFileAlreadyOpen, name, file)
	}
	if err := vm.storage.FileDelete(p); err != nil {
		return vm.fileError(name, file, err)
	}
	return ResultNone()
}

func primCreateDir(vm *VM, name string, args []Value) Result {
	file, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	if err := vm.storage.DirCreate(p); err != nil {
		return vm.fileError(name, file, err)
	}
	return ResultNone()
}

func primEraseDir(vm *VM, name string, args []Value) Result {
	file, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	if err := vm.storage.DirDelete(p); err != nil {
		return vm.fileError(name, file, err)
	}
	return ResultNone()
}

func primRename(vm *VM, name string, args []Value) Result {
	from, src, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	_, dst, r, ok := vm.fileArg(name, args[1])
	if !ok {
		return r
	}
	if _, open := vm.files[src]; open {
		return ResultErrorArg(ErrFileAlreadyOpen, name, from)
	}
	if err := vm.storage.Rename(src, dst); err != nil {
		return vm.fileError(name, from, err)
	}
	return ResultNone()
}

// listing outputs the names in a directory, the prefix by default.
func listing(kind device.EntryKind) primFunc {
	return func(vm *VM, name string, args []Value) Result {
		dir, p := vm.prefix, vm.prefix
		if len(args) == 1 {
			var r Result
			var ok bool
			if dir, p, r, ok = vm.fileArg(name, args[0]); !ok {
				return r
			}
		}
		var names []string
		err := vm.storage.ListDirectory(p, func(e device.Entry) bool {
			names = append(names, e.Name)
			return true
		}, kind)
		if err != nil {
			return vm.fileError(name, dir, err)
		}
		sort.Strings(names)
		items := make([]Node, len(names))
		for i, n := range names {
			items[i] = vm.heap.Atom(n)
		}
		return ResultOK(List(vm.heap.ListFrom(items)))
	}
}

func primSetPrefix(vm *VM, name string, args []Value) Result {
	dir, p, r, ok := vm.fileArg(name, args[0])
	if !ok {
		return r
	}
	if !vm.storage.DirExists(p) {
		return ResultErrorArg(ErrFileNotFound, name, dir)
	}
	vm.prefix = cleanPrefix(p)
	return ResultNone()
}
