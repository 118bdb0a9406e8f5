package vm

import (
	"fmt"
	"sort"

	"github.com/chazu/turtle/arena"
	"github.com/chazu/turtle/device"
	"github.com/tliron/commonlog"
	"golang.org/x/text/cases"
)

var log = commonlog.GetLogger("logo.vm")

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config sizes the interpreter and supplies its collaborators. Zero fields
// get defaults; a nil collaborator gets an in-memory or host stand-in.
type Config struct {
	ArenaBytes int // procedure frame arena
	HeapCells  int // cons cells in the node heap
	MaxDepth   int // nested procedure calls before STACK_OVERFLOW

	Console  device.Stream
	Storage  device.Storage
	Hardware device.Hardware
	Prefix   string

	// Interactive makes the top-level loop print prompts and "defined"
	// messages.
	Interactive bool
}

const (
	DefaultArenaBytes = 64 * 1024
	DefaultHeapCells  = 64 * 1024
	DefaultMaxDepth   = 1000
)

// ---------------------------------------------------------------------------
// VM: one Logo workspace
// ---------------------------------------------------------------------------

// VM is a Logo interpreter instance. It is single-threaded; only the
// hardware Signals may be touched from another goroutine.
type VM struct {
	heap   *Heap
	arena  *arena.Arena
	scopes *Scopes
	fold   cases.Caser

	prims  map[string]*primitive
	procs  map[Node]*Procedure
	plists map[Node]*propertyList
	parsed map[Node]Node // run-parse cache, cleared by collection

	console  device.Stream
	reader   device.Stream
	writer   device.Stream
	files    map[string]device.Stream
	storage  device.Storage
	hw       device.Hardware
	prefix   string
	conns    map[int]device.Conn
	nextConn int

	interactive bool
	maxDepth    int

	// evaluation state
	callStack    []*Procedure
	repcounts    []int
	lastNoneProc string
	lastError    *ErrorInfo
	thrown       Value
	definition   *pendingDefinition
	pauseDepth   int
	continued    bool
	traceDepth   int

	recycle     bool
	gcThreshold int

	// well-known atoms
	newline    Node
	unaryMinus Node
	minus      Node
	openParen  Node
	closeParen Node
	trueWord   Node
	falseWord  Node
}

// NewVM creates an interpreter with the primitive set installed.
func NewVM(cfg Config) (*VM, error) {
	if cfg.ArenaBytes <= 0 {
		cfg.ArenaBytes = DefaultArenaBytes
	}
	if cfg.HeapCells <= 0 {
		cfg.HeapCells = DefaultHeapCells
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}

	a, err := arena.New(make([]byte, cfg.ArenaBytes))
	if err != nil {
		return nil, fmt.Errorf("creating frame arena: %w", err)
	}

	if cfg.Console == nil {
		cfg.Console, _ = device.NewBufferConsole("")
	}
	if cfg.Storage == nil {
		s, err := device.OpenSQLiteStorage(":memory:")
		if err != nil {
			return nil, fmt.Errorf("creating scratch storage: %w", err)
		}
		cfg.Storage = s
	}
	if cfg.Hardware == nil {
		cfg.Hardware = device.NewHost()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "/"
	}

	vm := &VM{
		heap:        NewHeap(cfg.HeapCells),
		arena:       a,
		fold:        cases.Fold(),
		prims:       make(map[string]*primitive),
		procs:       make(map[Node]*Procedure),
		plists:      make(map[Node]*propertyList),
		parsed:      make(map[Node]Node),
		console:     cfg.Console,
		reader:      cfg.Console,
		writer:      cfg.Console,
		files:       make(map[string]device.Stream),
		storage:     cfg.Storage,
		hw:          cfg.Hardware,
		prefix:      cleanPrefix(cfg.Prefix),
		conns:       make(map[int]device.Conn),
		nextConn:    1,
		interactive: cfg.Interactive,
		maxDepth:    cfg.MaxDepth,
		gcThreshold: cfg.HeapCells / 8,
	}
	vm.scopes = NewScopes(a)

	vm.newline = vm.heap.PinnedAtom("\n")
	vm.unaryMinus = vm.heap.PinnedAtom(unaryMinusText)
	vm.minus = vm.heap.PinnedAtom("-")
	vm.openParen = vm.heap.PinnedAtom("(")
	vm.closeParen = vm.heap.PinnedAtom(")")
	vm.trueWord = vm.heap.PinnedAtom("true")
	vm.falseWord = vm.heap.PinnedAtom("false")

	vm.registerWordPrimitives()
	vm.registerArithmeticPrimitives()
	vm.registerLogicPrimitives()
	vm.registerVariablePrimitives()
	vm.registerControlPrimitives()
	vm.registerProcedurePrimitives()
	vm.registerIOPrimitives()
	vm.registerFilePrimitives()
	vm.registerDebugPrimitives()
	vm.registerWorkspacePrimitives()
	vm.registerHardwarePrimitives()

	log.Debugf("vm ready: %d primitives, %d cells, %d arena words",
		len(vm.prims), vm.heap.Capacity(), a.Capacity())
	return vm, nil
}

// Heap returns the node heap.
func (vm *VM) Heap() *Heap { return vm.heap }

// Arena returns the frame arena.
func (vm *VM) Arena() *arena.Arena { return vm.arena }

// Scopes returns the variable scope stack.
func (vm *VM) Scopes() *Scopes { return vm.scopes }

// Signals returns the interrupt flags polled by the evaluator.
func (vm *VM) Signals() *device.Signals { return vm.hw.Signals() }

// Close closes every open file and connection.
func (vm *VM) Close() error {
	vm.closeAll()
	for id, c := range vm.conns {
		c.Close()
		delete(vm.conns, id)
	}
	return vm.console.Flush()
}

// ---------------------------------------------------------------------------
// Names
// ---------------------------------------------------------------------------

func (vm *VM) foldName(s string) string { return vm.fold.String(s) }

// key returns the case-folded atom used to index procedures, variables and
// property lists.
func (vm *VM) key(name string) Node { return vm.heap.Atom(vm.foldName(name)) }

func (vm *VM) sameWord(a, b string) bool { return vm.foldName(a) == vm.foldName(b) }

// boolWord returns the word true or false.
func (vm *VM) boolWord(b bool) Value {
	if b {
		return Word(vm.trueWord)
	}
	return Word(vm.falseWord)
}

// Define installs a user procedure. It fails for primitive names.
func (vm *VM) Define(name string, params []string, body Node) Result {
	if _, ok := vm.prims[vm.foldName(name)]; ok {
		return ResultErrorArg(ErrIsPrimitive, "define", name)
	}
	p := &Procedure{Name: vm.heap.Atom(name), Body: body}
	for _, param := range params {
		p.Params = append(p.Params, vm.heap.Atom(param))
	}
	vm.procs[vm.key(name)] = p
	log.Debugf("defined %s", name)
	return ResultNone()
}

// Procedure returns the user procedure called name.
func (vm *VM) Procedure(name string) (*Procedure, bool) {
	p, ok := vm.procs[vm.key(name)]
	return p, ok
}

// ProcedureNames returns the user procedure names in sorted order.
func (vm *VM) ProcedureNames() []string {
	names := make([]string, 0, len(vm.procs))
	for _, p := range vm.procs {
		names = append(names, vm.heap.Text(p.Name))
	}
	sort.Strings(names)
	return names
}

// Stats is a snapshot of memory use.
type Stats struct {
	FreeCells  int
	Cells      int
	Atoms      int
	ArenaUsed  int // bytes
	ArenaMax   int // bytes
	Procedures int
	Globals    int
}

// Stats reports memory use.
func (vm *VM) Stats() Stats {
	return Stats{
		FreeCells:  vm.heap.FreeCells(),
		Cells:      vm.heap.Capacity(),
		Atoms:      vm.heap.Atoms().Len(),
		ArenaUsed:  vm.arena.UsedBytes(),
		ArenaMax:   vm.arena.CapacityBytes(),
		Procedures: len(vm.procs),
		Globals:    len(vm.scopes.GlobalNames(vm.heap)),
	}
}
