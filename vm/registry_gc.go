package vm

import (
	"time"

	"github.com/dustin/go-humanize"
)

// ---------------------------------------------------------------------------
// Garbage collection of the node heap
// ---------------------------------------------------------------------------

// nodeBytes is the storage one cons cell takes: a car and a cdr word.
const nodeBytes = 8

// CollectStats describes one collection.
type CollectStats struct {
	FreeCells     int
	AtomsReleased int
	Duration      time.Duration
}

func (vm *VM) registerWorkspacePrimitives() {
	vm.fixed("nodes", 0, primNodes)
	vm.fixed("recycle", 0, func(vm *VM, name string, args []Value) Result {
		vm.recycle = true
		return ResultNone()
	})
}

// primNodes outputs [free used capacity] in cells.
func primNodes(vm *VM, name string, args []Value) Result {
	free, capacity := vm.heap.FreeCells(), vm.heap.Capacity()
	return ResultOK(vm.numberList(free, capacity-free, capacity))
}

// canCollect reports whether no evaluation holds nodes outside the roots.
func (vm *VM) canCollect() bool {
	return vm.scopes.Depth() == 0 && vm.pauseDepth == 0 && len(vm.callStack) == 0
}

// maybeCollect runs a collection between top-level instructions when the
// heap is low or recycle asked for one.
func (vm *VM) maybeCollect() {
	if !vm.canCollect() {
		return
	}
	if !vm.recycle && vm.heap.FreeCells() >= vm.gcThreshold {
		return
	}
	vm.recycle = false
	vm.Collect()
}

// Collect reclaims every cell and atom not reachable from the workspace. It
// must only be called between top-level instructions.
func (vm *VM) Collect() CollectStats {
	start := time.Now()
	clear(vm.parsed)
	vm.thrown = NoValue()

	free, atoms := vm.heap.Collect(vm.markRoots)
	stats := CollectStats{
		FreeCells:     free,
		AtomsReleased: atoms,
		Duration:      time.Since(start),
	}
	log.Debugf("collected: %s free of %s, %d atoms released in %s",
		humanize.Bytes(uint64(free*nodeBytes)),
		humanize.Bytes(uint64(vm.heap.Capacity()*nodeBytes)),
		atoms, stats.Duration)
	return stats
}

func (vm *VM) markRoots(mark func(Node)) {
	vm.scopes.markRoots(mark)
	for key, p := range vm.procs {
		mark(key)
		mark(p.Name)
		mark(p.Body)
		for _, param := range p.Params {
			mark(param)
		}
	}
	vm.markPlists(mark)
}
