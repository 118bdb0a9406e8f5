package vm

import (
	"errors"
	"time"

	"github.com/chazu/turtle/device"
)

// ---------------------------------------------------------------------------
// Hardware: power, sound, clock and network
// ---------------------------------------------------------------------------

const tcpReadTimeout = 100 * time.Millisecond

func (vm *VM) registerHardwarePrimitives() {
	vm.fixed("battery", 0, primBattery)
	vm.fixed("toot", 2, primToot)
	vm.fixed("date", 0, primDate)
	vm.fixed("time", 0, primTime)
	vm.fixed("setdate", 1, primSetDate)

	vm.fixed("network.resolve", 1, primResolve)
	vm.fixed("network.ping", 1, primPing)
	vm.register("network.ntp", 0, 0, 1, primNTP)
	vm.fixed("network.tcpopen", 2, primTCPOpen)
	vm.fixed("network.tcpclose", 1, primTCPClose)
	vm.register("network.tcpread", 1, 1, 2, primTCPRead)
	vm.fixed("network.tcpwrite", 2, primTCPWrite)
	vm.fixed("network.tcpcanread", 1, primTCPCanRead)
}

// hardwareError reports a collaborator failure. target names the remote
// end for network errors.
func (vm *VM) hardwareError(name, target string, err error) Result {
	if errors.Is(err, device.ErrUnsupported) {
		return ResultErrorProc(ErrUnsupported, name)
	}
	log.Debugf("%s %s: %v", name, target, err)
	return ResultErrorArg(ErrNetwork, name, target)
}

func (vm *VM) numberList(xs ...int) Value {
	items := make([]Node, len(xs))
	for i, x := range xs {
		items[i] = vm.heap.Atom(FormatNumber(float32(x)))
	}
	return List(vm.heap.ListFrom(items))
}

// primBattery outputs [level charging].
func primBattery(vm *VM, name string, args []Value) Result {
	level, charging, err := vm.hw.Battery()
	if err != nil {
		return vm.hardwareError(name, "", err)
	}
	items := []Node{vm.heap.Atom(FormatNumber(float32(level))), vm.boolWord(charging).node}
	return ResultOK(List(vm.heap.ListFrom(items)))
}

// primToot plays a tone: frequency in hertz, duration in 60ths of a second.
func primToot(vm *VM, name string, args []Value) Result {
	freq, ok := vm.integer(args[0])
	if !ok || freq < 0 {
		return vm.doesntLike(name, args[0])
	}
	ticks, ok := vm.number(args[1])
	if !ok || ticks < 0 {
		return vm.doesntLike(name, args[1])
	}
	if err := vm.hw.Tone(freq, int(ticks*1000/60)); err != nil {
		return vm.hardwareError(name, "", err)
	}
	return ResultNone()
}

func primDate(vm *VM, name string, args []Value) Result {
	t := vm.hw.Now()
	return ResultOK(vm.numberList(t.Year(), int(t.Month()), t.Day()))
}

func primTime(vm *VM, name string, args []Value) Result {
	t := vm.hw.Now()
	return ResultOK(vm.numberList(t.Hour(), t.Minute(), t.Second()))
}

// primSetDate sets the clock from [year month day] with optional hour,
// minute and second.
func primSetDate(vm *VM, name string, args []Value) Result {
	list, ok := vm.listNode(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	items := vm.heap.Items(list)
	if len(items) < 3 || len(items) > 6 {
		return vm.doesntLike(name, args[0])
	}
	f := make([]int, 6)
	for i, n := range items {
		x, ok := vm.integer(NodeToValue(n))
		if !ok {
			return vm.doesntLike(name, args[0])
		}
		f[i] = x
	}
	if f[1] < 1 || f[1] > 12 || f[2] < 1 || f[2] > 31 {
		return vm.doesntLike(name, args[0])
	}
	t := time.Date(f[0], time.Month(f[1]), f[2], f[3], f[4], f[5], 0, time.UTC)
	if err := vm.hw.SetTime(t); err != nil {
		return vm.hardwareError(name, "", err)
	}
	return ResultNone()
}

// ---------------------------------------------------------------------------
// Network
// ---------------------------------------------------------------------------

func primResolve(vm *VM, name string, args []Value) Result {
	host, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	addr, err := vm.hw.Resolve(host)
	if err != nil {
		return vm.hardwareError(name, host, err)
	}
	return ResultOK(vm.wordValue(addr))
}

// primPing outputs the round trip in milliseconds.
func primPing(vm *VM, name string, args []Value) Result {
	host, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	d, err := vm.hw.Ping(host)
	if err != nil {
		return vm.hardwareError(name, host, err)
	}
	return ResultOK(Number(float32(d.Seconds() * 1000)))
}

// primNTP sets the clock from a time server.
func primNTP(vm *VM, name string, args []Value) Result {
	server := "pool.ntp.org"
	if len(args) == 1 {
		s, ok := vm.wordText(args[0])
		if !ok {
			return vm.doesntLike(name, args[0])
		}
		server = s
	}
	t, err := vm.hw.NTP(server)
	if err != nil {
		return vm.hardwareError(name, server, err)
	}
	if err := vm.hw.SetTime(t); err != nil {
		return vm.hardwareError(name, server, err)
	}
	return ResultNone()
}

// primTCPOpen connects and outputs a connection number.
func primTCPOpen(vm *VM, name string, args []Value) Result {
	host, ok := vm.wordText(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	port, ok := vm.integer(args[1])
	if !ok || port <= 0 || port > 65535 {
		return vm.doesntLike(name, args[1])
	}
	c, err := vm.hw.Dial(host, port)
	if err != nil {
		return vm.hardwareError(name, host, err)
	}
	id := vm.nextConn
	vm.nextConn++
	vm.conns[id] = c
	return ResultOK(Number(float32(id)))
}

func (vm *VM) conn(name string, v Value) (int, device.Conn, Result, bool) {
	id, ok := vm.integer(v)
	if !ok {
		return 0, nil, vm.doesntLike(name, v), false
	}
	c, ok := vm.conns[id]
	if !ok {
		return 0, nil, vm.doesntLike(name, v), false
	}
	return id, c, ResultNone(), true
}

func primTCPClose(vm *VM, name string, args []Value) Result {
	id, c, r, ok := vm.conn(name, args[0])
	if !ok {
		return r
	}
	delete(vm.conns, id)
	if err := c.Close(); err != nil {
		return vm.hardwareError(name, FormatNumber(float32(id)), err)
	}
	return ResultNone()
}

// primTCPRead outputs what arrived, up to an optional byte count.
func primTCPRead(vm *VM, name string, args []Value) Result {
	id, c, r, ok := vm.conn(name, args[0])
	if !ok {
		return r
	}
	limit := 1024
	if len(args) == 2 {
		if limit, ok = vm.integer(args[1]); !ok || limit <= 0 {
			return vm.doesntLike(name, args[1])
		}
	}
	data, err := c.Read(limit, tcpReadTimeout)
	if err != nil && data == "" {
		return vm.hardwareError(name, FormatNumber(float32(id)), err)
	}
	return ResultOK(vm.wordValue(data))
}

// primTCPWrite sends a word, or a list as printed, and outputs the byte
// count.
func primTCPWrite(vm *VM, name string, args []Value) Result {
	id, c, r, ok := vm.conn(name, args[0])
	if !ok {
		return r
	}
	n, err := c.Write(vm.Print(args[1]))
	if err != nil {
		return vm.hardwareError(name, FormatNumber(float32(id)), err)
	}
	return ResultOK(Number(float32(n)))
}

func primTCPCanRead(vm *VM, name string, args []Value) Result {
	_, c, r, ok := vm.conn(name, args[0])
	if !ok {
		return r
	}
	return ResultOK(vm.boolWord(c.CanRead()))
}
