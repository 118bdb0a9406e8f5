package vm

import "math"

// ---------------------------------------------------------------------------
// Arithmetic primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerArithmeticPrimitives() {
	vm.register("sum", 2, 0, -1, primSum)
	vm.register("product", 2, 0, -1, primProduct)
	vm.fixed("difference", 2, primDifference)
	vm.register("quotient", 2, 1, 2, primQuotient)
	vm.fixed("remainder", 2, primRemainder)
	vm.fixed("modulo", 2, primModulo)
	vm.fixed("minus", 1, primMinus)
	vm.fixed("abs", 1, unary(math.Abs))
	vm.fixed("int", 1, unary(math.Trunc))
	vm.fixed("round", 1, unary(math.Round))
	vm.fixed("sqrt", 1, primSqrt)
	vm.fixed("power", 2, primPower)
	vm.fixed("exp", 1, unary(math.Exp))
	vm.fixed("ln", 1, logarithm(math.Log))
	vm.fixed("log10", 1, logarithm(math.Log10))
	vm.fixed("sin", 1, unary(func(x float64) float64 { return math.Sin(radians(x)) }))
	vm.fixed("cos", 1, unary(func(x float64) float64 { return math.Cos(radians(x)) }))
	vm.fixed("tan", 1, unary(func(x float64) float64 { return math.Tan(radians(x)) }))
	vm.register("arctan", 1, 1, 2, primArctan)
	vm.register("random", 1, 1, 2, primRandom)
	vm.fixed("pi", 0, func(vm *VM, name string, args []Value) Result {
		return ResultOK(Number(math.Pi))
	})

	vm.fixed("lessp", 2, comparison("<"), "less?")
	vm.fixed("greaterp", 2, comparison(">"), "greater?")
	vm.fixed("lessequalp", 2, comparison("<="), "lessequal?")
	vm.fixed("greaterequalp", 2, comparison(">="), "greaterequal?")
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// numbers converts every input, failing on the first that isn't a number.
func (vm *VM) numbers(name string, args []Value) ([]float64, Result, bool) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, ok := vm.number(a)
		if !ok {
			return nil, vm.doesntLike(name, a), false
		}
		out[i] = float64(f)
	}
	return out, ResultNone(), true
}

// numberResult wraps f, reporting results outside the float32 range.
func numberResult(name string, f float64) Result {
	n, ok := checkNumber(f)
	if !ok {
		return ResultErrorProc(ErrOverflow, name)
	}
	return ResultOK(Number(n))
}

func unary(fn func(float64) float64) primFunc {
	return func(vm *VM, name string, args []Value) Result {
		xs, r, ok := vm.numbers(name, args)
		if !ok {
			return r
		}
		return numberResult(name, fn(xs[0]))
	}
}

func logarithm(fn func(float64) float64) primFunc {
	return func(vm *VM, name string, args []Value) Result {
		xs, r, ok := vm.numbers(name, args)
		if !ok {
			return r
		}
		if xs[0] <= 0 {
			return vm.doesntLike(name, args[0])
		}
		return numberResult(name, fn(xs[0]))
	}
}

func primSum(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return numberResult(name, total)
}

func primProduct(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	total := 1.0
	for _, x := range xs {
		total *= x
	}
	return numberResult(name, total)
}

func primDifference(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	return numberResult(name, xs[0]-xs[1])
}

// primQuotient divides; with one input it gives the reciprocal.
func primQuotient(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	if len(xs) == 1 {
		xs = []float64{1, xs[0]}
	}
	if xs[1] == 0 {
		return ResultErrorProc(ErrDivideByZero, name)
	}
	return numberResult(name, xs[0]/xs[1])
}

// primRemainder takes the sign of the dividend.
func primRemainder(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	if xs[1] == 0 {
		return ResultErrorProc(ErrDivideByZero, name)
	}
	return numberResult(name, math.Mod(xs[0], xs[1]))
}

// primModulo takes the sign of the divisor.
func primModulo(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	if xs[1] == 0 {
		return ResultErrorProc(ErrDivideByZero, name)
	}
	m := math.Mod(xs[0], xs[1])
	if m != 0 && (m < 0) != (xs[1] < 0) {
		m += xs[1]
	}
	return numberResult(name, m)
}

func primMinus(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	return numberResult(name, -xs[0])
}

func primSqrt(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	if xs[0] < 0 {
		return vm.doesntLike(name, args[0])
	}
	return numberResult(name, math.Sqrt(xs[0]))
}

func primPower(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	p := math.Pow(xs[0], xs[1])
	if math.IsNaN(p) {
		return vm.doesntLike(name, args[1])
	}
	return numberResult(name, p)
}

// primArctan gives degrees. (arctan x y) is the angle of the point (x, y).
func primArctan(vm *VM, name string, args []Value) Result {
	xs, r, ok := vm.numbers(name, args)
	if !ok {
		return r
	}
	var rad float64
	if len(xs) == 2 {
		rad = math.Atan2(xs[1], xs[0])
	} else {
		rad = math.Atan(xs[0])
	}
	return numberResult(name, rad*180/math.Pi)
}

// primRandom outputs a whole number in [0, n), or in [lo, hi] with two
// inputs.
func primRandom(vm *VM, name string, args []Value) Result {
	lo, hi := 0, 0
	n, ok := vm.integer(args[0])
	if !ok {
		return vm.doesntLike(name, args[0])
	}
	if len(args) == 2 {
		m, ok := vm.integer(args[1])
		if !ok || m < n {
			return vm.doesntLike(name, args[1])
		}
		lo, hi = n, m+1
	} else {
		if n <= 0 {
			return vm.doesntLike(name, args[0])
		}
		hi = n
	}
	span := uint32(hi - lo)
	return ResultOK(Number(float32(lo + int(vm.hw.Random()%span))))
}

func comparison(op string) primFunc {
	return func(vm *VM, name string, args []Value) Result {
		xs, r, ok := vm.numbers(name, args)
		if !ok {
			return r
		}
		return ResultOK(vm.boolWord(compare(op, xs[0], xs[1])))
	}
}

func compare(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

// applyInfix evaluates one infix operator on evaluated operands. The
// operator's text names it in error messages.
func (vm *VM) applyInfix(op string, a, b Value) Result {
	switch op {
	case "=":
		return ResultOK(vm.boolWord(vm.heap.ValuesEqual(a, b, vm.foldName)))
	case "<>":
		return ResultOK(vm.boolWord(!vm.heap.ValuesEqual(a, b, vm.foldName)))
	}
	xs, r, ok := vm.numbers(op, []Value{a, b})
	if !ok {
		return r
	}
	x, y := xs[0], xs[1]
	switch op {
	case "+":
		return numberResult(op, x+y)
	case "-":
		return numberResult(op, x-y)
	case "*":
		return numberResult(op, x*y)
	case "/":
		if y == 0 {
			return ResultErrorProc(ErrDivideByZero, op)
		}
		return numberResult(op, x/y)
	}
	return ResultOK(vm.boolWord(compare(op, x, y)))
}
