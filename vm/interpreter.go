package vm

// ---------------------------------------------------------------------------
// Procedures and primitives
// ---------------------------------------------------------------------------

// Procedure is a user-defined procedure.
type Procedure struct {
	Name    Node   // as written in the definition
	Params  []Node // parameter names without the colon
	Body    Node   // instruction lines joined by the newline marker
	Traced  bool
	Stepped bool
}

// Arity returns the number of inputs the procedure takes.
func (p *Procedure) Arity() int { return len(p.Params) }

type primFunc func(vm *VM, name string, args []Value) Result

// primitive is a built-in procedure. arity inputs are collected without
// parentheses; inside parentheses any count in [min, max] is accepted, with
// max < 0 meaning unlimited. A primitive with form set reads its own tokens.
type primitive struct {
	name  string
	arity int
	min   int
	max   int
	fn    primFunc
	form  func(vm *VM, c *cursor) Result
}

func (vm *VM) register(name string, arity, min, max int, fn primFunc, aliases ...string) {
	p := &primitive{name: name, arity: arity, min: min, max: max, fn: fn}
	vm.prims[name] = p
	for _, a := range aliases {
		vm.prims[a] = p
	}
}

// fixed registers a primitive that always takes exactly n inputs.
func (vm *VM) fixed(name string, n int, fn primFunc, aliases ...string) {
	vm.register(name, n, n, n, fn, aliases...)
}

// IsPrimitive reports whether name is a built-in procedure.
func (vm *VM) IsPrimitive(name string) bool {
	_, ok := vm.prims[vm.foldName(name)]
	return ok
}

// ---------------------------------------------------------------------------
// Cursor: position in a run-parsed instruction list
// ---------------------------------------------------------------------------

type cursor struct {
	pos       Node
	line      int  // newline markers passed
	lineStart bool // no instruction of the current line has run yet
}

// peek returns the next token of the current line.
func (vm *VM) peek(c *cursor) (Node, bool) {
	if !c.pos.IsPair() {
		return Nil, false
	}
	tok := vm.heap.Car(c.pos)
	if tok == vm.newline {
		return Nil, false
	}
	return tok, true
}

func (vm *VM) advance(c *cursor) Node {
	tok := vm.heap.Car(c.pos)
	c.pos = vm.heap.Cdr(c.pos)
	return tok
}

// moreTokens reports whether anything but newline markers remains.
func (vm *VM) moreTokens(c *cursor) bool {
	for n := c.pos; n.IsPair(); n = vm.heap.Cdr(n) {
		if vm.heap.Car(n) != vm.newline {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Instruction sequences
// ---------------------------------------------------------------------------

// evalList runs list as instructions. With wantValue the last instruction
// may produce a value, which becomes the result.
func (vm *VM) evalList(list Node, wantValue bool) Result {
	body, ok := vm.runparse(list)
	if !ok {
		return ResultError(ErrOutOfSpace)
	}
	return vm.evalSequence(&cursor{pos: body, lineStart: true}, wantValue, nil)
}

// evalSequence runs instructions from c until the tokens run out or a
// result other than None must propagate. proc is the running procedure
// when c walks its body, for stepping.
func (vm *VM) evalSequence(c *cursor, wantValue bool, proc *Procedure) Result {
	last := ResultNone()
	for {
		for c.pos.IsPair() && vm.heap.Car(c.pos) == vm.newline {
			c.pos = vm.heap.Cdr(c.pos)
			c.line++
			c.lineStart = true
		}
		if !c.pos.IsPair() {
			return last
		}
		if c.lineStart && proc != nil && proc.Stepped {
			vm.stepLine(proc, c.line)
		}
		c.lineStart = false

		r := vm.evalExpr(c)
		switch r.status {
		case StatusOK:
			if !wantValue || vm.moreTokens(c) {
				return ResultErrorArg(ErrDontSayWhatToDo, "", vm.Show(r.value))
			}
			last = r
		case StatusNone:
			last = r
		case StatusPause:
			if r = vm.pauseLoop(r.PauseProc()); r.status != StatusNone {
				return r
			}
			last = r
		default:
			return r
		}
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var infixPrecedence = map[string]int{
	"=": 1, "<": 1, ">": 1, "<=": 1, ">=": 1, "<>": 1,
	"+": 2, "-": 2,
	"*": 3, "/": 3,
}

// evalExpr evaluates one expression, including any trailing infix
// operators.
func (vm *VM) evalExpr(c *cursor) Result {
	return vm.evalInfix(c, 1)
}

func (vm *VM) peekInfix(c *cursor) (string, int) {
	tok, ok := vm.peek(c)
	if !ok || !tok.IsAtom() {
		return "", 0
	}
	op := vm.heap.Text(tok)
	return op, infixPrecedence[op]
}

func (vm *VM) evalInfix(c *cursor, minPrec int) Result {
	left := vm.evalUnary(c)
	for {
		op, prec := vm.peekInfix(c)
		if prec == 0 || prec < minPrec {
			return left
		}
		if left.status == StatusNone {
			return ResultErrorArg(ErrDidntOutput, vm.lastNoneProc, op)
		}
		if left.status != StatusOK {
			return left
		}
		vm.advance(c)
		if _, ok := vm.peek(c); !ok {
			return ResultErrorProc(ErrNotEnoughInputs, op)
		}
		right := vm.evalInfix(c, prec+1)
		if right.status == StatusNone {
			return ResultErrorArg(ErrDidntOutput, vm.lastNoneProc, op)
		}
		if right.status != StatusOK {
			return right
		}
		left = vm.applyInfix(op, left.value, right.value)
	}
}

func (vm *VM) evalUnary(c *cursor) Result {
	tok, ok := vm.peek(c)
	if !ok {
		return ResultError(ErrNotEnoughInputs)
	}
	if tok != vm.unaryMinus && tok != vm.minus {
		return vm.evalPrimary(c)
	}
	vm.advance(c)
	if _, ok := vm.peek(c); !ok {
		return ResultErrorProc(ErrNotEnoughInputs, "-")
	}
	r := vm.evalUnary(c)
	if r.status == StatusNone {
		return ResultErrorArg(ErrDidntOutput, vm.lastNoneProc, "-")
	}
	if r.status != StatusOK {
		return r
	}
	f, ok := vm.heap.ValueToNumber(r.value)
	if !ok {
		return vm.doesntLike("-", r.value)
	}
	return ResultOK(Number(-f))
}

func (vm *VM) evalPrimary(c *cursor) Result {
	tok := vm.advance(c)
	if !tok.IsAtom() {
		return ResultOK(List(tok))
	}
	text := vm.heap.Text(tok)
	if f, ok := ParseNumber(text); ok {
		return ResultOK(Number(f))
	}
	switch {
	case text == "":
		return ResultErrorArg(ErrNotProcedure, "", "||")
	case text[0] == '"':
		return ResultOK(Word(vm.heap.Atom(text[1:])))
	case text[0] == ':':
		return vm.thing(text[1:])
	case tok == vm.openParen:
		return vm.evalParen(c)
	case tok == vm.closeParen:
		return ResultError(ErrUnexpectedParen)
	case infixPrecedence[text] > 0:
		return ResultErrorProc(ErrNotEnoughInputs, text)
	}
	return vm.evalCall(c, text, false)
}

// isCallable reports whether tok can name a procedure.
func (vm *VM) isCallable(tok Node) bool {
	if !tok.IsAtom() || tok == vm.openParen || tok == vm.closeParen || tok == vm.unaryMinus {
		return false
	}
	text := vm.heap.Text(tok)
	if text == "" || text[0] == '"' || text[0] == ':' || infixPrecedence[text] > 0 {
		return false
	}
	_, isNum := ParseNumber(text)
	return !isNum
}

func (vm *VM) evalParen(c *cursor) Result {
	tok, ok := vm.peek(c)
	if !ok {
		return ResultError(ErrParenNotFound)
	}
	if vm.isCallable(tok) {
		vm.advance(c)
		return vm.evalCall(c, vm.heap.Text(tok), true)
	}
	r := vm.evalExpr(c)
	if r.status != StatusOK {
		return r
	}
	tok, ok = vm.peek(c)
	if !ok {
		return ResultError(ErrParenNotFound)
	}
	if tok != vm.closeParen {
		return ResultError(ErrTooMuchInParens)
	}
	vm.advance(c)
	return r
}

// thing reads a variable.
func (vm *VM) thing(name string) Result {
	if key, ok := vm.lookupKey(name); ok {
		if v, found := vm.scopes.Thing(key); found && !v.IsNone() {
			return ResultOK(v)
		}
	}
	return ResultErrorArg(ErrNoValue, "", name)
}

// lookupKey returns the folded key atom for name without interning it.
func (vm *VM) lookupKey(name string) (Node, bool) {
	id, ok := vm.heap.atoms.Lookup(vm.foldName(name))
	if !ok {
		return Nil, false
	}
	return tagAtom | Node(id), true
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// evalCall dispatches name with inputs read from c. In paren mode the
// inputs run up to the closing parenthesis, which is consumed.
func (vm *VM) evalCall(c *cursor, name string, paren bool) Result {
	if r, stop := vm.poll(); stop {
		return r
	}

	if p, ok := vm.prims[vm.foldName(name)]; ok {
		if p.form != nil {
			return p.form(vm, c)
		}
		args, r, ok := vm.collectArgs(c, name, p.arity, p.min, p.max, paren)
		if !ok {
			return r
		}
		r = p.fn(vm, name, args)
		if vm.heap.TakeExhausted() {
			return ResultError(ErrOutOfSpace)
		}
		if r.status == StatusNone {
			vm.lastNoneProc = name
		}
		return r
	}

	if key, ok := vm.lookupKey(name); ok {
		if proc, ok := vm.procs[key]; ok {
			n := proc.Arity()
			args, r, ok := vm.collectArgs(c, name, n, n, n, paren)
			if !ok {
				return r
			}
			r = vm.callProcedure(proc, args)
			if r.status == StatusNone {
				vm.lastNoneProc = name
			}
			return r
		}
	}
	return ResultErrorArg(ErrNotProcedure, "", name)
}

func (vm *VM) collectArgs(c *cursor, name string, arity, min, max int, paren bool) ([]Value, Result, bool) {
	var args []Value
	if paren {
		for {
			tok, ok := vm.peek(c)
			if !ok {
				return nil, ResultError(ErrParenNotFound), false
			}
			if tok == vm.closeParen {
				vm.advance(c)
				break
			}
			v, r, ok := vm.evalArg(c, name)
			if !ok {
				return nil, r, false
			}
			args = append(args, v)
		}
		if len(args) < min {
			return nil, ResultErrorProc(ErrNotEnoughInputs, name), false
		}
		if max >= 0 && len(args) > max {
			return nil, ResultError(ErrTooMuchInParens), false
		}
		return args, ResultNone(), true
	}

	for i := 0; i < arity; i++ {
		tok, ok := vm.peek(c)
		if !ok || tok == vm.closeParen {
			return nil, ResultErrorProc(ErrNotEnoughInputs, name), false
		}
		v, r, ok := vm.evalArg(c, name)
		if !ok {
			return nil, r, false
		}
		args = append(args, v)
	}
	return args, ResultNone(), true
}

// evalArg evaluates one input for consumer, which must produce a value.
func (vm *VM) evalArg(c *cursor, consumer string) (Value, Result, bool) {
	r := vm.evalExpr(c)
	switch r.status {
	case StatusOK:
		return r.value, r, true
	case StatusNone:
		return NoValue(), ResultErrorArg(ErrDidntOutput, vm.lastNoneProc, consumer), false
	}
	return NoValue(), r, false
}

// callProcedure runs a user procedure with bound inputs. The frame is popped
// on every exit path.
func (vm *VM) callProcedure(proc *Procedure, args []Value) Result {
	name := vm.heap.Text(proc.Name)
	if len(vm.callStack) >= vm.maxDepth {
		return ResultErrorProc(ErrStackOverflow, name)
	}
	mark, ok := vm.scopes.PushScope(proc.Name)
	if !ok {
		return ResultErrorProc(ErrOutOfSpace, name)
	}
	defer vm.scopes.PopScope(mark)

	vm.callStack = append(vm.callStack, proc)
	defer func() { vm.callStack = vm.callStack[:len(vm.callStack)-1] }()

	for i, p := range proc.Params {
		if !vm.scopes.SetLocal(vm.key(vm.heap.Text(p)), p, args[i]) {
			return ResultErrorProc(ErrOutOfSpace, name)
		}
	}

	if proc.Traced {
		vm.traceEntry(proc, args)
	}
	r := vm.runBody(proc)
	switch r.status {
	case StatusOutput:
		r = ResultOK(r.value)
	case StatusStop, StatusNone:
		r = ResultNone()
	case StatusError:
		if r.err.Caller == "" {
			r = ErrorIn(r, name)
		}
	}
	if proc.Traced {
		vm.traceExit(proc, r)
	}
	return r
}

// runBody executes a procedure body, resolving goto against its labels.
func (vm *VM) runBody(proc *Procedure) Result {
	body, ok := vm.runparse(proc.Body)
	if !ok {
		return ResultError(ErrOutOfSpace)
	}
	c := &cursor{pos: body, lineStart: true}
	for {
		r := vm.evalSequence(c, false, proc)
		if r.status != StatusGoto {
			return r
		}
		at, line, found := vm.findLabel(body, r.Label())
		if !found {
			return ResultErrorArg(ErrCantFindLabel, "", r.Label())
		}
		c.pos, c.line, c.lineStart = at, line, false
	}
}

// findLabel locates `label "name` in body and returns the position after it.
func (vm *VM) findLabel(body Node, label string) (Node, int, bool) {
	line := 0
	for n := body; n.IsPair(); n = vm.heap.Cdr(n) {
		tok := vm.heap.Car(n)
		if tok == vm.newline {
			line++
			continue
		}
		if !tok.IsAtom() || !vm.sameWord(vm.heap.Text(tok), "label") {
			continue
		}
		next := vm.heap.Cdr(n)
		arg := vm.heap.Text(vm.heap.Car(next))
		if len(arg) > 1 && arg[0] == '"' && vm.sameWord(arg[1:], label) {
			return vm.heap.Cdr(next), line, true
		}
	}
	return Nil, 0, false
}

// ---------------------------------------------------------------------------
// Argument helpers shared by primitives
// ---------------------------------------------------------------------------

func (vm *VM) doesntLike(name string, v Value) Result {
	return ResultErrorArg(ErrDoesntLikeInput, name, vm.Show(v))
}

// number converts an input to a number.
func (vm *VM) number(v Value) (float32, bool) {
	return vm.heap.ValueToNumber(v)
}

// integer converts an input to a whole number.
func (vm *VM) integer(v Value) (int, bool) {
	f, ok := vm.heap.ValueToNumber(v)
	if !ok || f != float32(int(f)) {
		return 0, false
	}
	return int(f), true
}

// boolean accepts the words true and false in any case.
func (vm *VM) boolean(v Value) (bool, bool) {
	if !v.IsWord() {
		return false, false
	}
	text := vm.heap.Text(v.node)
	switch {
	case vm.sameWord(text, "true"):
		return true, true
	case vm.sameWord(text, "false"):
		return false, true
	}
	return false, false
}

// wordText returns the text of a word or number input.
func (vm *VM) wordText(v Value) (string, bool) {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num), true
	case KindWord:
		return vm.heap.Text(v.node), true
	}
	return "", false
}

// listNode returns the node of a list input.
func (vm *VM) listNode(v Value) (Node, bool) {
	if !v.IsList() {
		return Nil, false
	}
	return v.node, true
}

// instructionList accepts a list, or a word parsed as one.
func (vm *VM) instructionList(v Value) (Node, bool) {
	if v.IsList() {
		return v.node, true
	}
	text, ok := vm.wordText(v)
	if !ok {
		return Nil, false
	}
	list, err := vm.heap.ParseList(text)
	if err != nil {
		return Nil, false
	}
	return list, true
}
