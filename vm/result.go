package vm

// ---------------------------------------------------------------------------
// Result: the outcome of every evaluation step
// ---------------------------------------------------------------------------

// Status identifies the Result variant.
type Status uint8

const (
	StatusOK     Status = iota // expression produced a value
	StatusNone                 // command ran, no value
	StatusStop                 // procedure exit without value
	StatusOutput               // procedure exit with value
	StatusError                // recoverable failure
	StatusThrow                // non-local exit looking for a catch
	StatusPause                // enter a nested interactive loop
	StatusGoto                 // jump to a label in the running procedure
	StatusEOF                  // input exhausted
)

var statusNames = [...]string{"ok", "none", "stop", "output", "error", "throw", "pause", "goto", "eof"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// ErrorInfo is the context carried by an error Result.
type ErrorInfo struct {
	Code   ErrorCode
	Proc   string // procedure that raised the error
	Arg    string // offending input, already formatted
	Caller string // user procedure running when the error surfaced
}

// Result is a small sum type. The payload that matters depends on status:
// value for OK/Output, err for Error, text for Throw (tag), Goto (label) and
// Pause (procedure name).
type Result struct {
	status Status
	value  Value
	err    *ErrorInfo
	text   string
}

// ResultOK wraps a value produced by an expression.
func ResultOK(v Value) Result { return Result{status: StatusOK, value: v} }

// ResultNone marks a command that produced nothing.
func ResultNone() Result { return Result{status: StatusNone} }

// ResultStop is produced by stop.
func ResultStop() Result { return Result{status: StatusStop} }

// ResultOutput is produced by output.
func ResultOutput(v Value) Result { return Result{status: StatusOutput, value: v} }

// ResultError builds an error with no context.
func ResultError(code ErrorCode) Result {
	return Result{status: StatusError, err: &ErrorInfo{Code: code}}
}

// ResultErrorProc builds an error naming the procedure that raised it.
func ResultErrorProc(code ErrorCode, proc string) Result {
	return Result{status: StatusError, err: &ErrorInfo{Code: code, Proc: proc}}
}

// ResultErrorArg builds an error naming the procedure and the offending input.
func ResultErrorArg(code ErrorCode, proc, arg string) Result {
	return Result{status: StatusError, err: &ErrorInfo{Code: code, Proc: proc, Arg: arg}}
}

// ErrorIn attaches the dynamic caller to an error, leaving the other fields
// alone. Non-error results are returned unchanged.
func ErrorIn(r Result, caller string) Result {
	if r.status != StatusError || r.err == nil {
		return r
	}
	info := *r.err
	info.Caller = caller
	r.err = &info
	return r
}

// ResultThrow starts a non-local exit to the catch with a matching tag.
func ResultThrow(tag string) Result { return Result{status: StatusThrow, text: tag} }

// ResultPause asks for a nested interactive loop inside proc.
func ResultPause(proc string) Result { return Result{status: StatusPause, text: proc} }

// ResultGoto asks the running procedure to resume after label.
func ResultGoto(label string) Result { return Result{status: StatusGoto, text: label} }

// ResultEOF reports that the input stream is exhausted.
func ResultEOF() Result { return Result{status: StatusEOF} }

// Status returns the variant.
func (r Result) Status() Status { return r.status }

// Value returns the payload of OK and Output results, NoValue otherwise.
func (r Result) Value() Value {
	if r.status != StatusOK && r.status != StatusOutput {
		return NoValue()
	}
	return r.value
}

// IsReturnable reports whether r carries a usable value. Evaluator code that
// needs a value must test this rather than comparing statuses.
func (r Result) IsReturnable() bool {
	return r.status == StatusOK || r.status == StatusOutput
}

// Err returns the error context, or nil for non-errors.
func (r Result) Err() *ErrorInfo {
	if r.status != StatusError {
		return nil
	}
	return r.err
}

// Tag returns the throw tag.
func (r Result) Tag() string {
	if r.status != StatusThrow {
		return ""
	}
	return r.text
}

// Label returns the goto label.
func (r Result) Label() string {
	if r.status != StatusGoto {
		return ""
	}
	return r.text
}

// PauseProc returns the procedure a pause was requested in.
func (r Result) PauseProc() string {
	if r.status != StatusPause {
		return ""
	}
	return r.text
}
