package vm

import "strings"

// ErrorCode numbers a Logo error. The numbers are visible to programs through
// the error primitive, so they must stay stable.
type ErrorCode int

const (
	ErrFatal             ErrorCode = 0
	ErrOutOfSpace        ErrorCode = 1
	ErrStackOverflow     ErrorCode = 2
	ErrDidntOutput       ErrorCode = 5
	ErrNotEnoughInputs   ErrorCode = 6
	ErrDoesntLikeInput   ErrorCode = 7
	ErrTooMuchInParens   ErrorCode = 8
	ErrDontSayWhatToDo   ErrorCode = 9
	ErrParenNotFound     ErrorCode = 10
	ErrNoValue           ErrorCode = 11
	ErrUnexpectedParen   ErrorCode = 12
	ErrNotProcedure      ErrorCode = 13
	ErrNoCatch           ErrorCode = 14
	ErrAlreadyDefined    ErrorCode = 15
	ErrStopped           ErrorCode = 16
	ErrFileSystem        ErrorCode = 18
	ErrIsPrimitive       ErrorCode = 22
	ErrCantUseProcedure  ErrorCode = 23
	ErrNoTest            ErrorCode = 25
	ErrUnexpectedBracket ErrorCode = 26
	ErrCantUseToplevel   ErrorCode = 31
	ErrUserThrow         ErrorCode = 35
	ErrTooFewItems       ErrorCode = 40
	ErrDivideByZero      ErrorCode = 41
	ErrOverflow          ErrorCode = 42
	ErrCantFindLabel     ErrorCode = 43
	ErrFileNotFound      ErrorCode = 44
	ErrFileAlreadyOpen   ErrorCode = 45
	ErrFileNotOpen       ErrorCode = 46
	ErrDiskFull          ErrorCode = 47
	ErrUnsupported       ErrorCode = 48
	ErrNetwork           ErrorCode = 49
	ErrBracketNotFound   ErrorCode = 50
)

// errorTemplates maps codes to messages. A template has zero, one or two %s
// placeholders, filled by FormatError.
var errorTemplates = map[ErrorCode]string{
	ErrFatal:             "Fatal internal error",
	ErrOutOfSpace:        "Out of space",
	ErrStackOverflow:     "Stack overflow",
	ErrDidntOutput:       "%s didn't output to %s",
	ErrNotEnoughInputs:   "Not enough inputs to %s",
	ErrDoesntLikeInput:   "%s doesn't like %s as input",
	ErrTooMuchInParens:   "Too much inside ()'s",
	ErrDontSayWhatToDo:   "You don't say what to do with %s",
	ErrParenNotFound:     "')' not found",
	ErrNoValue:           "%s has no value",
	ErrUnexpectedParen:   "Unexpected ')'",
	ErrNotProcedure:      "I don't know how to %s",
	ErrNoCatch:           "Can't find catch tag for %s",
	ErrAlreadyDefined:    "%s is already defined",
	ErrStopped:           "Stopped!",
	ErrFileSystem:        "File system error",
	ErrIsPrimitive:       "%s is a primitive",
	ErrCantUseProcedure:  "Can't use %s inside a procedure",
	ErrNoTest:            "%s without TEST",
	ErrUnexpectedBracket: "Unexpected ']'",
	ErrCantUseToplevel:   "Can only use %s inside a procedure",
	ErrUserThrow:         "%s",
	ErrTooFewItems:       "Too few items in %s",
	ErrDivideByZero:      "%s can't divide by zero",
	ErrOverflow:          "%s made a number too big",
	ErrCantFindLabel:     "Can't find label %s",
	ErrFileNotFound:      "File %s not found",
	ErrFileAlreadyOpen:   "File %s already open",
	ErrFileNotOpen:       "File %s not open",
	ErrDiskFull:          "Disk full",
	ErrUnsupported:       "%s isn't supported on this device",
	ErrNetwork:           "%s couldn't reach %s",
	ErrBracketNotFound:   "']' not found",
}

// ErrorTemplate returns the raw template for code.
func ErrorTemplate(code ErrorCode) string {
	if t, ok := errorTemplates[code]; ok {
		return t
	}
	return errorTemplates[ErrFatal]
}

// FormatError renders an error. Two-placeholder templates take Proc then Arg;
// one-placeholder templates take Arg, falling back to Proc. When a required
// field is empty the template is returned with its %s left in place. A
// non-empty Caller is appended as " in <caller>".
func FormatError(info *ErrorInfo) string {
	if info == nil {
		return ""
	}
	tmpl := ErrorTemplate(info.Code)
	msg := tmpl
	switch strings.Count(tmpl, "%s") {
	case 1:
		fill := info.Arg
		if fill == "" {
			fill = info.Proc
		}
		if fill != "" {
			msg = strings.Replace(tmpl, "%s", fill, 1)
		}
	case 2:
		if info.Proc != "" && info.Arg != "" {
			msg = strings.Replace(tmpl, "%s", info.Proc, 1)
			msg = strings.Replace(msg, "%s", info.Arg, 1)
		}
	}
	if info.Caller != "" {
		msg += " in " + info.Caller
	}
	return msg
}
