package subdev

import "fmt"

// ErrorCode identifies the kind of failure reported by a sub-device.
type ErrorCode string

// Error codes.
const (
	CodeOutOfRange   ErrorCode = "OUT_OF_RANGE"
	CodeCodeMismatch ErrorCode = "CODE_MISMATCH"
	CodeReadOnly     ErrorCode = "READ_ONLY"
	CodeRange        ErrorCode = "RANGE"
	CodeControlInit  ErrorCode = "CONTROL_INIT"
	CodeConstruction ErrorCode = "CONSTRUCTION"
	CodeNoSession    ErrorCode = "NO_SESSION"
	CodeClosed       ErrorCode = "CLOSED"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrOutOfRange   = &Error{Code: CodeOutOfRange, Message: "index out of range"}
	ErrCodeMismatch = &Error{Code: CodeCodeMismatch, Message: "media bus code mismatch"}
	ErrReadOnly     = &Error{Code: CodeReadOnly, Message: "control is read-only"}
	ErrRange        = &Error{Code: CodeRange, Message: "value out of control range"}
	ErrControlInit  = &Error{Code: CodeControlInit, Message: "control init failed"}
	ErrConstruction = &Error{Code: CodeConstruction, Message: "device construction failed"}
	ErrNoSession    = &Error{Code: CodeNoSession, Message: "trial format requires a session"}
	ErrClosed       = &Error{Code: CodeClosed, Message: "device is closed"}
)

// Error is a coded sub-device error.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HasCode checks if the error matches a specific code.
func (e *Error) HasCode(code ErrorCode) bool {
	return e.Code == code
}
