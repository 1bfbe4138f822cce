package bus

import (
	"errors"
	"fmt"
)

var (
	ErrNoReceiver        = errors.New("bus: could not establish connection, receiving end does not exist")
	ErrPortClosed        = errors.New("bus: message port closed before a response was received")
	ErrCatalogueMismatch = errors.New("bus: payload does not match catalogue")
	ErrUnknownOp         = errors.New("bus: operation not in catalogue")
	ErrDuplicateHandler  = errors.New("bus: handler already registered for tag")
)

// Fault codes carried by wire transports so the receiving side can restore
// sentinel identity.
const (
	CodeFault     = "fault"
	CodeMismatch  = "catalogue_mismatch"
	CodeUnknownOp = "unknown_op"
	CodePanic     = "panic"
)

// MismatchError reports a payload that could not be matched to the
// catalogue types for Tag. Side is "request" or "response".
type MismatchError struct {
	Tag  string
	Side string
	Err  error
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("bus: %s payload for %q does not match catalogue: %v", e.Side, e.Tag, e.Err)
}

func (e *MismatchError) Unwrap() error { return e.Err }

func (e *MismatchError) Is(target error) bool { return target == ErrCatalogueMismatch }

// RemoteError is a handler fault that crossed a process boundary. Only the
// message and code survive the trip.
type RemoteError struct {
	Tag     string
	Code    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case CodeMismatch:
		return target == ErrCatalogueMismatch
	case CodeUnknownOp:
		return target == ErrUnknownOp
	}
	return false
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Tag   string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("bus: handler for %q panicked: %v", e.Tag, e.Value)
}

// FaultCode classifies err for transports that serialize faults.
func FaultCode(err error) string {
	var re *RemoteError
	var pe *PanicError
	switch {
	case errors.As(err, &re) && re.Code != "":
		return re.Code
	case errors.Is(err, ErrCatalogueMismatch):
		return CodeMismatch
	case errors.Is(err, ErrUnknownOp):
		return CodeUnknownOp
	case errors.As(err, &pe):
		return CodePanic
	}
	return CodeFault
}
