// Package apperror defines the failure taxonomy shared by services,
// the realtime layer and the HTTP error handler.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindAlreadyExists
	KindUnavailable
	KindInvalidInput
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindUnavailable:
		return "unavailable"
	case KindInvalidInput:
		return "invalid_input"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return "internal"
	}
}

// Error is a classified failure. Op names the operation that failed,
// Message is safe to show to API clients.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func NotFound(op, message string) error {
	return newError(KindNotFound, op, message, nil)
}

func AlreadyExists(op, message string) error {
	return newError(KindAlreadyExists, op, message, nil)
}

func InvalidInput(op, message string) error {
	return newError(KindInvalidInput, op, message, nil)
}

func Unavailable(op string, err error) error {
	return newError(KindUnavailable, op, "dependency unavailable", err)
}

func TransportFailure(op string, err error) error {
	return newError(KindTransportFailure, op, "send failed", err)
}

func Internal(op string, err error) error {
	return newError(KindInternal, op, "internal error", err)
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "internal error"
}
