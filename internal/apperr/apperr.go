// Package apperr holds the error kinds surfaced by the lifecycle and reporting services.
// Handlers translate a Kind into an HTTP status; everything without a Kind is a server error.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindAlreadyProcessed   Kind = "ALREADY_PROCESSED"
	KindExternal           Kind = "EXTERNAL_DEPENDENCY_FAILURE"
	KindValidation         Kind = "VALIDATION"
)

// Error carries a Kind plus the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, format string, args ...interface{}) error {
	return newError(KindNotFound, op, format, args...)
}

func InvalidTransition(op, format string, args ...interface{}) error {
	return newError(KindInvalidTransition, op, format, args...)
}

func PreconditionFailed(op, format string, args ...interface{}) error {
	return newError(KindPreconditionFailed, op, format, args...)
}

func AlreadyProcessed(op, format string, args ...interface{}) error {
	return newError(KindAlreadyProcessed, op, format, args...)
}

func Validation(op, format string, args ...interface{}) error {
	return newError(KindValidation, op, format, args...)
}

// External wraps a failure of mail, storage or document rendering.
func External(op, message string, err error) error {
	return &Error{Kind: KindExternal, Op: op, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
