// Package errs holds the error taxonomy of the order service.
// Every failure that leaves a service operation is an *Error whose message is safe to show to callers.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidTransition
	KindConflict
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindInvalidTransition:
		return "InvalidTransition"
	case KindConflict:
		return "Conflict"
	case KindInvalidInput:
		return "InvalidInput"
	default:
		return "Unexpected"
	}
}

// Error is a classified failure with a caller-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and message, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind && t.Msg == e.Msg
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFound error.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// Forbidden builds a Forbidden error.
func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

// InvalidTransition builds an InvalidTransition error.
func InvalidTransition(format string, args ...any) *Error {
	return newf(KindInvalidTransition, format, args...)
}

// Conflict builds a Conflict error.
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// InvalidInput builds an InvalidInput error.
func InvalidInput(format string, args ...any) *Error {
	return newf(KindInvalidInput, format, args...)
}

// Unexpected hides cause behind a generic message.
func Unexpected(msg string, cause error) *Error {
	return &Error{Kind: KindUnexpected, Msg: msg, Err: cause}
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnexpected
}

// Wrap returns err unchanged when it is already classified, otherwise an Unexpected error with msg.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	return Unexpected(msg, err)
}

// Message returns the caller-facing message of err, falling back to fallback for foreign errors.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}

	return fallback
}
