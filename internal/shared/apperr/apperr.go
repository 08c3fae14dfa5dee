// Package apperr defines the error taxonomy shared across services.
// Handlers map kinds to HTTP statuses exactly once, at the boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary dispatch.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation marks rejected input: empty or oversized files,
	// unsupported types, out-of-range limits and pages.
	KindValidation
	// KindUnauthorized marks missing or invalid credentials.
	KindUnauthorized
	// KindForbidden marks resources that exist but belong to someone else.
	KindForbidden
	// KindNotFound marks resources that do not resolve at all.
	KindNotFound
	// KindUpstream marks embedding or generation provider failures,
	// including malformed or out-of-order responses.
	KindUpstream
	// KindStorage marks blob read/write failures.
	KindStorage
)

// Error carries a kind, a caller-safe message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error around a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFault reports whether the error is a service fault that must be
// logged with full detail and surfaced to the caller generically.
func IsFault(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindUnauthorized, KindForbidden, KindNotFound:
		return false
	default:
		return true
	}
}
