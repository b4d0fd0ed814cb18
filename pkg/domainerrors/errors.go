// Package domainerrors carries coded errors across service boundaries.
//
// Services return these so callers (transport, other services, tests) can
// branch on the failure class without string matching. Stores do NOT use
// this package; they return sentinel errors (pkg/platform/sentinel) and the
// owning service translates.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks caller-supplied data that violates a precondition.
	CodeValidation Code = "validation"
	// CodeConflict marks an operation that would violate a mutual-exclusion
	// invariant, such as opening a second register.
	CodeConflict Code = "conflict"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeCredential marks an empty or incorrect password. Distinct from
	// CodeValidation because it carries a user-facing prompt.
	CodeCredential Code = "credential"
	// CodeInternal marks a persistence or infrastructure failure.
	CodeInternal Code = "internal"
	// CodeTimeout marks an operation aborted by context cancellation.
	CodeTimeout Code = "timeout"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// MessageOf returns the message of a coded error, or err.Error() for
// uncoded errors. Useful for user-facing failure strings.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
