// Package domainerrors defines the typed errors services return to callers.
// Every guard failure in the workflow surfaces as one of these codes so
// handlers can map them to HTTP statuses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest covers malformed ids and missing required fields.
	CodeBadRequest Code = "bad_request"
	// CodeValidation covers well-formed but semantically invalid input.
	CodeValidation Code = "validation_error"
	// CodeNotFound means an id did not resolve to an entity.
	CodeNotFound Code = "not_found"
	// CodeConflict means the target already holds the token or the request
	// duplicates an existing one.
	CodeConflict Code = "conflict"
	// CodeInvalidState means a transition was attempted from a state that
	// forbids it. The message always names the current state.
	CodeInvalidState Code = "invalid_state"
	// CodeUnauthorized means the caller is not authenticated.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller does not own or did not create the
	// target resource.
	CodeForbidden Code = "forbidden"
	// CodeTimeout means a transaction was abandoned before its commit point.
	CodeTimeout Code = "timeout"
	// CodeInternal is the fallback for infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a caller-facing message, and an optional cause.
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

func (e *Error) Unwrap() error { return e.cause }

// New returns a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// errors that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message from err. Internal errors
// yield an empty message so infrastructure detail never leaks.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return ""
}
