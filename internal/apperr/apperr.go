// Package apperr defines the error taxonomy shared by services, repositories and
// HTTP handlers. Callers match on the kind sentinels with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrUpstream         = errors.New("upstream failure")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
)

type Error struct {
	Kind    error  // one of the Err* sentinels
	Code    string // machine readable, surfaced in the response envelope
	Message string // user facing
	Details any
	Err     error // underlying cause, never surfaced to the caller
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NotAuthenticated(message string) *Error {
	return &Error{Kind: ErrNotAuthenticated, Code: "not_authenticated", Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: ErrUnauthorized, Code: code, Message: message}
}

func NotFound(resource string) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Upstream wraps a failure from the row store or object store. The message is
// deliberately generic; op and err are kept for logging.
func Upstream(op string, err error) *Error {
	return &Error{
		Kind:    ErrUpstream,
		Code:    "upstream_failure",
		Message: "Something went wrong, please try again.",
		Details: op,
		Err:     err,
	}
}

func Validation(message string, details any) *Error {
	return &Error{Kind: ErrValidation, Code: "invalid_request", Message: message, Details: details}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: message}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
