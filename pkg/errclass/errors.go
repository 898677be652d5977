// Package errclass defines the stable, machine-readable error classes that
// hostdash reports to the CLI and over HTTP.
package errclass

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a stable error class with an optional message and wrapped cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a new Error of the same class carrying cause. The message is
// taken from the cause.
func (e *Error) Wrap(cause error) *Error {
	if cause == nil {
		return &Error{Code: e.Code}
	}
	return &Error{Code: e.Code, Message: cause.Error(), Cause: cause}
}

// Stable error classes.
var (
	ErrCaptureUnavailable    = &Error{Code: "E_CAPTURE_UNAVAILABLE"}
	ErrPathEscape            = &Error{Code: "E_PATH_ESCAPE"}
	ErrNotFound              = &Error{Code: "E_NOT_FOUND"}
	ErrNotADirectory         = &Error{Code: "E_NOT_A_DIRECTORY"}
	ErrNotAFile              = &Error{Code: "E_NOT_A_FILE"}
	ErrIO                    = &Error{Code: "E_IO"}
	ErrCapabilityUnavailable = &Error{Code: "E_CAPABILITY_UNAVAILABLE"}
	ErrInvalidArgument       = &Error{Code: "E_INVALID_ARGUMENT"}
	ErrAuditChainBroken      = &Error{Code: "E_AUDIT_CHAIN_BROKEN"}
)

// Code returns the class code of err, or "" when err carries no class.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the HTTP status the dashboard API reports.
// Errors without a class are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPathEscape):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotADirectory), errors.Is(err, ErrNotAFile), errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrCaptureUnavailable), errors.Is(err, ErrCapabilityUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
