// Package apperror classifies caller-facing failures the way the remote-call
// surface reports them: every error a handler returns to a client wraps one
// of the four sentinels below.
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrInternal        = errors.New("internal")
)

type CallError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable, safe to return to the client
}

func (e *CallError) Error() string {
	return e.Message
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func Unauthenticated(message string) *CallError {
	return &CallError{Err: ErrUnauthenticated, Message: message}
}

func InvalidArgument(message string) *CallError {
	return &CallError{Err: ErrInvalidArgument, Message: message}
}

func NotFound(message string) *CallError {
	return &CallError{Err: ErrNotFound, Message: message}
}

// Internal wraps an unexpected failure. The cause is kept for logging via
// Unwrap chains; Message is what the client sees.
func Internal(message string) *CallError {
	return &CallError{Err: ErrInternal, Message: message}
}

// Code returns the wire-format error code for a classified error.
// Unclassified errors are reported as internal.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid-argument"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	default:
		return "internal"
	}
}

// HTTPStatus maps a classified error onto an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
