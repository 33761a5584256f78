// Package errs defines the error taxonomy shared by the ticket service
// and both facades. Every exported service method returns *AppError (or
// nil) so a facade never has to re-derive a status code from a bare
// database error.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a closed set of error categories, not a Go error type
// hierarchy — facades switch on Kind, never on the underlying cause.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal_error"
)

// AppError is the only error type that crosses the service boundary.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps a Kind to the status code the HTTP facade must return.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewValidation(msg string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(msg, args...)}
}

func NewNotFound(msg string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(msg, args...)}
}

func NewInvalidTransition(msg string, args ...any) *AppError {
	return &AppError{Kind: KindInvalidTransition, Message: fmt.Sprintf(msg, args...)}
}

func NewConflict(msg string, args ...any) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(msg, args...)}
}

func NewInternal(cause error, msg string, args ...any) *AppError {
	return &AppError{Kind: KindInternal, Message: fmt.Sprintf(msg, args...), Cause: cause}
}

// Wrap classifies a generic error as InternalError unless it is already
// an *AppError, in which case it passes through unchanged.
func Wrap(err error, msg string) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return NewInternal(err, "%s", msg)
}

// Is reports whether err is an *AppError of the given Kind.
func Is(err error, kind Kind) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
