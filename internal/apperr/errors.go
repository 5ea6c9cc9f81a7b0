package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error crossing the HTTP boundary is expected to wrap one of these.
var (
	ErrValidation      = errors.New("validation_failed")
	ErrNotFound        = errors.New("not_found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrPersistence     = errors.New("persistence_failed")
)

// Error carries a human readable message and the kind it belongs to.
type Error struct {
	Kind error
	Msg  string
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }
func NotFound(format string, args ...any) error   { return newf(ErrNotFound, format, args...) }
func Unauthenticated(format string, args ...any) error {
	return newf(ErrUnauthenticated, format, args...)
}
func Forbidden(format string, args ...any) error { return newf(ErrForbidden, format, args...) }
func Conflict(format string, args ...any) error  { return newf(ErrConflict, format, args...) }

// Persistence wraps a database failure. The cause stays reachable through errors.As.
func Persistence(err error, format string, args ...any) error {
	return &Error{Kind: ErrPersistence, Msg: fmt.Sprintf(format, args...), Err: err}
}

// StatusCode maps an error to the HTTP status the API answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine readable error string sent in responses.
func Code(err error) string {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrUnauthenticated, ErrForbidden, ErrConflict, ErrPersistence} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal_error"
}
