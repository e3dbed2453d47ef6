// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error independently of transport.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindInvalidInput Kind = "invalid_input"
	KindInternal     Kind = "internal"
)

// Sentinels, one per kind. errors.Is(err, ErrNotFound) matches any *Error of that kind.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidState = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrInvalidInput = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrInternal     = &Error{Kind: KindInternal, Message: "internal error"}
)

// Error is the single error type crossing service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthorized(format string, args ...any) error {
	return newf(KindUnauthorized, format, args...)
}

func NewForbidden(format string, args ...any) error {
	return newf(KindForbidden, format, args...)
}

func NewNotFound(format string, args ...any) error {
	return newf(KindNotFound, format, args...)
}

func NewConflict(format string, args ...any) error {
	return newf(KindConflict, format, args...)
}

func NewInvalidState(format string, args ...any) error {
	return newf(KindInvalidState, format, args...)
}

func NewInvalidInput(format string, args ...any) error {
	return newf(KindInvalidInput, format, args...)
}

// Internal wraps an unexpected failure, keeping the cause for logs.
func Internal(msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// HTTPStatus maps an error to the response code the API returns for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal causes from API clients.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal error"
}
