// Package apperror defines the error taxonomy shared by the gateway, the
// stores and the mock backend.
//
// Every error that crosses a store boundary is an *AppError wrapping one of
// the sentinels below, so callers can branch with errors.Is and still show
// AppError.Message to a human.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
	ErrBackend      = errors.New("backend error")
	ErrUnknown      = errors.New("unknown error")
)

// Kind is the coarse classification the gateway attaches to every failure.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindNotFound     Kind = "not_found"
	KindUnknown      Kind = "unknown"
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status the backend answered with
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for a missing or rejected session.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Network wraps a transport failure (DNS, refused connection, timeout).
// The cause stays reachable through errors.Is/As via a joined chain.
func Network(cause error) *AppError {
	msg := "network error"
	if cause != nil {
		msg = "network error: " + cause.Error()
	}
	return &AppError{
		Err:     errors.Join(ErrNetwork, cause),
		Message: msg,
	}
}

// Backend returns an AppError for a 5xx answer.
func Backend(status int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("server error (%d)", status)
	}
	return &AppError{
		Err:     ErrBackend,
		Message: message,
		Status:  status,
	}
}

// Unknown returns an AppError for failures that fit no other kind, such as
// an undecodable response body.
func Unknown(message string, cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrUnknown, cause),
		Message: message,
	}
}

// FromStatus classifies a non-2xx HTTP status into an AppError, keeping the
// backend-provided message when there is one.
func FromStatus(status int, message string) *AppError {
	var e *AppError
	switch {
	case status == http.StatusUnauthorized:
		e = Unauthorized(orDefault(message, "authentication required"))
	case status == http.StatusForbidden:
		e = Forbidden(orDefault(message, "forbidden"))
	case status == http.StatusNotFound:
		e = &AppError{Err: ErrNotFound, Message: orDefault(message, "not found")}
	case status == http.StatusConflict:
		e = &AppError{Err: ErrConflict, Message: orDefault(message, "conflict")}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e = ValidationFailed("", orDefault(message, "invalid request"))
	case status >= 500:
		e = Backend(status, message)
	default:
		e = &AppError{Err: ErrUnknown, Message: orDefault(message, fmt.Sprintf("unexpected status %d", status))}
	}
	e.Status = status
	return e
}

// KindOf maps any error onto the gateway's classification.
// Forbidden counts as unauthorized and conflict as validation: both are
// answers about the caller's request, not about the server's health.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return KindUnauthorized
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBackend):
		return KindServer
	default:
		return KindUnknown
	}
}

// MessageOf returns the best human-readable message for err: the AppError
// message when there is one, otherwise fallback.
func MessageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err != nil && fallback == "" {
		return err.Error()
	}
	return fallback
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
