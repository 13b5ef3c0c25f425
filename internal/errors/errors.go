// Package errors provides custom error types for the audit service.
// Configuration and API errors use AppError so that callers get a stable
// code plus an actionable message. Errors raised by audited operations are
// never converted into AppErrors; they reach the caller unchanged.
package errors

import (
	"fmt"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target carries the same code, so that errors built with
// Wrap or WithMessage still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrNotImplemented = &AppError{Code: "NOT_IMPLEMENTED", Message: "Not supported by the configured audit store", StatusCode: http.StatusNotImplemented}
)

// Configuration errors. These are raised while wiring entity definitions,
// backends and audit stores, never from an audited operation.
var (
	ErrNoSuchBackend      = &AppError{Code: "NO_SUCH_BACKEND", Message: "No backend registered for entity type", StatusCode: http.StatusInternalServerError}
	ErrBaseURLNotDefined  = &AppError{Code: "BASE_URL_NOT_DEFINED", Message: "Backend base URL is not defined", StatusCode: http.StatusInternalServerError}
	ErrUnknownAuditStore  = &AppError{Code: "UNKNOWN_AUDIT_STORE", Message: "Audit store is not registered", StatusCode: http.StatusInternalServerError}
	ErrInvalidDefinition  = &AppError{Code: "INVALID_DEFINITION", Message: "Invalid entity definition", StatusCode: http.StatusInternalServerError}
	ErrAuditStoreRequired = &AppError{Code: "AUDIT_STORE_REQUIRED", Message: "No audit store configured", StatusCode: http.StatusInternalServerError}
)

// NoSuchBackend builds the error returned when an entity type has no backend.
func NoSuchBackend(entityType string) *AppError {
	return WithMessage(ErrNoSuchBackend, fmt.Sprintf(`entity %s is looking for a backend client that doesn't exist.

Either a) register a client for it:

    backends.Register(%q, backend.MustNew(%q, backend.Config{BaseURL: "https://example.com/path"}))

Or b) point the definition at an existing client:

    entity.Define(%q, writer, entity.WithBackend(otherClient))`,
		entityType, entityType, entityType, entityType))
}

// BaseURLNotDefined builds the error returned when a backend client has no base URL.
func BaseURLNotDefined(clientName string) *AppError {
	return WithMessage(ErrBaseURLNotDefined, fmt.Sprintf(`backend client %s has no base URL.

Either a) set one on its configuration:

    backend.Config{BaseURL: "https://example.com/some/path"}

Or b) reuse a client that already has one:

    entity.WithBackend(existingClient)`,
		clientName))
}

// UnknownAuditStore builds the error returned when AuditWith names no registered store.
func UnknownAuditStore(name string) *AppError {
	return WithMessage(ErrUnknownAuditStore, fmt.Sprintf(`audit store %q is not registered.

Either a) register it before building the writer:

    stores.Register(%q, gormstore.New(db))

Or b) point AUDIT_WITH at an existing store.`,
		name, name))
}
