package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Error codes for the chat core taxonomy. Persistence and upload failures
// propagate to the caller; subscription failures surface as a non-fatal
// notice. Resolution failures are recovered locally and never carry a code.
const (
	CodePersistence  = "PERSISTENCE_ERROR"
	CodeUpload       = "UPLOAD_ERROR"
	CodeSubscription = "SUBSCRIPTION_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"-"`
	cause      error
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Stack:      string(debug.Stack()),
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewUnauthorizedError creates a 401 Unauthorized error
func NewUnauthorizedError(code string, message string) *AppError {
	return NewError(http.StatusUnauthorized, code, message)
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(code string, message string) *AppError {
	return NewError(http.StatusForbidden, code, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(code string, message string) *AppError {
	return NewError(http.StatusNotFound, code, message)
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(code string, message string) *AppError {
	return NewError(http.StatusConflict, code, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// NewPersistenceError wraps a store read/write failure
func NewPersistenceError(message string, cause error) *AppError {
	err := NewError(http.StatusInternalServerError, CodePersistence, message)
	err.cause = cause
	return err
}

// NewUploadError wraps an object storage failure
func NewUploadError(message string, cause error) *AppError {
	err := NewError(http.StatusBadGateway, CodeUpload, message)
	err.cause = cause
	return err
}

// NewSubscriptionError wraps a realtime channel failure
func NewSubscriptionError(message string, cause error) *AppError {
	err := NewError(http.StatusServiceUnavailable, CodeSubscription, message)
	err.cause = cause
	return err
}

// FromError converts any error into an AppError, wrapping unknown errors
// as internal server errors
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	wrapped := NewInternalServerError("INTERNAL_ERROR", err.Error())
	wrapped.cause = err
	return wrapped
}

// Is checks if the target error is of type AppError with the same code
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == target.Code
}

// HasCode reports whether err carries the given application error code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
