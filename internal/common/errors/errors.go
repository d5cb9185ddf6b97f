// Package errors provides structured error handling for JokeHub
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents an application error code
type ErrorCode string

const (
	// General errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrBadRequest   ErrorCode = "BAD_REQUEST"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrDomainRule   ErrorCode = "DOMAIN_RULE_VIOLATION"

	// Authentication errors
	ErrInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrTokenRevoked       ErrorCode = "TOKEN_REVOKED"
	ErrEmailNotVerified   ErrorCode = "EMAIL_NOT_VERIFIED"

	// Storage errors
	ErrDatabase     ErrorCode = "DATABASE_ERROR"
	ErrDuplicateKey ErrorCode = "DUPLICATE_KEY"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Err        error                  `json:"-"` // Original error for logging
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the original error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       ErrInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NotFound creates a not found error with the given client-facing message
func NotFound(message string) *AppError {
	return &AppError{
		Code:       ErrNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       ErrUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	return &AppError{
		Code:       ErrForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return &AppError{
		Code:       ErrConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return &AppError{
		Code:       ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// DomainRule creates a domain rule violation error (e.g. new password
// equals the old one). Reported as a plain 400.
func DomainRule(message string) *AppError {
	return &AppError{
		Code:       ErrDomainRule,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// DatabaseError wraps a storage failure. These are fatal for the
// request; there is no silent recovery.
func DatabaseError(operation string, err error) *AppError {
	return &AppError{
		Code:       ErrDatabase,
		Message:    "Database operation failed",
		StatusCode: http.StatusInternalServerError,
		Err:        fmt.Errorf("%s: %w", operation, err),
	}
}

// DuplicateKey creates a duplicate key error
func DuplicateKey(key string) *AppError {
	return (&AppError{
		Code:       ErrDuplicateKey,
		Message:    "Duplicate key violation",
		StatusCode: http.StatusConflict,
	}).WithMetadata("key", key)
}

// AsAppError extracts an *AppError from err, wrapping unknown errors
// as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
