// Package apperror provides structured error handling for the integration agent.
// All business errors must use AppError so callers can classify failures.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes mirroring the failure taxonomy of the production pipeline.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeMissingArticle = "MISSING_ARTICLE"

	// Concurrency conflicts (409)
	CodeSequenceConflict = "SEQUENCE_CONFLICT"
	CodeDuplicate        = "DUPLICATE_ENTRY"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the agent.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, conflicting keys, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
// Never retried; the message names the offending field.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewValidationf creates a validation error with a formatted message.
func NewValidationf(format string, args ...any) *AppError {
	return NewValidation(fmt.Sprintf(format, args...))
}

// NewMissingArticle is returned when a reversal document references a
// produced item that does not exist in the stock catalog.
func NewMissingArticle(name string) *AppError {
	return &AppError{
		Code:       CodeMissingArticle,
		Message:    fmt.Sprintf("article %q does not exist and cannot be created on a reversal document", name),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"article": name},
	}
}

// NewSequenceConflict marks a uniqueness violation on an allocated
// document-numbering key. Retried exactly once by the coordinator.
func NewSequenceConflict(err error) *AppError {
	return &AppError{
		Code:       CodeSequenceConflict,
		Message:    "document number already allocated by a concurrent writer",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewDatabase wraps any other database failure. Rolled back, never retried.
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "database operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal error (hides details from clients)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode checks if error carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool { return IsCode(err, CodeValidation) }

// IsMissingArticle checks if error is CodeMissingArticle
func IsMissingArticle(err error) bool { return IsCode(err, CodeMissingArticle) }

// IsSequenceConflict checks if error is CodeSequenceConflict
func IsSequenceConflict(err error) bool { return IsCode(err, CodeSequenceConflict) }

// IsDuplicate checks if error is CodeDuplicate
func IsDuplicate(err error) bool { return IsCode(err, CodeDuplicate) }

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
