package errors

import (
	"errors"
	"fmt"
)

// Error is the structured error type for VexDB.
// It carries a stable code and category so the HTTP layer can map
// failures to status codes without string matching.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_LIBRARY_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, NotFound, etc.).
	Category Category

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error's category.
func (e *Error) HTTPStatus() int {
	return httpStatusForCategory(e.Category)
}

// New creates a new Error with the given code and message.
// The category is derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code string, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Validation creates a validation error (HTTP 400).
func Validation(message string) *Error {
	return New(ErrCodeInvalidInput, message, nil)
}

// NotFound creates a not-found error (HTTP 404).
func NotFound(code string, message string) *Error {
	return New(code, message, nil)
}

// Conflict creates a conflict/precondition error (HTTP 409).
func Conflict(code string, message string) *Error {
	return New(code, message, nil)
}

// Upstream creates an embedding provider error (HTTP 502).
func Upstream(message string, cause error) *Error {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// Internal creates an internal error (HTTP 500).
func Internal(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// Is reports whether any error in the chain carries the given code.
func Is(err error, code string) bool {
	var ve *Error
	for errors.As(err, &ve) {
		if ve.Code == code {
			return true
		}
		err = ve.Unwrap()
		if err == nil {
			return false
		}
	}
	return false
}

// GetCategory extracts the category from an error chain.
// Returns CategoryInternal for plain errors.
func GetCategory(err error) Category {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Category
	}
	return CategoryInternal
}

// HTTPStatus extracts the HTTP status from an error chain.
// Plain errors map to 500.
func HTTPStatus(err error) int {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.HTTPStatus()
	}
	return httpStatusForCategory(CategoryInternal)
}
