package utils

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    int               // HTTP status code (e.g., 404, 422, 500)
	Message string            // User-facing message
	Fields  map[string]string // Per-field validation messages, 422 only
	err     error             // Internal-facing error for logging purposes
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// Detail is the underlying error message surfaced on 500 responses.
func (e *AppError) Detail() string {
	if e.Code != http.StatusInternalServerError || e.err == nil {
		return ""
	}
	return e.err.Error()
}

// --- Error Helper Functions ---

// NewValidationError creates a 422 Unprocessable Entity error.
func NewValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "The given data was invalid.",
		Fields:  fields,
	}
}

// NewNotFoundError creates a 404 Not Found error.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: message,
	}
}

// NewBadRequestError creates a 400 Bad Request error.
func NewBadRequestError(message string, originalError ...error) *AppError {
	e := &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
	if len(originalError) > 0 {
		e.err = originalError[0]
	}
	return e
}

// NewUnauthorizedError creates a 401 Unauthorized error.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Message: message,
	}
}

// NewInternalServerError creates a 500 Internal Server Error.
func NewInternalServerError(message string, originalError error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		err:     originalError,
	}
}

// AsAppError extracts an *AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
