package base

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ===================================================================
// CUSTOM ERROR TYPES
// ===================================================================

// RepositoryError represents base repository error
type RepositoryError struct {
	Operation string
	Table     string
	Message   string
	Cause     error
}

func (e *RepositoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to %s %s: %s (caused by: %v)", e.Operation, e.Table, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Table, e.Message)
}

func (e *RepositoryError) Unwrap() error {
	return e.Cause
}

// EntityNotFoundError represents entity not found error
type EntityNotFoundError struct {
	Table      string
	Identifier string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s with %s not found", e.Table, e.Identifier)
}

// DuplicateEntityError represents a unique constraint violation
type DuplicateEntityError struct {
	Table string
	Cause error
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s: duplicate entry (caused by: %v)", e.Table, e.Cause)
}

func (e *DuplicateEntityError) Unwrap() error {
	return e.Cause
}

// ===================================================================
// ERROR CONSTRUCTORS
// ===================================================================

// NewRepositoryError creates a new repository error
func NewRepositoryError(operation, table, message string, cause error) *RepositoryError {
	return &RepositoryError{
		Operation: operation,
		Table:     table,
		Message:   message,
		Cause:     cause,
	}
}

// NewEntityNotFoundError creates a new entity not found error
func NewEntityNotFoundError(table, identifier string) *EntityNotFoundError {
	return &EntityNotFoundError{
		Table:      table,
		Identifier: identifier,
	}
}

// ===================================================================
// ERROR HANDLING HELPERS
// ===================================================================

// HandleDBError handles database errors with consistent error wrapping
func HandleDBError(operation, table, identifier string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewEntityNotFoundError(table, identifier)
	}

	return WrapDBError(operation, table, err)
}

// WrapDBError wraps database error with operation context
func WrapDBError(operation, table string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateEntityError{Table: table, Cause: err}
	}

	return NewRepositoryError(operation, table, "database operation failed", err)
}

// IsEntityNotFound checks if error is an entity not found error
func IsEntityNotFound(err error) bool {
	var entityNotFoundError *EntityNotFoundError
	return errors.As(err, &entityNotFoundError)
}

// IsDuplicateEntity checks if error is a duplicate entity error
func IsDuplicateEntity(err error) bool {
	var duplicateEntityError *DuplicateEntityError
	return errors.As(err, &duplicateEntityError)
}
