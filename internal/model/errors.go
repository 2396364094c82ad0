package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested tide does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDualWriteFailed is returned when both backends failed a write.
	ErrDualWriteFailed = errors.New("both backends failed write")
)

// ValidationError describes malformed input. It is surfaced immediately
// and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
