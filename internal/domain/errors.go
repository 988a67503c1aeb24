package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a todo or an input fails validation.
	// It is usually wrapped in a ValidationError naming the field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidTransition is returned when a lifecycle operation is not
	// legal for the todo's current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDuplicateActiveTodo is returned when an active todo with the same
	// text and type already exists.
	ErrDuplicateActiveTodo = errors.New("an active todo with the same text and type already exists")

	// ErrInvalidDueDate is returned when a due date cannot be parsed.
	ErrInvalidDueDate = errors.New("invalid due date")

	// ErrDueDateTooSoon is returned when a due date is closer to now than MinDueOffset.
	ErrDueDateTooSoon = errors.New("due date too soon")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field. A nil err defaults
// to ErrValidation so callers can always match with errors.Is.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// TransitionError reports an operation attempted from a state that has no
// matching edge in the lifecycle.
type TransitionError struct {
	Operation Operation
	From      TodoState
}

// Error implements the error interface for TransitionError.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a todo in state %q", e.Operation, e.From)
}

// Unwrap returns ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// DuplicateError reports the active todo that conflicts with a create,
// activate or reactivate request.
type DuplicateError struct {
	Text       string
	Type       TodoType
	ExistingID string
}

// Error implements the error interface for DuplicateError.
func (e *DuplicateError) Error() string {
	if e.ExistingID == "" {
		return fmt.Sprintf("%s: %q (%s)", ErrDuplicateActiveTodo.Error(), e.Text, e.Type)
	}
	return fmt.Sprintf("%s: %q (%s) is already active as %s",
		ErrDuplicateActiveTodo.Error(), e.Text, e.Type, e.ExistingID)
}

// Unwrap returns ErrDuplicateActiveTodo.
func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateActiveTodo
}

// DueDateError wraps ErrInvalidDueDate or ErrDueDateTooSoon with the
// offending input.
type DueDateError struct {
	Value string
	Err   error
}

// Error implements the error interface for DueDateError.
func (e *DueDateError) Error() string {
	if errors.Is(e.Err, ErrDueDateTooSoon) {
		return fmt.Sprintf("due date must be at least %d minutes in the future", int(MinDueOffset.Minutes()))
	}
	return fmt.Sprintf("%s: %q", e.Err.Error(), e.Value)
}

// Unwrap returns the wrapped sentinel.
func (e *DueDateError) Unwrap() error {
	return e.Err
}
