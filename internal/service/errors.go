package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Domain errors (validation, transition, duplicate, due date) are returned as they are
// 2. Store not-found errors are mapped to ErrTodoNotFound
// 3. Unexpected errors are wrapped in TodoServiceError, which matches ErrStorage
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrTodoNotFound indicates that the todo does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrStorage indicates that the persistence collaborator failed.
	// It is not retried here. API layer should map this to HTTP 500.
	ErrStorage = errors.New("storage failure")
)

// TodoServiceError wraps errors from the todo service with context.
type TodoServiceError struct {
	// Operation is the operation that failed (e.g., "create_todo", "activate_todo")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TodoServiceError.
func (e *TodoServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("todo service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("todo service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TodoServiceError) Unwrap() error {
	return e.Err
}

// Is makes every TodoServiceError match ErrStorage.
func (e *TodoServiceError) Is(target error) bool {
	return target == ErrStorage
}

// NewTodoServiceError classifies err for callers of the service.
// It returns known sentinel and domain errors directly without wrapping.
func NewTodoServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTodoNotFound) || errors.Is(err, store.ErrNotFound) {
		return ErrTodoNotFound
	}

	if isDomainError(err) {
		return err
	}

	// A uniqueness backstop in the store fired after the guard passed.
	if errors.Is(err, store.ErrActiveTodoExists) {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateActiveTodo, err)
	}

	var svcErr *TodoServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	return &TodoServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// isDomainError reports whether err is a caller-facing domain failure.
func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrDuplicateActiveTodo) ||
		errors.Is(err, domain.ErrInvalidDueDate) ||
		errors.Is(err, domain.ErrDueDateTooSoon)
}

// IsClientError reports whether err was caused by the caller's input or the
// todo's state rather than by infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrTodoNotFound) || isDomainError(err)
}
