package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TodoServiceError
		expected string
	}{
		{
			name:     "with underlying error",
			err:      &TodoServiceError{Operation: "create_todo", Message: "failed to save todo", Err: errBoom},
			expected: "todo service create_todo failed: failed to save todo: connection refused",
		},
		{
			name:     "without underlying error",
			err:      &TodoServiceError{Operation: "create_service", Message: "todos cannot be nil"},
			expected: "todo service create_service failed: todos cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrStorage)
		})
	}
}

func TestNewTodoServiceError(t *testing.T) {
	validation := domain.NewValidationError("text", "is required", nil)
	transition := &domain.TransitionError{Operation: domain.OpComplete, From: domain.TodoStatePending}
	existing := &TodoServiceError{Operation: "get_todo", Message: "boom", Err: errBoom}

	tests := []struct {
		name       string
		err        error
		wantIs     []error
		wantSame   bool
		wantClient bool
	}{
		{
			name:       "store not found",
			err:        store.ErrTodoNotFound,
			wantIs:     []error{ErrTodoNotFound},
			wantClient: true,
		},
		{
			name:       "wrapped store not found",
			err:        store.NewStoreError("todo", "get", "missing", store.ErrTodoNotFound),
			wantIs:     []error{ErrTodoNotFound},
			wantClient: true,
		},
		{
			name:       "validation passes through",
			err:        validation,
			wantIs:     []error{domain.ErrValidation},
			wantSame:   true,
			wantClient: true,
		},
		{
			name:       "transition passes through",
			err:        transition,
			wantIs:     []error{domain.ErrInvalidTransition},
			wantSame:   true,
			wantClient: true,
		},
		{
			name:       "store uniqueness backstop",
			err:        store.NewStoreError("todo", "create", "conflict", store.ErrActiveTodoExists),
			wantIs:     []error{domain.ErrDuplicateActiveTodo},
			wantClient: true,
		},
		{
			name:     "existing service error kept",
			err:      existing,
			wantIs:   []error{ErrStorage, errBoom},
			wantSame: true,
		},
		{
			name:   "unexpected error wrapped",
			err:    fmt.Errorf("query: %w", errBoom),
			wantIs: []error{ErrStorage, errBoom},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTodoServiceError("op", "message", tt.err)
			require.Error(t, got)
			for _, target := range tt.wantIs {
				assert.ErrorIs(t, got, target)
			}
			if tt.wantSame {
				assert.Same(t, tt.err, got)
			}
			assert.Equal(t, tt.wantClient, IsClientError(got))
		})
	}

	assert.NoError(t, NewTodoServiceError("op", "message", nil))
}

func TestDomainErrorsAreNotStorage(t *testing.T) {
	errs := []error{
		domain.ErrValidation,
		domain.ErrInvalidTransition,
		&domain.DuplicateError{Text: "x", Type: domain.TodoTypeDaily},
		&domain.DueDateError{Value: "x", Err: domain.ErrInvalidDueDate},
		ErrTodoNotFound,
	}
	for _, err := range errs {
		assert.False(t, errors.Is(NewTodoServiceError("op", "m", err), ErrStorage), err.Error())
	}
}
