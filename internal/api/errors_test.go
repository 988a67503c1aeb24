package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/job"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", service.ErrTodoNotFound, http.StatusNotFound},
		{"unknown job", job.ErrUnknownJob, http.StatusNotFound},
		{"duplicate", &domain.DuplicateError{Text: "x", Type: domain.TodoTypeDaily}, http.StatusConflict},
		{"transition", &domain.TransitionError{Operation: domain.OpFail, From: domain.TodoStatePending}, http.StatusConflict},
		{"job running", job.ErrJobRunning, http.StatusConflict},
		{"validation", domain.NewValidationError("text", "is required", nil), http.StatusBadRequest},
		{"invalid id", domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest},
		{"due too soon", &domain.DueDateError{Err: domain.ErrDueDateTooSoon}, http.StatusBadRequest},
		{"unparsable due", &domain.DueDateError{Value: "x", Err: domain.ErrInvalidDueDate}, http.StatusBadRequest},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest},
		{"storage", service.NewTodoServiceError("op", "m", errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"not found", service.ErrTodoNotFound, "Todo not found"},
		{"validation", domain.NewValidationError("text", "is required", nil), "text is required"},
		{"transition", &domain.TransitionError{Operation: domain.OpComplete, From: domain.TodoStatePending}, `cannot complete a todo in state "pending"`},
		{"wrapped duplicate", fmt.Errorf("%w: backstop", domain.ErrDuplicateActiveTodo), domain.ErrDuplicateActiveTodo.Error()},
		{"due too soon", &domain.DueDateError{Err: domain.ErrDueDateTooSoon}, "due date must be at least 10 minutes in the future"},
		{"internal details hidden", errors.New("pq: relation todos does not exist"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	v := newValidator()

	err := v.Struct(CreateTodoRequest{Text: "x", Type: "weekly"})
	assert.Equal(t, "Invalid type: invalid value", SanitizeValidationError(err))

	err = v.Struct(CreateTodoRequest{Type: "daily"})
	assert.Equal(t, "Invalid text: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
