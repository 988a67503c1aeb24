package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// TodoFilter selects todos. Zero-valued fields do not constrain the query;
// all set fields must match.
type TodoFilter struct {
	// Text matches the todo text exactly.
	Text *string

	// Type matches the todo type.
	Type *domain.TodoType

	// States matches any of the listed states.
	States []domain.TodoState

	// DueBefore matches todos whose due date is strictly before the value.
	DueBefore *time.Time

	// ActivatedFrom and ActivatedBefore bound activated_at to [from, before).
	ActivatedFrom   *time.Time
	ActivatedBefore *time.Time

	// NotificationEnabled matches the notification enabled flag. Todos
	// without notification settings never match a non-nil value.
	NotificationEnabled *bool

	// Limit caps the number of returned todos. Zero means no limit.
	Limit int
}

// Matches reports whether todo satisfies f. Implementations that cannot
// push a filter down to their backend use it to filter in process.
func (f TodoFilter) Matches(todo *domain.Todo) bool {
	if f.Text != nil && todo.Text != *f.Text {
		return false
	}
	if f.Type != nil && todo.Type != *f.Type {
		return false
	}
	if len(f.States) > 0 && !containsState(f.States, todo.State) {
		return false
	}
	if f.DueBefore != nil && (todo.DueAt == nil || !todo.DueAt.Before(*f.DueBefore)) {
		return false
	}
	if f.ActivatedFrom != nil && (todo.ActivatedAt == nil || todo.ActivatedAt.Before(*f.ActivatedFrom)) {
		return false
	}
	if f.ActivatedBefore != nil && (todo.ActivatedAt == nil || !todo.ActivatedAt.Before(*f.ActivatedBefore)) {
		return false
	}
	if f.NotificationEnabled != nil &&
		(todo.Notification == nil || todo.Notification.Enabled != *f.NotificationEnabled) {
		return false
	}
	return true
}

func containsState(states []domain.TodoState, s domain.TodoState) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

// TodoStore defines the interface for todo data persistence.
// Implementations return detached copies; mutating a returned todo has no
// effect until it is passed back to Update.
type TodoStore interface {
	// Create saves a new todo to the store.
	// Returns validation errors from the domain Todo if data is invalid.
	// Returns ErrActiveTodoExists if the backend enforces active uniqueness
	// and the todo would violate it.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves a todo by its unique ID.
	// Returns ErrTodoNotFound if the todo does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// FindOne returns the oldest todo matching filter.
	// Returns ErrTodoNotFound if nothing matches.
	FindOne(ctx context.Context, filter TodoFilter) (*domain.Todo, error)

	// Find returns all todos matching filter ordered by creation time.
	// Returns an empty slice if nothing matches.
	Find(ctx context.Context, filter TodoFilter) ([]*domain.Todo, error)

	// Update saves all fields of an existing todo.
	// Returns ErrTodoNotFound if the todo does not exist.
	Update(ctx context.Context, todo *domain.Todo) error

	// Delete removes a todo by ID.
	// Returns ErrTodoNotFound if the todo does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteMany removes every todo matching filter and returns the count.
	DeleteMany(ctx context.Context, filter TodoFilter) (int, error)

	// WithTx returns a new TodoStore instance that uses the provided transaction.
	// Implementations without transactions return themselves.
	WithTx(tx *sql.Tx) TodoStore
}
