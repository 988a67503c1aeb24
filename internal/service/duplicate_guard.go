package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// checkNoActiveDuplicate fails with a *domain.DuplicateError when another
// active todo shares text and todoType. exclude is the todo being moved to
// active, if it already exists.
//
// The check is point in time and takes no lock. Two callers can both pass
// it; the store's uniqueness constraint, when it has one, rejects the
// second write.
func checkNoActiveDuplicate(
	ctx context.Context,
	todos store.TodoStore,
	text string,
	todoType domain.TodoType,
	exclude uuid.UUID,
) error {
	candidates, err := todos.Find(ctx, store.TodoFilter{
		Text:   &text,
		Type:   &todoType,
		States: []domain.TodoState{domain.TodoStateActive},
		Limit:  2,
	})
	if err != nil {
		return err
	}

	for _, existing := range candidates {
		if existing.ID == exclude {
			continue
		}
		return &domain.DuplicateError{
			Text:       text,
			Type:       todoType,
			ExistingID: existing.ID.String(),
		}
	}
	return nil
}

// asDuplicate turns a store uniqueness violation into a *domain.DuplicateError
// for todo. Other errors are returned unchanged.
func asDuplicate(err error, todo *domain.Todo) error {
	if errors.Is(err, store.ErrActiveTodoExists) {
		return &domain.DuplicateError{Text: todo.Text, Type: todo.Type}
	}
	return err
}
