// Package memory provides an in-process implementation of store.TodoStore.
// It backs the memory storage driver and the service tests.
package memory

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

type entry struct {
	todo *domain.Todo
	seq  uint64
}

// TodoStore keeps todos in a map guarded by a mutex. Like the Postgres
// store it refuses a second active todo with the same text and type.
type TodoStore struct {
	mu      sync.RWMutex
	todos   map[uuid.UUID]entry
	nextSeq uint64
	logger  *slog.Logger
}

// Ensure TodoStore implements store.TodoStore interface
var _ store.TodoStore = (*TodoStore)(nil)

// NewTodoStore returns an empty store. If logger is nil, a default logger will be used.
func NewTodoStore(logger *slog.Logger) *TodoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoStore{
		todos:  make(map[uuid.UUID]entry),
		logger: logger.With(slog.String("component", "memory_todo_store")),
	}
}

// WithTx returns s; the memory store has no transactions.
func (s *TodoStore) WithTx(*sql.Tx) store.TodoStore {
	return s
}

// Create implements store.TodoStore.Create
func (s *TodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	if err := ctx.Err(); err != nil {
		return store.NewStoreError("todo", "create", "context done", err)
	}
	if err := todo.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.todos[todo.ID]; exists {
		return store.NewStoreError("todo", "create", "id already in use", store.ErrDuplicate)
	}
	if s.activeConflictLocked(todo) {
		return store.ErrActiveTodoExists
	}

	s.nextSeq++
	s.todos[todo.ID] = entry{todo: todo.Clone(), seq: s.nextSeq}

	logger.FromContextOrDefault(ctx, s.logger).Debug("todo created",
		slog.String("todo_id", todo.ID.String()))
	return nil
}

// GetByID implements store.TodoStore.GetByID
func (s *TodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError("todo", "get", "context done", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.todos[id]
	if !ok {
		return nil, store.ErrTodoNotFound
	}
	return e.todo.Clone(), nil
}

// FindOne implements store.TodoStore.FindOne
func (s *TodoStore) FindOne(ctx context.Context, filter store.TodoFilter) (*domain.Todo, error) {
	filter.Limit = 1
	todos, err := s.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(todos) == 0 {
		return nil, store.ErrTodoNotFound
	}
	return todos[0], nil
}

// Find implements store.TodoStore.Find
func (s *TodoStore) Find(ctx context.Context, filter store.TodoFilter) ([]*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError("todo", "find", "context done", err)
	}

	s.mu.RLock()
	matches := s.matchLocked(filter)
	s.mu.RUnlock()

	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}

	todos := make([]*domain.Todo, len(matches))
	for i, e := range matches {
		todos[i] = e.todo.Clone()
	}
	return todos, nil
}

// Update implements store.TodoStore.Update
func (s *TodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	if err := ctx.Err(); err != nil {
		return store.NewStoreError("todo", "update", "context done", err)
	}
	if err := todo.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.todos[todo.ID]
	if !ok {
		return store.ErrTodoNotFound
	}
	if s.activeConflictLocked(todo) {
		return store.ErrActiveTodoExists
	}

	e.todo = todo.Clone()
	s.todos[todo.ID] = e
	return nil
}

// Delete implements store.TodoStore.Delete
func (s *TodoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return store.NewStoreError("todo", "delete", "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return store.ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}

// DeleteMany implements store.TodoStore.DeleteMany
func (s *TodoStore) DeleteMany(ctx context.Context, filter store.TodoFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, store.NewStoreError("todo", "delete_many", "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.todos {
		if filter.Matches(e.todo) {
			delete(s.todos, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored todos.
func (s *TodoStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

func (s *TodoStore) matchLocked(filter store.TodoFilter) []entry {
	matches := make([]entry, 0)
	for _, e := range s.todos {
		if filter.Matches(e.todo) {
			matches = append(matches, e)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.todo.CreatedAt.Equal(b.todo.CreatedAt) {
			return a.todo.CreatedAt.Before(b.todo.CreatedAt)
		}
		return a.seq < b.seq
	})
	return matches
}

// activeConflictLocked reports whether a different active todo shares
// todo's text and type.
func (s *TodoStore) activeConflictLocked(todo *domain.Todo) bool {
	if todo.State != domain.TodoStateActive {
		return false
	}
	for id, e := range s.todos {
		if id == todo.ID {
			continue
		}
		if e.todo.State == domain.TodoStateActive && e.todo.Text == todo.Text && e.todo.Type == todo.Type {
			return true
		}
	}
	return false
}
