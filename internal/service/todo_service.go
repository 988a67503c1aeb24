package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// CreateTodoInput carries the fields of a create request. DueAt is the raw
// due timestamp; it is required for one-time todos and ignored for daily ones.
type CreateTodoInput struct {
	Text         string
	Type         domain.TodoType
	DueAt        string
	Notification *domain.NotificationInput
}

// UpdateTodoInput is a partial update. Nil fields are left unchanged.
type UpdateTodoInput struct {
	Text         *string
	DueAt        *string
	Notification *domain.NotificationInput
}

// ReactivateTodoInput carries the new due timestamp (one-time todos only)
// and optional notification settings overriding the carried-over ones.
type ReactivateTodoInput struct {
	DueAt        string
	Notification *domain.NotificationInput
}

// ListTodosFilter narrows ListTodos. Nil fields do not constrain the result.
type ListTodosFilter struct {
	State *domain.TodoState
	Type  *domain.TodoType
}

// TodoService provides todo-related operations
type TodoService interface {
	// CreateTodo creates a pending todo.
	CreateTodo(ctx context.Context, in CreateTodoInput) (*domain.Todo, error)

	// GetTodo retrieves a todo by its ID.
	GetTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// ListTodos returns todos ordered by creation time.
	ListTodos(ctx context.Context, filter ListTodosFilter) ([]*domain.Todo, error)

	// UpdateTodo edits text, due date and notification settings of a pending or active todo.
	UpdateTodo(ctx context.Context, id uuid.UUID, in UpdateTodoInput) (*domain.Todo, error)

	// ActivateTodo moves a pending todo to active.
	ActivateTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// CompleteTodo moves an active todo to completed.
	CompleteTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// FailTodo moves an active todo to failed.
	FailTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// ReactivateTodo spawns a new active todo from a completed or failed one.
	ReactivateTodo(ctx context.Context, id uuid.UUID, in ReactivateTodoInput) (*domain.Todo, error)

	// DeleteTodo removes a todo.
	DeleteTodo(ctx context.Context, id uuid.UUID) error

	// DeleteTodosByState removes every todo in state and returns the count.
	DeleteTodosByState(ctx context.Context, state domain.TodoState) (int, error)

	// UpdateNotificationSettings replaces the reminder settings of a pending or active todo.
	UpdateNotificationSettings(ctx context.Context, id uuid.UUID, in domain.NotificationInput) (*domain.Todo, error)

	// MarkNotified records reminder delivery. Calling it again is a no-op.
	MarkNotified(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// ListDueReminders returns the todos whose reminder should be delivered now.
	ListDueReminders(ctx context.Context) ([]*domain.Todo, error)

	// DisableNotificationsForTerminal turns off reminders on completed and
	// failed todos and returns how many were changed.
	DisableNotificationsForTerminal(ctx context.Context) (int, error)
}

// todoServiceImpl implements the TodoService interface
type todoServiceImpl struct {
	todos  store.TodoStore
	db     *sql.DB
	events *eventPublisher
	clock  domain.Clock
	logger *slog.Logger
}

// NewTodoService creates a new TodoService.
// db scopes each operation to a transaction and may be nil for stores
// without transactions. A nil clock reads the system clock.
// It returns an error if any of the required dependencies are nil.
func NewTodoService(
	todos store.TodoStore,
	db *sql.DB,
	emitter events.EventEmitter,
	clock domain.Clock,
	logger *slog.Logger,
) (TodoService, error) {
	if todos == nil {
		return nil, &TodoServiceError{Operation: "create_service", Message: "todos cannot be nil"}
	}
	if emitter == nil {
		return nil, &TodoServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "todo_service")

	return &todoServiceImpl{
		todos:  todos,
		db:     db,
		events: &eventPublisher{emitter: emitter, logger: logger},
		clock:  clock,
		logger: logger,
	}, nil
}

// CreateTodo validates the input, runs the duplicate guard and stores a pending todo.
func (s *todoServiceImpl) CreateTodo(ctx context.Context, in CreateTodoInput) (*domain.Todo, error) {
	const op = "create_todo"
	now := s.clock.Now()

	var dueAt *time.Time
	if in.Type == domain.TodoTypeOneTime {
		if in.DueAt == "" {
			return nil, s.fail(ctx, op, "", domain.NewValidationError("due_at", "is required for one-time todos", nil))
		}
		parsed, err := domain.ParseAndCheckDueAt(in.DueAt, now)
		if err != nil {
			return nil, s.fail(ctx, op, "", err)
		}
		dueAt = &parsed
	}

	todo, err := domain.NewTodo(in.Text, in.Type, dueAt, in.Notification, now)
	if err != nil {
		return nil, s.fail(ctx, op, "", err)
	}

	err = store.InTx(ctx, s.db, s.todos, func(ctx context.Context, todos store.TodoStore) error {
		if err := checkNoActiveDuplicate(ctx, todos, todo.Text, todo.Type, todo.ID); err != nil {
			return err
		}
		return asDuplicate(todos.Create(ctx, todo), todo)
	})
	if err != nil {
		return nil, s.fail(ctx, op, "failed to save todo", err)
	}

	s.log(ctx).Info("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("type", string(todo.Type)))
	s.events.publish(ctx, events.TodoCreated, todo, now)
	return todo, nil
}

// GetTodo retrieves a todo by its ID.
func (s *todoServiceImpl) GetTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get_todo", "failed to retrieve todo", err)
	}
	return todo, nil
}

// ListTodos returns todos matching filter ordered by creation time.
func (s *todoServiceImpl) ListTodos(ctx context.Context, filter ListTodosFilter) ([]*domain.Todo, error) {
	const op = "list_todos"

	f := store.TodoFilter{Type: filter.Type}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, s.fail(ctx, op, "", domain.NewValidationError("type", "must be one of one-time, daily", nil))
	}
	if filter.State != nil {
		if !filter.State.IsValid() {
			return nil, s.fail(ctx, op, "", domain.NewValidationError("state", "is not a known state", nil))
		}
		f.States = []domain.TodoState{*filter.State}
	}

	todos, err := s.todos.Find(ctx, f)
	if err != nil {
		return nil, s.fail(ctx, op, "failed to list todos", err)
	}
	return todos, nil
}

// UpdateTodo applies a partial update. A due date supplied for a daily todo is ignored.
func (s *todoServiceImpl) UpdateTodo(ctx context.Context, id uuid.UUID, in UpdateTodoInput) (*domain.Todo, error) {
	const op = "update_todo"
	now := s.clock.Now()

	patch := domain.TodoPatch{Text: in.Text, Notification: in.Notification}

	result, err := s.mutate(ctx, id, func(ctx context.Context, todos store.TodoStore, todo *domain.Todo) (*domain.Todo, error) {
		if in.DueAt != nil && todo.Type == domain.TodoTypeOneTime {
			// State is checked before the due date so a terminal todo
			// reports the transition error.
			if !domain.CanTransition(todo.State, domain.OpUpdate) {
				return nil, &domain.TransitionError{Operation: domain.OpUpdate, From: todo.State}
			}
			dueAt, err := domain.ParseAndCheckDueAt(*in.DueAt, now)
			if err != nil {
				return nil, err
			}
			patch.DueAt = &dueAt
		}
		return domain.ApplyUpdate(todo, patch, now)
	})
	if err != nil {
		return nil, s.fail(ctx, op, "failed to update todo", err)
	}

	s.events.publish(ctx, events.TodoUpdated, result, now)
	return result, nil
}

// ActivateTodo moves a pending todo to active after the duplicate guard passes.
func (s *todoServiceImpl) ActivateTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	now := s.clock.Now()

	result, err := s.mutate(ctx, id, func(ctx context.Context, todos store.TodoStore, todo *domain.Todo) (*domain.Todo, error) {
		next, err := domain.Activate(todo, now)
		if err != nil {
			return nil, err
		}
		if err := checkNoActiveDuplicate(ctx, todos, next.Text, next.Type, next.ID); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return nil, s.fail(ctx, "activate_todo", "failed to activate todo", err)
	}

	s.log(ctx).Info("todo activated", slog.String("todo_id", id.String()))
	s.events.publish(ctx, events.TodoActivated, result, now)
	return result, nil
}

// CompleteTodo moves an active todo to completed.
func (s *todoServiceImpl) CompleteTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	now := s.clock.Now()

	result, err := s.mutate(ctx, id, func(_ context.Context, _ store.TodoStore, todo *domain.Todo) (*domain.Todo, error) {
		return domain.Complete(todo, now)
	})
	if err != nil {
		return nil, s.fail(ctx, "complete_todo", "failed to complete todo", err)
	}

	s.log(ctx).Info("todo completed", slog.String("todo_id", id.String()))
	s.events.publish(ctx, events.TodoCompleted, result, now)
	return result, nil
}

// FailTodo moves an active todo to failed.
func (s *todoServiceImpl) FailTodo(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	now := s.clock.Now()

	result, err := s.mutate(ctx, id, func(_ context.Context, _ store.TodoStore, todo *domain.Todo) (*domain.Todo, error) {
		return domain.Fail(todo, now)
	})
	if err != nil {
		return nil, s.fail(ctx, "fail_todo", "failed to fail todo", err)
	}

	s.log(ctx).Info("todo failed", slog.String("todo_id", id.String()))
	s.events.publish(ctx, events.TodoFailed, result, now)
	return result, nil
}

// ReactivateTodo spawns a new active todo from a completed or failed one.
// The source todo is left as it is.
func (s *todoServiceImpl) ReactivateTodo(
	ctx context.Context,
	id uuid.UUID,
	in ReactivateTodoInput,
) (*domain.Todo, error) {
	const op = "reactivate_todo"
	now := s.clock.Now()

	var created *domain.Todo
	err := store.InTx(ctx, s.db, s.todos, func(ctx context.Context, todos store.TodoStore) error {
		source, err := todos.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(source.State, domain.OpReactivate) {
			return &domain.TransitionError{Operation: domain.OpReactivate, From: source.State}
		}

		var dueAt *time.Time
		if source.Type == domain.TodoTypeOneTime {
			if in.DueAt == "" {
				return domain.NewValidationError("due_at", "is required to reactivate a one-time todo", nil)
			}
			parsed, err := domain.ParseAndCheckDueAt(in.DueAt, now)
			if err != nil {
				return err
			}
			dueAt = &parsed
		}

		next, err := domain.Reactivate(source, dueAt, in.Notification, now)
		if err != nil {
			return err
		}
		if err := checkNoActiveDuplicate(ctx, todos, next.Text, next.Type, next.ID); err != nil {
			return err
		}
		if err := todos.Create(ctx, next); err != nil {
			return asDuplicate(err, next)
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, "failed to reactivate todo", err)
	}

	s.log(ctx).Info("todo reactivated",
		slog.String("todo_id", created.ID.String()),
		slog.String("original_id", id.String()))
	s.events.publish(ctx, events.TodoReactivated, created, now)
	return created, nil
}

// DeleteTodo removes a todo.
func (s *todoServiceImpl) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	if err := s.todos.Delete(ctx, id); err != nil {
		return s.fail(ctx, "delete_todo", "failed to delete todo", err)
	}

	now := s.clock.Now()
	s.log(ctx).Info("todo deleted", slog.String("todo_id", id.String()))
	s.events.emit(ctx, events.NewDeletedEvent(id, now))
	return nil
}

// DeleteTodosByState removes every todo in state and returns the count.
func (s *todoServiceImpl) DeleteTodosByState(ctx context.Context, state domain.TodoState) (int, error) {
	const op = "delete_todos_by_state"
	if !state.IsValid() {
		return 0, s.fail(ctx, op, "", domain.NewValidationError("state", "is not a known state", nil))
	}

	n, err := s.todos.DeleteMany(ctx, store.TodoFilter{States: []domain.TodoState{state}})
	if err != nil {
		return 0, s.fail(ctx, op, "failed to delete todos", err)
	}

	s.log(ctx).Info("todos deleted by state",
		slog.String("state", string(state)),
		slog.Int("count", n))
	return n, nil
}

// UpdateNotificationSettings replaces the reminder settings. Out of range
// reminder minutes are coerced to the default.
func (s *todoServiceImpl) UpdateNotificationSettings(
	ctx context.Context,
	id uuid.UUID,
	in domain.NotificationInput,
) (*domain.Todo, error) {
	const op = "update_notification_settings"
	if in.Enabled == nil {
		return nil, s.fail(ctx, op, "", domain.NewValidationError("notification.enabled", "is required", nil))
	}
	now := s.clock.Now()

	result, err := s.mutate(ctx, id, func(_ context.Context, _ store.TodoStore, todo *domain.Todo) (*domain.Todo, error) {
		return domain.ApplyUpdate(todo, domain.TodoPatch{Notification: &in}, now)
	})
	if err != nil {
		return nil, s.fail(ctx, op, "failed to update notification settings", err)
	}

	s.events.publish(ctx, events.TodoUpdated, result, now)
	return result, nil
}

// MarkNotified records reminder delivery.
func (s *todoServiceImpl) MarkNotified(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	now := s.clock.Now()

	result, err := s.mutate(ctx, id, func(_ context.Context, _ store.TodoStore, todo *domain.Todo) (*domain.Todo, error) {
		return domain.MarkNotified(todo, now)
	})
	if err != nil {
		return nil, s.fail(ctx, "mark_notified", "failed to mark todo notified", err)
	}
	return result, nil
}

// ListDueReminders returns pending and active one-time todos whose reminder
// time has been reached and that have not been notified yet.
func (s *todoServiceImpl) ListDueReminders(ctx context.Context) ([]*domain.Todo, error) {
	now := s.clock.Now()
	oneTime := domain.TodoTypeOneTime
	enabled := true

	candidates, err := s.todos.Find(ctx, store.TodoFilter{
		Type:                &oneTime,
		States:              []domain.TodoState{domain.TodoStatePending, domain.TodoStateActive},
		NotificationEnabled: &enabled,
	})
	if err != nil {
		return nil, s.fail(ctx, "list_due_reminders", "failed to query reminders", err)
	}

	due := make([]*domain.Todo, 0, len(candidates))
	for _, todo := range candidates {
		if todo.ReminderDue(now) {
			due = append(due, todo)
		}
	}
	return due, nil
}

// DisableNotificationsForTerminal turns off reminders on completed and failed todos.
func (s *todoServiceImpl) DisableNotificationsForTerminal(ctx context.Context) (int, error) {
	now := s.clock.Now()
	enabled := true
	count := 0

	err := store.InTx(ctx, s.db, s.todos, func(ctx context.Context, todos store.TodoStore) error {
		terminal, err := todos.Find(ctx, store.TodoFilter{
			States:              []domain.TodoState{domain.TodoStateCompleted, domain.TodoStateFailed},
			NotificationEnabled: &enabled,
		})
		if err != nil {
			return err
		}
		count = 0
		for _, todo := range terminal {
			next := domain.DisableNotification(todo, now)
			if next == nil {
				continue
			}
			if err := todos.Update(ctx, next); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(ctx, "disable_terminal_notifications", "failed to disable notifications", err)
	}

	if count > 0 {
		s.log(ctx).Info("disabled notifications on terminal todos", slog.Int("count", count))
	}
	return count, nil
}

// mutateFn computes the new version of todo. It runs inside the unit of work.
type mutateFn func(ctx context.Context, todos store.TodoStore, todo *domain.Todo) (*domain.Todo, error)

// mutate is the read-modify-write shared by single-todo operations.
func (s *todoServiceImpl) mutate(ctx context.Context, id uuid.UUID, fn mutateFn) (*domain.Todo, error) {
	var result *domain.Todo
	err := store.InTx(ctx, s.db, s.todos, func(ctx context.Context, todos store.TodoStore) error {
		todo, err := todos.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := fn(ctx, todos, todo)
		if err != nil {
			return err
		}
		if err := todos.Update(ctx, next); err != nil {
			return asDuplicate(err, next)
		}
		result = next
		return nil
	})
	return result, err
}

// fail classifies err and logs it: client errors at DEBUG, the rest at ERROR.
func (s *todoServiceImpl) fail(ctx context.Context, op, message string, err error) error {
	if message == "" {
		message = "invalid request"
	}
	mapped := NewTodoServiceError(op, message, err)
	if IsClientError(mapped) {
		s.log(ctx).Debug("todo operation rejected",
			slog.String("operation", op),
			slog.String("error", mapped.Error()))
	} else {
		s.log(ctx).Error("todo operation failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
	}
	return mapped
}

func (s *todoServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}
