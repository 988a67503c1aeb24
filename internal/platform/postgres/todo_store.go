package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// todoColumns lists the columns read by every todo query, in scan order.
const todoColumns = `id, text, type, state, due_at, created_at, updated_at,
	activated_at, completed_at, failed_at, is_reactivation, original_id,
	notification_enabled, notification_reminder_minutes, notification_notified_at`

// PostgresTodoStore implements the store.TodoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTodoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTodoStore creates a new PostgreSQL implementation of the TodoStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTodoStore(db store.DBTX, logger *slog.Logger) *PostgresTodoStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTodoStore{
		db:     db,
		logger: logger.With(slog.String("component", "todo_store")),
	}
}

// Ensure PostgresTodoStore implements store.TodoStore interface
var _ store.TodoStore = (*PostgresTodoStore)(nil)

// WithTx implements store.TodoStore.WithTx
func (s *PostgresTodoStore) WithTx(tx *sql.Tx) store.TodoStore {
	return &PostgresTodoStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TodoStore.Create
func (s *PostgresTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		log.Warn("todo validation failed during create",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query, todoArgs(todo)...)
	if err != nil {
		err = MapError(err)
		if store.IsDuplicateError(err) {
			log.Debug("active todo already exists",
				slog.String("todo_id", todo.ID.String()),
				slog.String("type", string(todo.Type)))
			return err
		}
		log.Error("failed to create todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return store.NewStoreError("todo", "create", "failed to insert todo", err)
	}

	log.Debug("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("state", string(todo.State)))
	return nil
}

// GetByID implements store.TodoStore.GetByID
func (s *PostgresTodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("todo not found", slog.String("todo_id", id.String()))
			return nil, store.ErrTodoNotFound
		}
		log.Error("failed to get todo by ID",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return nil, store.NewStoreError("todo", "get", "failed to query todo", MapError(err))
	}
	return todo, nil
}

// FindOne implements store.TodoStore.FindOne
func (s *PostgresTodoStore) FindOne(ctx context.Context, filter store.TodoFilter) (*domain.Todo, error) {
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
func (s *PostgresTodoStore) Find(ctx context.Context, filter store.TodoFilter) ([]*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildWhere(filter)
	query := `SELECT ` + todoColumns + ` FROM todos` + where + ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query todos", slog.String("error", err.Error()))
		return nil, store.NewStoreError("todo", "find", "failed to query todos", MapError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	todos := make([]*domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			log.Error("failed to scan todo row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("todo", "find", "failed to scan todo", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating todo rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("todo", "find", "failed to iterate todos", err)
	}

	log.Debug("todos found", slog.Int("count", len(todos)))
	return todos, nil
}

// Update implements store.TodoStore.Update
func (s *PostgresTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		log.Warn("todo validation failed during update",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	query := `
		UPDATE todos
		SET text = $2, type = $3, state = $4, due_at = $5, created_at = $6, updated_at = $7,
			activated_at = $8, completed_at = $9, failed_at = $10, is_reactivation = $11,
			original_id = $12, notification_enabled = $13, notification_reminder_minutes = $14,
			notification_notified_at = $15
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, todoArgs(todo)...)
	if err != nil {
		err = MapError(err)
		if store.IsDuplicateError(err) {
			log.Debug("update would create a second active todo",
				slog.String("todo_id", todo.ID.String()))
			return err
		}
		log.Error("failed to update todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return store.NewStoreError("todo", "update", "failed to update todo", err)
	}

	if err := CheckRowsAffected(result, store.ErrTodoNotFound); err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			log.Debug("todo not found for update", slog.String("todo_id", todo.ID.String()))
			return err
		}
		return store.NewStoreError("todo", "update", "failed to check affected rows", err)
	}

	log.Debug("todo updated",
		slog.String("todo_id", todo.ID.String()),
		slog.String("state", string(todo.State)))
	return nil
}

// Delete implements store.TodoStore.Delete
func (s *PostgresTodoStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return store.NewStoreError("todo", "delete", "failed to delete todo", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTodoNotFound); err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return err
		}
		return store.NewStoreError("todo", "delete", "failed to check affected rows", err)
	}

	log.Debug("todo deleted", slog.String("todo_id", id.String()))
	return nil
}

// DeleteMany implements store.TodoStore.DeleteMany
func (s *PostgresTodoStore) DeleteMany(ctx context.Context, filter store.TodoFilter) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildWhere(filter)
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos`+where, args...)
	if err != nil {
		log.Error("failed to delete todos", slog.String("error", err.Error()))
		return 0, store.NewStoreError("todo", "delete_many", "failed to delete todos", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("todo", "delete_many", "failed to get rows affected", err)
	}

	log.Debug("todos deleted", slog.Int64("count", n))
	return int(n), nil
}

// buildWhere renders filter as a WHERE clause with positional arguments.
// Limit is not part of the clause.
func buildWhere(filter store.TodoFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Text != nil {
		conds = append(conds, "text = "+arg(*filter.Text))
	}
	if filter.Type != nil {
		conds = append(conds, "type = "+arg(string(*filter.Type)))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, st := range filter.States {
			placeholders[i] = arg(string(st))
		}
		conds = append(conds, "state IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_at < "+arg(*filter.DueBefore))
	}
	if filter.ActivatedFrom != nil {
		conds = append(conds, "activated_at >= "+arg(*filter.ActivatedFrom))
	}
	if filter.ActivatedBefore != nil {
		conds = append(conds, "activated_at < "+arg(*filter.ActivatedBefore))
	}
	if filter.NotificationEnabled != nil {
		conds = append(conds, "notification_enabled = "+arg(*filter.NotificationEnabled))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// todoArgs returns todo's column values in todoColumns order.
func todoArgs(todo *domain.Todo) []interface{} {
	var (
		enabled  sql.NullBool
		minutes  sql.NullInt32
		notified sql.NullTime
		original uuid.NullUUID
	)
	if n := todo.Notification; n != nil {
		enabled = sql.NullBool{Bool: n.Enabled, Valid: true}
		minutes = sql.NullInt32{Int32: int32(n.ReminderMinutes), Valid: true}
		notified = nullTime(n.NotifiedAt)
	}
	if todo.OriginalID != nil {
		original = uuid.NullUUID{UUID: *todo.OriginalID, Valid: true}
	}

	return []interface{}{
		todo.ID,
		todo.Text,
		string(todo.Type),
		string(todo.State),
		nullTime(todo.DueAt),
		todo.CreatedAt.UTC(),
		todo.UpdatedAt.UTC(),
		nullTime(todo.ActivatedAt),
		nullTime(todo.CompletedAt),
		nullTime(todo.FailedAt),
		todo.IsReactivation,
		original,
		enabled,
		minutes,
		notified,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var (
		todo                                      domain.Todo
		todoType, state                           string
		dueAt, activatedAt, completedAt, failedAt sql.NullTime
		original                                  uuid.NullUUID
		enabled                                   sql.NullBool
		minutes                                   sql.NullInt32
		notified                                  sql.NullTime
	)

	err := row.Scan(
		&todo.ID,
		&todo.Text,
		&todoType,
		&state,
		&dueAt,
		&todo.CreatedAt,
		&todo.UpdatedAt,
		&activatedAt,
		&completedAt,
		&failedAt,
		&todo.IsReactivation,
		&original,
		&enabled,
		&minutes,
		&notified,
	)
	if err != nil {
		return nil, err
	}

	todo.Type = domain.TodoType(todoType)
	todo.State = domain.TodoState(state)
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	todo.DueAt = timeFromNull(dueAt)
	todo.ActivatedAt = timeFromNull(activatedAt)
	todo.CompletedAt = timeFromNull(completedAt)
	todo.FailedAt = timeFromNull(failedAt)
	if original.Valid {
		id := original.UUID
		todo.OriginalID = &id
	}
	if enabled.Valid {
		todo.Notification = &domain.Notification{
			Enabled:         enabled.Bool,
			ReminderMinutes: int(minutes.Int32),
			NotifiedAt:      timeFromNull(notified),
		}
	}
	return &todo, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timeFromNull(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
