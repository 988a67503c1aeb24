package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// Reconciler runs the batch jobs that advance todo state without user
// action. It assumes at most one run of each job at a time; the scheduler
// in internal/job provides that.
type Reconciler struct {
	todos  store.TodoStore
	db     *sql.DB
	events *eventPublisher
	clock  domain.Clock
	loc    *time.Location
	logger *slog.Logger
}

// NewReconciler creates a Reconciler. loc bounds the calendar day used by
// the daily rollover; nil means UTC. A nil clock reads the system clock.
func NewReconciler(
	todos store.TodoStore,
	db *sql.DB,
	emitter events.EventEmitter,
	clock domain.Clock,
	loc *time.Location,
	logger *slog.Logger,
) (*Reconciler, error) {
	if todos == nil {
		return nil, &TodoServiceError{Operation: "create_reconciler", Message: "todos cannot be nil"}
	}
	if emitter == nil {
		return nil, &TodoServiceError{Operation: "create_reconciler", Message: "emitter cannot be nil"}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reconciler")

	return &Reconciler{
		todos:  todos,
		db:     db,
		events: &eventPublisher{emitter: emitter, logger: logger},
		clock:  clock,
		loc:    loc,
		logger: logger,
	}, nil
}

// RunOverdueSweep fails every active one-time todo whose due date has
// passed and returns how many were failed. A todo that cannot be failed is
// logged and skipped; only a failure to list candidates aborts the run.
func (r *Reconciler) RunOverdueSweep(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, r.logger).With("job", "overdue_sweep")
	now := r.clock.Now()
	oneTime := domain.TodoTypeOneTime

	overdue, err := r.todos.Find(ctx, store.TodoFilter{
		Type:      &oneTime,
		States:    []domain.TodoState{domain.TodoStateActive},
		DueBefore: &now,
	})
	if err != nil {
		log.Error("failed to list overdue todos", slog.String("error", err.Error()))
		return 0, NewTodoServiceError("overdue_sweep", "failed to list overdue todos", err)
	}

	processed, skipped := 0, 0
	for _, candidate := range overdue {
		if err := ctx.Err(); err != nil {
			return processed, NewTodoServiceError("overdue_sweep", "interrupted", err)
		}

		var failed *domain.Todo
		err := store.InTx(ctx, r.db, r.todos, func(ctx context.Context, todos store.TodoStore) error {
			// Re-read so a todo completed since the listing is left alone.
			todo, err := todos.GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !todo.IsOverdue(now) {
				return nil
			}
			next, err := domain.Fail(todo, now)
			if err != nil {
				return err
			}
			if err := todos.Update(ctx, next); err != nil {
				return err
			}
			failed = next
			return nil
		})
		if err != nil {
			skipped++
			log.Warn("skipping todo in overdue sweep",
				slog.String("todo_id", candidate.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if failed == nil {
			continue
		}

		processed++
		r.events.publish(ctx, events.TodoFailed, failed, now)
	}

	log.Info("overdue sweep finished",
		slog.Int("processed", processed),
		slog.Int("skipped", skipped))
	return processed, nil
}

// RunDailyRollover makes sure every daily todo text has an instance
// activated within today's calendar window and returns how many instances
// were created. Active instances left over from earlier days are failed
// first so that at most one active instance per text exists. Running it
// again on the same day creates nothing.
func (r *Reconciler) RunDailyRollover(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, r.logger).With("job", "daily_rollover")
	now := r.clock.Now()
	dayStart, dayEnd := domain.DayWindow(now, r.loc)
	daily := domain.TodoTypeDaily

	all, err := r.todos.Find(ctx, store.TodoFilter{Type: &daily})
	if err != nil {
		log.Error("failed to list daily todos", slog.String("error", err.Error()))
		return 0, NewTodoServiceError("daily_rollover", "failed to list daily todos", err)
	}

	templates := latestByText(all)

	activated, skipped := 0, 0
	for _, template := range templates {
		if err := ctx.Err(); err != nil {
			return activated, NewTodoServiceError("daily_rollover", "interrupted", err)
		}

		var (
			created *domain.Todo
			stale   []*domain.Todo
		)
		err := store.InTx(ctx, r.db, r.todos, func(ctx context.Context, todos store.TodoStore) error {
			created, stale = nil, nil

			text := template.Text
			// Any instance activated today counts, so completing today's
			// instance does not spawn another one before midnight.
			today, err := todos.Find(ctx, store.TodoFilter{
				Text:            &text,
				Type:            &daily,
				ActivatedFrom:   &dayStart,
				ActivatedBefore: &dayEnd,
				Limit:           1,
			})
			if err != nil {
				return err
			}
			if len(today) > 0 {
				return nil
			}

			leftovers, err := todos.Find(ctx, store.TodoFilter{
				Text:   &text,
				Type:   &daily,
				States: []domain.TodoState{domain.TodoStateActive},
			})
			if err != nil {
				return err
			}
			for _, old := range leftovers {
				failed, err := domain.Fail(old, now)
				if err != nil {
					return err
				}
				if err := todos.Update(ctx, failed); err != nil {
					return err
				}
				stale = append(stale, failed)
			}

			instance, err := domain.NewDailyInstance(template, now)
			if err != nil {
				return err
			}
			if err := todos.Create(ctx, instance); err != nil {
				return asDuplicate(err, instance)
			}
			created = instance
			return nil
		})
		if err != nil {
			skipped++
			log.Warn("skipping daily todo in rollover",
				slog.String("todo_id", template.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		for _, old := range stale {
			r.events.publish(ctx, events.TodoFailed, old, now)
		}
		if created != nil {
			activated++
			r.events.publish(ctx, events.TodoActivated, created, now)
		}
	}

	log.Info("daily rollover finished",
		slog.Int("activated", activated),
		slog.Int("skipped", skipped),
		slog.Time("day_start", dayStart))
	return activated, nil
}

// latestByText keeps the most recently created todo per text, in order of
// first appearance. todos must be ordered by creation time.
func latestByText(todos []*domain.Todo) []*domain.Todo {
	index := make(map[string]int, len(todos))
	out := make([]*domain.Todo, 0, len(todos))
	for _, todo := range todos {
		if i, ok := index[todo.Text]; ok {
			out[i] = todo
			continue
		}
		index[todo.Text] = len(out)
		out = append(out, todo)
	}
	return out
}
