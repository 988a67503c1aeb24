package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/job"
	"github.com/phrazzld/todo-api/internal/platform/memory"
	"github.com/phrazzld/todo-api/internal/platform/natsbus"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the memory driver is selected.
	db    *sql.DB
	todos store.TodoStore

	emitter   *events.InMemoryEventEmitter
	publisher *natsbus.Publisher

	todoService service.TodoService
	reconciler  *service.Reconciler
	scheduler   *job.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	loc, err := cfg.Jobs.Location()
	if err != nil {
		return nil, err
	}

	switch cfg.Database.Driver {
	case "postgres":
		app.db, err = postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		app.todos = postgres.NewPostgresTodoStore(app.db, logger)
	case "memory":
		logger.Warn("using in-memory todo store; data is lost on restart")
		app.todos = memory.NewTodoStore(logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.NewLoggingHandler(logger))
	if cfg.Events.NATSURL != "" {
		app.publisher, err = natsbus.Connect(ctx, cfg.Events.NATSURL, cfg.Events.Stream, logger)
		if err != nil {
			return nil, err
		}
		app.emitter.RegisterHandler(app.publisher)
	}

	clock := domain.SystemClock{}
	app.todoService, err = service.NewTodoService(app.todos, app.db, app.emitter, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo service: %w", err)
	}
	app.reconciler, err = service.NewReconciler(app.todos, app.db, app.emitter, clock, loc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciler: %w", err)
	}

	app.scheduler = job.NewScheduler(job.DefaultSchedulerConfig(), logger)
	err = app.scheduler.RegisterAll(job.TodoJobs(app.reconciler, app.todoService, job.Intervals{
		OverdueSweep:             cfg.Jobs.OverdueSweepInterval,
		DailyRollover:            cfg.Jobs.DailyRolloverInterval,
		NotificationHousekeeping: cfg.Jobs.HousekeepingInterval,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	return app, nil
}

// runJobOnce runs a single job synchronously, for cron-style deployments
// that disable the in-process scheduler.
func (app *application) runJobOnce(ctx context.Context, name string) error {
	result, err := app.scheduler.RunNow(ctx, name)
	if err != nil {
		return fmt.Errorf("job %s failed: %w", name, err)
	}
	app.logger.Info("job finished",
		slog.String("job", result.Job),
		slog.Int("processed", result.Processed),
		slog.Duration("duration", result.Duration))
	return nil
}

// cleanup releases external connections. It is safe to call on a
// partially built application.
func (app *application) cleanup() {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("failed to close NATS publisher", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
