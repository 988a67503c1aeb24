// Package main implements the entry point for the todo API server, which
// serves the todo lifecycle over HTTP and runs the reconciliation jobs
// (overdue sweep, daily rollover, notification housekeeping) in process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/job"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
)

// options holds the parsed command line.
type options struct {
	configPath string
	migrate    string
	runJob     string
}

var migrateCommands = map[string]bool{
	"up": true, "down": true, "status": true, "version": true, "reset": true,
}

var jobNames = map[string]bool{
	job.OverdueSweep: true, job.DailyRollover: true, job.NotificationHousekeeping: true,
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("todo server exited with error", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses args. At most one of -migrate and -run-job may be set.
func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("todo-server", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "path to a config file (default: ./config.yaml if present)")
	fs.StringVar(&opts.migrate, "migrate", "", "run a migration command (up, down, status, version, reset) and exit")
	fs.StringVar(&opts.runJob, "run-job", "", "run one job (overdue-sweep, daily-rollover, notification-housekeeping) and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.migrate != "" && opts.runJob != "" {
		return options{}, errors.New("-migrate and -run-job cannot be combined")
	}
	if opts.migrate != "" && !migrateCommands[opts.migrate] {
		return options{}, fmt.Errorf("unknown migration command %q", opts.migrate)
	}
	if opts.runJob != "" && !jobNames[opts.runJob] {
		return options{}, fmt.Errorf("unknown job %q", opts.runJob)
	}
	return opts, nil
}

// run loads configuration and dispatches to migrations, a one-off job or
// the server.
func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("jobs_enabled", cfg.Jobs.Enabled),
		slog.Bool("nats_enabled", cfg.Events.NATSURL != ""))

	if opts.migrate != "" {
		return runMigrations(ctx, cfg, opts.migrate, log)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	if opts.runJob != "" {
		return app.runJobOnce(ctx, opts.runJob)
	}
	return app.serve(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}

// runMigrations applies a goose command against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, command string, log *slog.Logger) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations require the postgres driver, got %q", cfg.Database.Driver)
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("failed to close database", slog.String("error", cerr.Error()))
		}
	}()

	return postgres.Migrate(ctx, db, command, log)
}
