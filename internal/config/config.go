package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the todo store: postgres or memory.
	Driver       string `mapstructure:"driver"         validate:"required,oneof=postgres memory"`
	URL          string `mapstructure:"url"            validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// JobsConfig controls the in-process reconciliation scheduler.
type JobsConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	OverdueSweepInterval  time.Duration `mapstructure:"overdue_sweep_interval"  validate:"gte=1s"`
	DailyRolloverInterval time.Duration `mapstructure:"daily_rollover_interval" validate:"gte=1s"`
	HousekeepingInterval  time.Duration `mapstructure:"housekeeping_interval"   validate:"gte=1s"`

	// Timezone is the IANA zone whose midnight bounds the daily rollover window.
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// EventsConfig configures lifecycle event publishing.
type EventsConfig struct {
	// NATSURL enables the JetStream publisher when set.
	NATSURL string `mapstructure:"nats_url" validate:"omitempty,url"`
	Stream  string `mapstructure:"stream"   validate:"required_with=NATSURL"`
}

// Location resolves the configured timezone.
func (c JobsConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid jobs.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
