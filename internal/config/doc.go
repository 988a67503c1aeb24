// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components while keeping
// configuration details separate from business logic.
//
// Every key can be overridden with a TODO_ prefixed environment variable,
// with dots replaced by underscores (database.url becomes TODO_DATABASE_URL).
package config
