// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// DefaultService is the service field attached to every log line.
const DefaultService = "pulsepass"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel `validate:"omitempty,oneof=debug info warn warning error"`

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Service is attached to every entry as the "service" field.
	Service string `validate:"omitempty,max=64"`

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Pretty:  false,
		Service: DefaultService,
		Output:  os.Stderr,
	}
}

// Validate checks the level and service name.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid logger config: %w", err)
	}
	return nil
}

// Setup configures the global zerolog logger. Loggers derived from the
// global one before Setup keep their old configuration.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	// Create logger with timestamp and service
	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForRun derives a logger for one collection run of endpoint, tagged with a
// fresh run_id so the pages of concurrent runs can be told apart.
func ForRun(parent zerolog.Logger, endpoint string) zerolog.Logger {
	return parent.With().
		Str("endpoint", endpoint).
		Str("run_id", uuid.NewString()).
		Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Page-by-page progress (page, items, has_next)
//   - Cache operations (hit/miss, key, TTL)
//   - Request flow (conditional requests, ETags)
//
// Info: Normal operation events
//   - Collection finished (pages, items, outcome)
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Page fetch failed, partial results returned
//   - Page cap reached
//   - Undecodable items skipped
//   - Rate limit throttling, retry attempts, cache errors
//
// Error: Error conditions requiring attention
//   - Rate limit exhausted (requests blocked)
//   - Configuration errors
//
// Context Fields:
//   - component: collector, api-client, catalog, proxy
//   - run_id: one collection run
//   - endpoint: API endpoint path
//   - page: page number of a collection
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network
//   - remaining: requests left in the rate limit window
//   - etag, ttl: cache entry details
