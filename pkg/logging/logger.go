// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

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

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is added to every entry as "service" when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Pretty:  false,
		Output:  os.Stderr,
		Service: "pagedlist",
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.Level.zerolog())

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	zctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	logger := zctx.Logger()

	log.Logger = logger

	return logger
}

// ParseLevel converts a configuration string to a LogLevel.
// "warning" is accepted as an alias of "warn".
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger for the given component derived from the
// global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Job queued / started (job_id, kind, page, pending)
//   - Cache hit/miss and TTL
//   - Upstream request flow
//
// Info: Normal operation events
//   - Retry of failed jobs
//   - Pages appended to a list
//   - Server startup/shutdown
//
// Warn: Conditions that don't stop processing
//   - A page job failed (kept for retry)
//   - Upstream retry attempts, rate limit throttling
//   - Cache errors (fallback to direct request)
//
// Error: Conditions requiring attention
//   - Upstream requests failed after retries
//   - Rate limit blocks
//   - Configuration errors
//
// Context Fields:
//   - executor: executor name
//   - job_id, kind, page, attempt: job identity
//   - pending, failed: queue and failed-store sizes
//   - endpoint, status_code, error_class, duration: upstream requests
