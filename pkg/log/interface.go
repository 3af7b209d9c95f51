// Package log provides the structured logging interface used by gemprep.
//
// The Logger interface is slog-compatible so the backend can be switched; the
// default backend is zerolog (see ZerologProvider). Components obtain loggers
// from the process-wide provider:
//
//	logger := log.GetLoggerWithName("ingestion").With(
//	    log.RunIDKey, runID,
//	)
//	logger.Info("Data read", log.SamplesKey, ds.Nrow(), log.PathKey, path)

package log

import (
	"context"
	"log/slog"
)

// Logger defines a structured logging interface compatible with log/slog.
type Logger interface {
	// Debug logs a debug-level message with optional key-value fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional key-value fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional key-value fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error it is
	// attached under the "error" key together with its stack trace.
	//
	//	logger.Error("Exception occurred at ingestion stage", err,
	//	    log.StageKey, "ingestion",
	//	)
	Error(msg string, fields ...any)

	// With returns a Logger that includes fields in every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, numerically compatible with slog.Level.
type Level int

const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers created by this provider.
	SetLevel(level Level)
}
