package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/YuminosukeSato/gemprep/pkg/errors"
)

// SetupLogger configures process-wide logging:
//   - slog's default logger emits JSON to stdout, with stack traces for errors
//   - the global provider becomes a zerolog provider at the same level
//   - errors.Warn is routed into that provider
func SetupLogger(loglevel string) {
	SetupLoggerWithWriter(os.Stdout, loglevel)
}

// SetupLoggerWithWriter is SetupLogger writing to w instead of stdout.
func SetupLoggerWithWriter(w io.Writer, loglevel string) {
	level := ToLogLevel(loglevel)
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))

	provider := NewZerologProviderWithWriter(w, Level(level))
	SetProvider(provider)
	errors.SetZerologWarnFunc(provider.Warning)
}

// ValidLevel reports whether level is accepted by ToLogLevel.
func ValidLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ToLogLevel converts a level name to slog.Level. It panics on unknown names;
// validate user input with ValidLevel first.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
