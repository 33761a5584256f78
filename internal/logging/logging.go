// Package logging wires structured logging for ticketcore's demo host
// and for service-layer error reporting. Grounded on
// orris-inc-orris/internal/shared/logger: log/slog with
// github.com/lmittmann/tint for human-readable output, falling back to
// plain (no-color) text when stdout is not a terminal.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

var defaultLogger = newLogger("info", os.Stdout)

// Init replaces the package default logger. level is one of
// debug|info|warn|error (case-insensitive); anything else falls back to
// info.
func Init(level string) {
	defaultLogger = newLogger(level, os.Stdout)
	slog.SetDefault(defaultLogger)
}

// Get returns the current default logger.
func Get() *slog.Logger {
	return defaultLogger
}

// WithComponent scopes the default logger to a named subsystem, e.g.
// logging.WithComponent("service").
func WithComponent(component string) *slog.Logger {
	return defaultLogger.With("component", component)
}

func newLogger(level string, w io.Writer) *slog.Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      parseLevel(level),
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(w),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
