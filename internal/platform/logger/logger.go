// Package logger builds the process-wide structured logger. Handlers and
// services receive it by injection; nothing logs through a global.
package logger

import (
	"log/slog"
	"os"
)

// New returns a slog.Logger configured from the given level and format
// ("json" or "text"). Unknown values fall back to info-level JSON.
func New(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
