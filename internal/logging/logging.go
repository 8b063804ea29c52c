// Package logging configures the process-wide structured logger.
//
// Components obtain a tagged logger via New("component") so every line
// carries its origin. Init is called once from main before any other
// package logs.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs the default slog logger. level is one of debug, info,
// warn, error (case-insensitive, defaults to info). format is "json"
// or "text" (defaults to text).
func Init(level, format string) {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// New returns a logger tagged with the given component name.
func New(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
