// Package logger centralizes slog setup so every package logs through one
// configuration; level and format come from the environment.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Process-wide default logger, initialized once and reused.
var defaultLogger *slog.Logger

// Setup initializes the default logger. Output goes to stderr; LOG_LEVEL
// selects the level and LOG_FORMAT=json switches to the JSON handler.
func Setup() *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// L returns the default logger, initializing it on first use.
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}
