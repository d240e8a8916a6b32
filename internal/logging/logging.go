// Package logging configures hivebot's structured logger (C8), matching
// the teacher's (haasonsaas/nexus) ambient stack: a single *slog.Logger
// built once at startup and passed by value into every adapter and
// long-lived service, grounded on cmd/nexus/main.go's
// slog.New(slog.NewJSONHandler(...)) and internal/audit/logger.go's
// *slog.Logger field pattern.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process-wide logger: JSON output to stderr (suitable
// for both a terminal and a log aggregator), at levelName's level
// ("debug", "info", "warn", "error"; defaults to "info" on anything
// else). Also installs it as slog.Default so third-party code that logs
// through the package-level functions inherits the same handler.
func New(levelName string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(levelName),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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
