// Package logging wires up the structured console logger shared by both
// daemons: log/slog with a tint handler for readable, colorized output.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New builds a slog.Logger at the given level ("debug", "info", "warn",
// "error") tagged with the process instance id so co-located SlotProxy and
// WSJFScheduler instances can be told apart in aggregated logs.
func New(level string, instanceID string) *slog.Logger {
	h := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(level),
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("instance", instanceID)
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
