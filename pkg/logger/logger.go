// Package logger builds the slog logger shared by all commands.
package logger

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a tinted text logger writing to w. Terminal output belongs to
// the interaction loop, so callers pass stderr.
func New(level string, w io.Writer) *slog.Logger {
	h := tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("app", "riverflow")
}

// ParseLevel maps a LOG_LEVEL string to a slog level. Unknown values fall
// back to warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
