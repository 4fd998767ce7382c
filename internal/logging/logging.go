// Package logging configures the process-wide slog default used by every
// component. Level comes from LOG_LEVEL (debug, info, warn, error).
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the tint handler as the slog default.
func Setup() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      levelFromEnv(),
		TimeFormat: time.TimeOnly,
	})))
}

// Disable silences all logging, for clean CLI output.
func Disable() {
	slog.SetDefault(slog.New(slog.DiscardHandler))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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
