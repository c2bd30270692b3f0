package cli

import (
	"log/slog"
	"os"
)

// newLogger creates a stderr logger. Client calls log at debug, so the
// default warn level keeps command output clean.
func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseSlogLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
