package logger

import (
	"log/slog"
	"os"
)

// New creates the JSON slog.Logger for the given deployment environment.
// Debug records are suppressed in production.
func New(environment string) *slog.Logger {
	level := slog.LevelDebug
	if environment == "production" {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
