package logger

import (
	"log/slog"
	"os"
)

// New creates the process wide slog.Logger. Output is JSON on stdout so
// log collectors ingest it without a parsing stage.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With(slog.String("service", "atelier"))
}
