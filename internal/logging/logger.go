package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithUser returns a logger with the caller's identity attached. Use this for
// all logging inside document and backup operations.
func WithUser(userID string) *slog.Logger {
	return slog.With("user_id", userID)
}

// WithStore returns a logger scoped to a document store backend.
func WithStore(logger *slog.Logger, backend string) *slog.Logger {
	return logger.With("backend", backend)
}
