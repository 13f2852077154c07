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

// WithCollection returns a logger scoped to one record collection
func WithCollection(unit string) *slog.Logger {
	return slog.With("collection", unit)
}

// WithAssistant returns a logger scoped to one assistant query
func WithAssistant(requestID, profile string) *slog.Logger {
	return slog.With(
		"request_id", requestID,
		"profile", profile,
	)
}
