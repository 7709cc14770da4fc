package logger

import (
	"log/slog"
	"os"
)

// InitLogger sets up the global structured logger.
// JSON output to stdout; level taken from LOG_LEVEL (debug when unset).
func InitLogger() {
	level := slog.LevelDebug
	switch os.Getenv("LOG_LEVEL") {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
}
