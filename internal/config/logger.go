package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger инициализирует структурированное логирование сервиса.
func SetupLogger() {
	slog.SetDefault(NewLogger(os.Stdout, os.Getenv("LOG_LEVEL")))
}

// NewLogger создает JSON логгер с уровнем из строки (debug, info, warn, error).
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
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
