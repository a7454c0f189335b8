package logging

import (
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance
func InitLogger(logDir string) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLogger(logDir),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// logger returns the configured logger, or a console fallback when
// InitLogger has not run yet (early boot, tests).
func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}
