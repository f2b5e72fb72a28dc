// Package slogs holds the process-wide structured logger used by rule
// loading and watching. The logger is swappable at runtime.
package slogs

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	level  slog.LevelVar
	logger atomic.Value
)

func init() {
	level.Set(slog.LevelInfo)
	logger.Store(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	})))
}

func Logger() *slog.Logger {
	return logger.Load().(*slog.Logger)
}

// SetLogger replaces the package logger. The level of the new logger is
// controlled by its own handler, not by SetLevel.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// SetLevel adjusts the level of the default handler.
func SetLevel(l slog.Level) {
	level.Set(l)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}
