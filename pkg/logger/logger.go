// Package logger определяет общий интерфейс логирования поверх slog.
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger — интерфейс логирования, внедряемый во все слои приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger создает логгер с JSON-выводом в stdout.
// Уровень задается переменной окружения LOG_LEVEL (debug|info|warn|error).
func NewSlogLogger() *SlogLogger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &SlogLogger{log: slog.New(handler)}
}

func (l *SlogLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Errorf(err error, format string, args ...any) {
	if err != nil {
		l.log.Error(fmt.Sprintf(format, args...), slog.Any("error", err))
		return
	}
	l.log.Error(fmt.Sprintf(format, args...))
}
