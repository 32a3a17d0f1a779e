package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type defaultLogger struct {
	level int
	inner *slog.Logger
}

func NewLogger(level int) *defaultLogger {
	return NewLoggerWithWriter(level, os.Stderr)
}

func NewLoggerWithWriter(level int, w io.Writer) *defaultLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	return &defaultLogger{level: level, inner: slog.New(handler)}
}

// ParseLevel converts names like "debug" or "warn" to a level. Unknown names
// fall back to INFO.
func ParseLevel(s string) int {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "silence", "off":
		return SILENCE
	default:
		return INFO
	}
}

func (l *defaultLogger) Debugf(msg string, a ...any) {
	l.log(DEBUG, slog.LevelDebug, msg, a...)
}

func (l *defaultLogger) Infof(msg string, a ...any) {
	l.log(INFO, slog.LevelInfo, msg, a...)
}

func (l *defaultLogger) Warnf(msg string, a ...any) {
	l.log(WARNING, slog.LevelWarn, msg, a...)
}

func (l *defaultLogger) Errorf(msg string, a ...any) {
	l.log(ERROR, slog.LevelError, msg, a...)
}

func (l *defaultLogger) log(level int, slevel slog.Level, msg string, a ...any) {
	if l.level > level {
		return
	}

	l.inner.Log(context.Background(), slevel, fmt.Sprintf(msg, a...))
}

func slogLevel(level int) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARNING:
		return slog.LevelWarn
	case ERROR, SILENCE:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
