package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Logger provides leveled, printf-style logging throughout the application on top of slog.
type Logger struct {
	slog *slog.Logger
}

// LoggerOptions configures NewLoggerWith.
type LoggerOptions struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer
	Level  slog.Leveler
	// Color selects the tint handler; otherwise a plain slog text handler is used.
	Color bool
}

// NewLogger creates a colored Logger writing info and above to stdout.
func NewLogger() *Logger {
	return NewLoggerWith(LoggerOptions{Level: slog.LevelInfo, Color: true})
}

// NewLoggerWith creates a Logger from explicit options.
func NewLoggerWith(opts LoggerOptions) *Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if opts.Color {
		handler = tint.NewHandler(opts.Writer, &tint.Options{
			Level:      opts.Level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		handler = slog.NewTextHandler(opts.Writer, &slog.HandlerOptions{Level: opts.Level})
	}
	return &Logger{slog: slog.New(handler)}
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (l *Logger) Info(format string, args ...any) {
	l.slog.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.slog.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.slog.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.slog.Debug(fmt.Sprintf(format, args...))
}
