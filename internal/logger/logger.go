// Package logger holds the process-wide slog logger. Records go to stderr so
// CLI output on stdout stays clean.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var (
	mu      sync.RWMutex
	current *slog.Logger
)

// Initialize configures the logger. format is "json", "text" or "pretty".
func Initialize(level, format string) {
	InitializeWithWriter(os.Stderr, level, format)
}

func InitializeWithWriter(w io.Writer, level, format string) {
	l := slog.New(newHandler(w, parseLevel(level), format))

	mu.Lock()
	current = l
	mu.Unlock()
	slog.SetDefault(l)
}

// parseLevel falls back to info for anything it does not know
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "pretty":
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

func get() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = slog.New(newHandler(os.Stderr, slog.LevelInfo, "text"))
	}
	return current
}

func Debug(msg string, args ...any) { get().Debug(msg, args...) }
func Info(msg string, args ...any)  { get().Info(msg, args...) }
func Warn(msg string, args ...any)  { get().Warn(msg, args...) }
func Error(msg string, args ...any) { get().Error(msg, args...) }

// EnterMethod, ExitMethod and ExitMethodWithError trace service calls at
// debug level; a failed exit is logged as an error.
func EnterMethod(method string, args ...any) {
	get().Debug("→ "+method, withPrefix(args, "method", method, "event", "enter")...)
}

func ExitMethod(method string, args ...any) {
	get().Debug("← "+method, withPrefix(args, "method", method, "event", "exit")...)
}

func ExitMethodWithError(method string, err error, args ...any) {
	get().Error("← "+method+" failed", withPrefix(args, "method", method, "event", "exit", "error", err)...)
}

// DatabaseCall and DatabaseResult bracket a journal query
func DatabaseCall(operation, query string, args ...any) {
	get().Debug("→ Database call", withPrefix(args, "operation", operation, "query", query)...)
}

func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	outcome("Database call", err, withPrefix(args, "operation", operation, "rows_affected", rowsAffected))
}

// ExternalServiceCall and ExternalServiceResult bracket one REST request
func ExternalServiceCall(service, operation string, args ...any) {
	get().Debug("→ External service call", withPrefix(args, "service", service, "operation", operation)...)
}

func ExternalServiceResult(service, operation string, err error, args ...any) {
	outcome("External service call", err, withPrefix(args, "service", service, "operation", operation))
}

func outcome(what string, err error, attrs []any) {
	if err != nil {
		get().Error("← "+what+" failed", append(attrs, "error", err)...)
		return
	}
	get().Debug("← "+what+" succeeded", attrs...)
}

func withPrefix(args []any, prefix ...any) []any {
	return append(prefix, args...)
}
