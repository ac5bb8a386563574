// internal/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu        sync.RWMutex
	level     = new(slog.LevelVar)
	logFormat = "text"
	out       io.Writer = os.Stderr
	log       = newLogger(out, logFormat)
)

// Init configures level, output format ("text" or "json") and destination.
// A nil writer keeps the current one.
func Init(levelStr, formatStr string, w io.Writer) {
	SetLevel(levelStr)

	mu.Lock()
	defer mu.Unlock()
	if w != nil {
		out = w
	}
	logFormat = strings.ToLower(formatStr)
	log = newLogger(out, logFormat)
}

// SetOutput sets the output for all levels
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	out = w
	log = newLogger(out, logFormat)
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level.Set(ParseLevel(levelStr))
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown names are info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
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

// Logger returns the underlying structured logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func newLogger(w io.Writer, f string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func logf(l slog.Level, msg string, v ...interface{}) {
	lg := Logger()
	if !lg.Enabled(context.Background(), l) {
		return
	}
	lg.Log(context.Background(), l, fmt.Sprintf(msg, v...))
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	logf(slog.LevelDebug, format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	logf(slog.LevelInfo, format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	logf(slog.LevelWarn, format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	logf(slog.LevelError, format, v...)
}
