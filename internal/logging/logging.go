// Package logging provides structured logging for the server and CLIs.
// The conversion library itself stays silent and reports through errors;
// this package is wired in at the process boundary.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects the handler output encoding.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var logger = slog.Default()

// InitLogger configures the package logger with the given level and format.
// Unknown levels default to info, unknown formats to text.
func InitLogger(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { logger.Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { logger.Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { logger.Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { logger.Error(msg, args...) }

// HTTPRequest logs one served request with the standard field set.
func HTTPRequest(method, path, remoteAddr, requestID string, status int, duration time.Duration) {
	logger.Info("http request",
		"method", method,
		"path", path,
		"remote", remoteAddr,
		"request_id", requestID,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)
}
