// Package telemetry wires process-wide observability: structured logging,
// Prometheus metrics, and the OpenTelemetry trace exporter.
package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger writing JSON lines to stderr at the
// given level. Unknown levels fall back to info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warning", "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
