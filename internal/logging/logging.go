// Package logging builds the process-wide slog.Logger used across mcpd.
// Long-lived components (supervisor, front server, middleware pipeline,
// proxy) derive a child logger from it with Logger.With("component", ...)
// and attach a "service" attribute where one applies.
package logging

import (
	"log/slog"
	"os"
)

// FormatEnv is the environment variable selecting the handler format.
const FormatEnv = "MCPD_LOG_FORMAT"

// New builds the root logger. verbose lowers the level to Debug; format is
// "json" or "text" (the default), read from MCPD_LOG_FORMAT when format is
// empty.
func New(verbose bool, format string) *slog.Logger {
	if format == "" {
		format = os.Getenv(FormatEnv)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
