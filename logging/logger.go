// Package logging builds the structured logger and keeps API usage
// statistics.
package logging

import (
	"io"
	"log/slog"
)

// NewLogger returns a text slog.Logger writing to w. Verbose loggers emit
// debug records, others start at info.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
