package app

import (
	"io"
	"log/slog"
)

// NewLogger returns the diagnostic logger. Diagnostics go to w (stderr in the
// CLI) as text; Warn and above by default, Info and above when verbose. A nil
// writer discards everything.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
