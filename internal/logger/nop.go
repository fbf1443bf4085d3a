package logger

import (
	"io"
	"log/slog"
)

// NewNop creates a no-op logger that discards all output.
// Use as a default when logging is not configured (tests, library callers).
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
