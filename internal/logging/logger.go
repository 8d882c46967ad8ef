package logging

import (
	"io"
	"log/slog"
	"os"
)

// CorrelationKey is the attribute name used to tag log records with the
// caller supplied correlation identifier.
const CorrelationKey = "correlation_id"

// New creates a JSON slog logger configured at the provided level. If the
// level string is invalid it defaults to info.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// WithCorrelation returns a child logger whose records all carry the
// correlation identifier.
func WithCorrelation(logger *slog.Logger, correlationID string) *slog.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With(slog.String(CorrelationKey, correlationID))
}

// Discard returns a logger that drops all output. Useful for tests.
func Discard() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}
