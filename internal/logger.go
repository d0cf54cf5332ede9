package internal

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger described by cfg. The text format uses
// charmbracelet/log as the slog handler; its levels share slog's numbering.
func NewLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.Level(cfg.LogLevel),
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}
