// Package logger configures JSON structured logging for the API.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup creates a JSON slog.Logger writing to w.
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// SetupDefault installs the JSON logger as the global default.
// Production is expected to pass os.Stdout.
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w))
}
