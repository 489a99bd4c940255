package app

import (
	"io"
	"log/slog"
)

// newLogger builds the isolated logger an App runs with. Unknown levels fall
// back to info. Every record carries the service name so engine and API logs
// can be told apart from the signer bridge when streams are merged.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler).With("service", "defigrid")
}
