package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog sets the process-wide default logger. verbose enables debug
// logging, which includes full request/response transcripts from
// instrumented http clients.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
