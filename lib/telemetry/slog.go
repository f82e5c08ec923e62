package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default logger; debug enables request dumps and
// other verbose output across the process.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
