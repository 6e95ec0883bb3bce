package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the diagnostics logger. Unknown levels fall back to info.
func newLogger(cfg configLog, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}
