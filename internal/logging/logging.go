package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a service-scoped JSON logger writing to stdout.
// level accepts the usual zerolog names ("debug", "info", ...); anything
// unparseable falls back to info rather than failing startup.
func New(service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
