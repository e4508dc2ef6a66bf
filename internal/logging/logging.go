// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the root logger. Output is the human-readable console writer;
// level falls back to info when the configured name is unknown.
func New(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}
