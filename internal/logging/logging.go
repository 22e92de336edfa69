// Package logging builds the structured loggers used across the game.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/moles/internal/config"
)

// New returns a logger writing to stderr with the given prefix.
// The level is taken from LOG_LEVEL (debug, info, warn, error), default info.
func New(prefix string) *log.Logger {
	return NewWithWriter(os.Stderr, prefix)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, prefix string) *log.Logger {
	level, err := log.ParseLevel(config.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
