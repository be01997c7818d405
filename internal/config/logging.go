package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns a console logger on stderr at the configured level.
func (c *Config) Logger() zerolog.Logger {
	return NewLogger(os.Stderr, c.Level())
}

// NewLogger returns a console logger writing to w.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
