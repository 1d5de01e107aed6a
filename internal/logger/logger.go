// Package logger builds the zerolog logger handed to every component.
// Output always goes to the given writer (stderr in the binaries) so stdout
// stays free for JSON responses.
package logger

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Production bool
	Level      string
}

// New returns a JSON logger in production and a console logger otherwise.
func New(w io.Writer, opts Options) zerolog.Logger {
	var l zerolog.Logger
	if opts.Production {
		l = zerolog.New(w).With().Timestamp().Logger()
	} else {
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		l = zerolog.New(cw).With().Timestamp().Caller().Logger()
	}
	return l.Level(parseLevel(opts.Level))
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
