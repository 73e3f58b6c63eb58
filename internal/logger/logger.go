// Package logger configures the zerolog root logger and hands out
// per-component child loggers.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var root = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Setup replaces the root logger. format is "json" or "console".
func Setup(level, format string) zerolog.Logger {
	root = New(os.Stderr, level, format)
	return root
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Component returns a child of the root logger tagged with component.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

// Root returns the current root logger.
func Root() zerolog.Logger {
	return root
}
