// Package logging builds the slog loggers shared by the arbor commands and services.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Level is the level the CLI logs at: Debug when debug is set, Warn otherwise.
func Level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// New returns the command-line logger. Stdout carries the JSON documents and
// Mermaid output of the commands, so logs always go to Stderr.
func New(debug bool) *slog.Logger {
	return NewWriter(os.Stderr, Level(debug))
}

// NewWriter returns a text logger on w. The "error" key is written as "err",
// matching the key the runtime middlewares use.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a logger that drops every record.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
