package main

import (
	"log/slog"
	"os"
)

// diagnosticLogger is the subset of *slog.Logger the CLI's commands
// use, named so subcommand constructors don't each spell out *slog.Logger.
type diagnosticLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// newDiagnosticLogger builds the CLI's own stderr diagnostic stream,
// separate from the decision output on stdout: a text handler at Info
// level by default, or Debug when WOW_DEBUG is set.
func newDiagnosticLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("WOW_DEBUG") != "" {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
