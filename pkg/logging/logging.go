// Package logging sets up the structured logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// ParseLevel accepts debug, info, warn or error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// IsTerminal reports whether w is a console.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New logs text to a terminal and JSON to anything else.
func New(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if IsTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Setup builds the default logger. With a path, records also go to that
// file, appended; close it with the returned function.
func Setup(path, level string) (*slog.Logger, func() error, error) {
	lv, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		logger := New(os.Stderr, lv)
		slog.SetDefault(logger)
		return logger, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := New(io.MultiWriter(os.Stderr, f), lv)
	slog.SetDefault(logger)
	return logger, f.Close, nil
}
