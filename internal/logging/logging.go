// Package logging builds the application's structured loggers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Options controls logger construction.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string

	// Format is text or json. Empty means text.
	Format string

	// Writer receives log output. Nil means standard error.
	Writer io.Writer
}

// New creates a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				if level, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(strings.ToLower(level.String()))
				}
			}
			return a
		},
	}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(writer, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(writer, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %q", opts.Format)
	}
}

// Discard returns a logger that drops everything. Components use it when
// no logger is configured.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", level)
	}
}
