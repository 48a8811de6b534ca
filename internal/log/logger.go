package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Options controls how New builds the run logger
type Options struct {
	// Level is the minimum level written to the log file
	Level slog.Level
	// File is the log file path. When empty only error records are emitted, to Console.
	File string
	// Console receives error records rendered by the friendly handler
	Console io.Writer
}

// New builds the logger for one run. Every record carries a run_id so that
// the passes of a long running cleanup can be told apart in the log file.
// The returned closer releases the log file, if one was opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var primary slog.Handler
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		primary = slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: replaceLevelName,
		})
	}

	var console slog.Handler
	if opts.Console != nil {
		console = NewFriendlyErrorHandler(opts.Console)
	}

	logger := slog.New(NewDualHandler(primary, console)).With(slog.String("run_id", uuid.NewString()))
	return logger, closer, nil
}

// replaceLevelName renders LevelTrace as TRACE instead of DEBUG-4
func replaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
