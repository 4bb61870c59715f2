// Package logging builds the process-scoped logger.
//
// The daemon writes one text record per event to stderr and appends the same
// record to a log file, so the file is a durable history of scans, moves and
// connection events. The logger is constructed once and handed to each
// component explicitly.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsguard/fsguard/internal/paths"
)

// Controls logger construction.
type Options struct {
	Level  slog.Level // Minimum level written to every destination.
	File   string     // Append-only log file. Empty disables file output.
	Stream io.Writer  // Console destination. Nil uses os.Stderr.
	Group  string     // Optional group wrapping all record attributes.
}

// A logger together with the file it appends to.
type Logger struct {
	*slog.Logger
	file *os.File
}

// Creates a logger for the given options.
//
// The log file and its parent directory are created if missing. The returned
// logger must be closed to release the file.
func New(opts Options) (*Logger, error) {
	stream := opts.Stream
	if stream == nil {
		stream = os.Stderr
	}

	l := &Logger{}
	out := stream

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), paths.DefaultDirMode); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLogFile, err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, paths.DefaultFileMode)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLogFile, err)
		}
		l.file = f
		out = io.MultiWriter(stream, f)
	}

	var handler slog.Handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level})
	if opts.Group != "" {
		handler = handler.WithGroup(opts.Group)
	}
	l.Logger = slog.New(handler)

	return l, nil
}

// Returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
