// Package logging builds the process logger: a console handler whose level
// can change at runtime, plus optional per-run info and debug log files.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures Setup.
type Options struct {
	Level   string
	Console io.Writer // default os.Stderr
	// Dir receives info_<ts>.log, plus debug_<ts>.log when Level is debug.
	// Empty disables log files.
	Dir string
	Now func() time.Time
}

type logFile struct {
	name  string
	level slog.Level
}

// Logger is the process logger with its adjustable console level and open
// log files.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	files []*os.File
}

// Setup creates the logger. Callers must Close it to release log files.
func Setup(opts Options) (*Logger, error) {
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Logger{level: new(slog.LevelVar)}
	l.level.Set(ParseLevel(opts.Level))

	handlers := []slog.Handler{
		slog.NewTextHandler(opts.Console, &slog.HandlerOptions{Level: l.level}),
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		stamp := opts.Now().Format("20060102_150405")
		kinds := []logFile{{"info", slog.LevelInfo}}
		if ParseLevel(opts.Level) == slog.LevelDebug {
			kinds = append(kinds, logFile{"debug", slog.LevelDebug})
		}
		for _, k := range kinds {
			f, err := os.Create(filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", k.name, stamp)))
			if err != nil {
				l.Close()
				return nil, fmt.Errorf("failed to create %s log file: %w", k.name, err)
			}
			l.files = append(l.files, f)
			handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: k.level}))
		}
	}

	l.Logger = slog.New(fanout(handlers))
	return l, nil
}

// SetLevel changes the console level. File levels are fixed.
func (l *Logger) SetLevel(s string) {
	l.level.Set(ParseLevel(s))
}

// Level returns the current console level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Files returns the paths of the open log files.
func (l *Logger) Files() []string {
	out := make([]string, len(l.files))
	for i, f := range l.files {
		out[i] = f.Name()
	}
	return out
}

// Close flushes and closes the log files.
func (l *Logger) Close() error {
	var errs []error
	for _, f := range l.files {
		errs = append(errs, f.Close())
	}
	l.files = nil
	return errors.Join(errs...)
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (h fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, c := range h {
		if c.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, c := range h {
		if c.Enabled(ctx, r.Level) {
			errs = append(errs, c.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(h))
	for i, c := range h {
		out[i] = c.WithAttrs(attrs)
	}
	return out
}

func (h fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(h))
	for i, c := range h {
		out[i] = c.WithGroup(name)
	}
	return out
}
