package cli

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

// logTimeLayout stamps run log file names.
const logTimeLayout = "20060102_150405"

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// runLog is the logger for one command invocation: everything at Debug and
// up into a timestamped file, Warn and up (Debug when verbose) to console.
type runLog struct {
	*slog.Logger
	Path string
	file *os.File
}

// openRunLog creates dir/processing_<ts>.log. With an empty dir only the
// console handler is installed.
func openRunLog(dir string, now time.Time, console io.Writer, verbose bool) (*runLog, error) {
	consoleLevel := slog.LevelWarn
	if verbose {
		consoleLevel = slog.LevelDebug
	}
	handlers := fanout{slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel})}

	rl := &runLog{}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("log directory: %w", err)
		}
		rl.Path = filepath.Join(dir, "processing_"+now.Format(logTimeLayout)+".log")
		f, err := os.OpenFile(rl.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		rl.file = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	rl.Logger = slog.New(handlers)
	return rl, nil
}

func (rl *runLog) Close() error {
	if rl == nil || rl.file == nil {
		return nil
	}
	return rl.file.Close()
}

// cleanupLogs deletes run logs in dir last modified before now-retention.
// A zero retention keeps everything.
func cleanupLogs(dir string, retention time.Duration, now time.Time) (removed int, err error) {
	if retention <= 0 || dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-retention)
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "processing_") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
