package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/roach88/orderingest/internal/fingerprint"
)

var (
	// ErrLocked means every attempt of a move or write hit transient
	// contention.
	ErrLocked = errors.New("file locked")

	// ErrAlreadyArchived means the target name already exists. The archive
	// is append-only, so the move is refused and the source left in place.
	ErrAlreadyArchived = errors.New("archive: target already exists")
)

// ArchivedFile is an inbound file after a successful commit.
type ArchivedFile struct {
	Original string // inbound path at scan time
	Path     string // archive path
	Name     string // archive base name
	Digest   fingerprint.Digest
}

// Mover relocates inbound files into the archive under digest-qualified
// names.
type Mover struct {
	dir    string
	namer  Namer
	policy RetryPolicy
	sleep  Sleeper
	logger *slog.Logger

	// Overridable in tests.
	rename func(oldpath, newpath string) error
	remove func(name string) error
}

// MoverOption configures a Mover.
type MoverOption func(*Mover)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) MoverOption {
	return func(m *Mover) { m.policy = p }
}

// WithSleeper overrides how the mover waits between attempts.
func WithSleeper(s Sleeper) MoverOption {
	return func(m *Mover) { m.sleep = s }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) MoverOption {
	return func(m *Mover) { m.logger = l }
}

// NewMover returns a Mover that commits into dir.
func NewMover(dir string, namer Namer, opts ...MoverOption) *Mover {
	m := &Mover{
		dir:    dir,
		namer:  namer,
		policy: DefaultRetryPolicy(),
		sleep:  TimerSleep,
		logger: slog.Default(),
		rename: os.Rename,
		remove: os.Remove,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Commit moves src into the archive as content d.
//
// The caller must have durably written every output derived from src
// before calling Commit: a crash between the two leaves src in the inbound
// area, where the next run reprocesses it.
//
// On failure src is left where it was and no archive entry exists.
func (m *Mover) Commit(ctx context.Context, src string, d fingerprint.Digest) (ArchivedFile, error) {
	name := m.namer.Name(filepath.Base(src), d)
	target := filepath.Join(m.dir, name)
	af := ArchivedFile{Original: src, Path: target, Name: name, Digest: d}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return ArchivedFile{}, fmt.Errorf("archive: create %s: %w", m.dir, err)
	}

	retry := m.policy.Start()
	for {
		if _, err := os.Lstat(target); err == nil {
			return ArchivedFile{}, fmt.Errorf("%w: %s", ErrAlreadyArchived, name)
		}

		err := m.place(src, target)
		if err == nil {
			return af, nil
		}
		if !IsTransient(err) {
			return ArchivedFile{}, fmt.Errorf("archive: move %s: %w", filepath.Base(src), err)
		}

		delay, ok := retry.Next()
		if !ok {
			m.logger.Error("archive move gave up",
				"file", filepath.Base(src), "attempts", retry.Attempt(), "error", err)
			return ArchivedFile{}, fmt.Errorf("%w: %s after %d attempts: %v",
				ErrLocked, filepath.Base(src), retry.Attempt(), err)
		}
		m.logger.Warn("archive move blocked, retrying",
			"file", filepath.Base(src), "attempt", retry.Attempt()-1, "wait", delay, "error", err)
		if err := m.sleep(ctx, delay); err != nil {
			return ArchivedFile{}, fmt.Errorf("archive: move %s: %w", filepath.Base(src), err)
		}
	}
}

// place performs one attempt. A same-filesystem rename is atomic; across
// filesystems the file is copied to a hidden temp name, synced, renamed into
// place, and only then is the source removed. If the source cannot be
// removed the archived copy is withdrawn so the content is never held twice.
func (m *Mover) place(src, target string) error {
	err := m.rename(src, target)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".partial")
	if err := copyFile(src, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := m.rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := m.remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		if rbErr := os.Remove(target); rbErr != nil {
			m.logger.Error("archive rollback failed", "target", target, "error", rbErr)
		}
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
