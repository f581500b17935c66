// Package ledger owns the short-lived files written while reconstructing
// snapshots and makes sure each one is removed again.
//
// An artifact is released by whichever comes first: Release (the viewer closed
// it), its timeout, or Dispose. Every trigger is idempotent and the tracking
// entry is dropped as soon as one of them fires.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thiagokokada/gitliner/internal/debounce"
)

const DefaultTTL = 5 * time.Minute

// Reason says which trigger released an artifact.
type Reason string

const (
	ReasonClosed   Reason = "closed"
	ReasonTimeout  Reason = "timeout"
	ReasonDisposed Reason = "disposed"
)

type entry struct {
	timer   *debounce.Timer
	created time.Time
	size    int
}

type Ledger struct {
	dir       string
	ttl       time.Duration
	onRelease func(path string, reason Reason)

	mu      sync.Mutex
	entries map[string]*entry
}

type Option func(*Ledger)

// WithOnRelease registers a hook called after an artifact has been removed.
func WithOnRelease(fn func(path string, reason Reason)) Option {
	return func(l *Ledger) { l.onRelease = fn }
}

// New creates a private directory under parent (the system temp dir when
// empty) to hold artifacts. Each artifact is removed ttl after creation at the
// latest.
func New(parent string, ttl time.Duration, opts ...Option) (*Ledger, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if parent != "" {
		if err := os.MkdirAll(parent, 0o700); err != nil {
			return nil, fmt.Errorf("create artifact dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "gitliner-")
	if err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	l := &Ledger{dir: dir, ttl: ttl, entries: map[string]*entry{}}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Ledger) Dir() string {
	return l.dir
}

// Create writes content to a new file called name and starts tracking it. It
// fails rather than overwrite an existing file.
func (l *Ledger) Create(name string, content []byte) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	if err := os.Mkdir(l.dir, 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(l.dir, name)
	if err := writeExclusive(path, content); err != nil {
		return "", err
	}

	e := &entry{created: time.Now(), size: len(content)}
	l.mu.Lock()
	l.entries[path] = e
	e.timer = debounce.AfterFunc(l.ttl, func() {
		if err := l.release(path, ReasonTimeout); err != nil {
			slog.Warn("artifact timeout release", slog.String("path", path), slog.Any("error", err))
		}
	})
	l.mu.Unlock()

	slog.Debug("artifact created",
		slog.String("path", path),
		slog.String("size", humanize.Bytes(uint64(len(content)))),
	)
	return path, nil
}

func writeExclusive(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// Release removes a tracked artifact. Unknown or already released paths are
// a no-op.
func (l *Ledger) Release(path string) error {
	return l.release(path, ReasonClosed)
}

func (l *Ledger) release(path string, reason Reason) error {
	l.mu.Lock()
	e, ok := l.entries[path]
	if ok {
		delete(l.entries, path)
	}
	l.mu.Unlock()
	if !ok {
		return nil
	}
	e.timer.Stop()
	return l.remove(path, e, reason)
}

func (l *Ledger) remove(path string, e *entry, reason Reason) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	slog.Debug("artifact released",
		slog.String("path", path),
		slog.String("reason", string(reason)),
		slog.String("age", humanize.RelTime(e.created, time.Now(), "", "")),
	)
	if l.onRelease != nil {
		l.onRelease(path, reason)
	}
	if err != nil {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// Dispose releases every tracked artifact and removes the directory. The
// ledger stays usable; the directory is created again on the next Create.
func (l *Ledger) Dispose() error {
	l.mu.Lock()
	entries := l.entries
	l.entries = map[string]*entry{}
	l.mu.Unlock()

	var errs []error
	for path, e := range entries {
		e.timer.Stop()
		if err := l.remove(path, e, ReasonDisposed); err != nil {
			errs = append(errs, err)
		}
	}
	if err := os.RemoveAll(l.dir); err != nil {
		errs = append(errs, fmt.Errorf("remove artifact dir: %w", err))
	}
	if len(entries) > 0 {
		slog.Debug("artifacts disposed", slog.Int("count", len(entries)))
	}
	return errors.Join(errs...)
}

// Tracked lists the live artifacts in name order.
func (l *Ledger) Tracked() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for path := range l.entries {
		out = append(out, path)
	}
	slices.Sort(out)
	return out
}

// Size sums the bytes held by live artifacts.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, e := range l.entries {
		total += e.size
	}
	return total
}
