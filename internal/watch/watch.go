// Package watch reports files that changed on disk so cached history for
// them can be dropped.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitliner/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

// Watcher watches the directories of the files it is given. Bursts of events
// are coalesced and delivered as one sorted batch of changed paths.
type Watcher struct {
	onChange func(paths []string)

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dirs     map[string]struct{}
	pending  map[string]struct{}
	debounce *debounce.Debouncer
	closed   bool
}

func New(delay time.Duration, onChange func(paths []string)) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		onChange: onChange,
		watcher:  fw,
		dirs:     map[string]struct{}{},
		pending:  map[string]struct{}{},
	}
	w.debounce = debounce.New(delay, w.flush)
	go w.loop(fw)
	return w, nil
}

// Add starts watching the directory that holds file. Adding several files of
// the same directory is cheap.
func (w *Watcher) Add(file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("watcher closed")
	}
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	slog.Debug("adding path to FS watcher", slog.String("path", dir))
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.dirs[dir] = struct{}{}
	return nil
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.debounce.Stop()
	clear(w.pending)
	return w.watcher.Close()
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.schedule(ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[path] = struct{}{}
	w.debounce.Trigger()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.mu.Unlock()
	if w.onChange != nil {
		w.onChange(paths)
	}
}

// shouldIgnoreWatchPath skips editor and git lock files that change on every
// save without touching tracked content.
func shouldIgnoreWatchPath(name string) bool {
	base := filepath.Base(name)
	if strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".lock", ".ipc", ".swp", ".swx":
		return true
	}
	return false
}
