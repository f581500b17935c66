package watch

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changes struct {
	mu    sync.Mutex
	paths []string
}

func (c *changes) record(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, paths...)
}

func (c *changes) seen(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.paths, path)
}

func TestWatcherReportsChangedFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(file, []byte("v1\n"), 0o644))

	got := &changes{}
	w, err := New(20*time.Millisecond, got.record)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Add(file))
	require.NoError(t, w.Add(filepath.Join(dir, "b.ts")), "same directory is only watched once")
	w.mu.Lock()
	assert.Len(t, w.dirs, 1)
	w.mu.Unlock()

	require.NoError(t, os.WriteFile(file, []byte("v2\n"), 0o644))
	assert.Eventually(t, func() bool { return got.seen(file) }, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresLockFiles(t *testing.T) {
	dir := t.TempDir()
	got := &changes{}
	w, err := New(20*time.Millisecond, got.record)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Add(filepath.Join(dir, "a.ts")))

	lock := filepath.Join(dir, "index.lock")
	require.NoError(t, os.WriteFile(lock, []byte("x"), 0o644))
	marker := filepath.Join(dir, "marker.ts")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	require.Eventually(t, func() bool { return got.seen(marker) }, 3*time.Second, 10*time.Millisecond)
	assert.False(t, got.seen(lock))
}

func TestWatcherClose(t *testing.T) {
	w, err := New(0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close is idempotent")
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "a.ts")))
}

func TestShouldIgnoreWatchPath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"/repo/.git/index.lock", true},
		{"/repo/a.ts.swp", true},
		{"/repo/a.ts~", true},
		{"/repo/.#a.ts", true},
		{"/repo/a.ts", false},
		{"/repo/LOCK", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldIgnoreWatchPath(tt.name), tt.name)
	}
}
