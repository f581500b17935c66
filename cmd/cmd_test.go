package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitliner/internal/git"
	"github.com/thiagokokada/gitliner/internal/render"
)

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// commitFile writes content to name in a fresh repository and commits it
// once per entry, returning the commit ids oldest first.
func commitFile(t *testing.T, name string, contents ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i, content := range contents {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		h, err := wt.Commit("change "+string(rune('A'+i)), &gitlib.CommitOptions{
			Author: &object.Signature{Name: "Alice", Email: "alice@example.com", When: when.Add(time.Duration(i) * time.Hour)},
		})
		require.NoError(t, err)
		ids = append(ids, h.String())
	}
	return dir, ids
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gitliner")
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Runtime:")
}

func TestParseLine(t *testing.T) {
	line, err := parseLine("41", true)
	require.NoError(t, err)
	assert.Equal(t, 42, line)

	_, err = parseLine("0", false)
	assert.True(t, errors.Is(err, git.ErrInvalidArgument))
	_, err = parseLine("forty", false)
	assert.True(t, errors.Is(err, git.ErrInvalidArgument))
}

func TestInvalidConfigurationIsReported(t *testing.T) {
	_, _, err := runCmd(t, "--backend", "libgit2", "file", "a.ts")
	assert.ErrorContains(t, err, "backend must be cli or native")

	_, _, err = runCmd(t, "-o", "yaml", "file", "a.ts")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestLineAndFileCommands(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
	dir, ids := commitFile(t, "a.ts", "one\ntwo\n", "one\nTWO\n", "ONE\nTWO\n")
	path := filepath.Join(dir, "a.ts")

	out, _, err := runCmd(t, "-o", "json", "line", path, "2")
	require.NoError(t, err)
	var doc render.HistoryDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Commits, 2)
	assert.Equal(t, ids[1], doc.Commits[0].FullID)
	assert.Equal(t, ids[0], doc.Commits[1].FullID)

	out, _, err = runCmd(t, "-o", "json", "--page-size", "1", "file", "--all", path)
	require.NoError(t, err)
	doc = render.HistoryDocument{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Commits, 3)
	require.NotNil(t, doc.Total)
	assert.Equal(t, 3, *doc.Total)
	assert.False(t, doc.HasMore)

	out, _, err = runCmd(t, "--color", "never", "show", path, ids[1])
	require.NoError(t, err)
	assert.Contains(t, out, "-two")
	assert.Contains(t, out, "+TWO")
}

func TestShowKeepListsArtifacts(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
	dir, ids := commitFile(t, "a.ts", "one\n", "two\n")
	artifactDir := t.TempDir()

	_, stderr, err := runCmd(t, "--color", "never", "--artifact-dir", artifactDir, "show", "--keep", filepath.Join(dir, "a.ts"), ids[1])
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(artifactDir, "gitliner-*", "a.*.ts"))
	require.NoError(t, err)
	assert.Len(t, matches, 2, "before and after are kept")
	for _, m := range matches {
		assert.Contains(t, stderr, m)
	}
}
