package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CLI is a Backend that shells out to the git executable.
type CLI struct {
	path string
}

var (
	_ Backend    = (*CLI)(nil)
	_ TreeReader = (*CLI)(nil)
)

// OpenCLI resolves the repository root that contains path. path may name a
// file or a directory; the file does not need to exist in the worktree.
func OpenCLI(ctx context.Context, path string) (*CLI, error) {
	if err := ensureMinGitVersion(); err != nil {
		return nil, err
	}
	dir, err := ResolveDir(path)
	if err != nil {
		return nil, err
	}
	tmp := &CLI{path: dir}
	root, err := tmp.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotTracked, path, err)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("%w: %s: git rev-parse returned empty root", ErrNotTracked, path)
	}
	return &CLI{path: filepath.FromSlash(root)}, nil
}

// ResolveDir returns the absolute directory git should be started from to
// answer questions about path.
func ResolveDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	switch {
	case err == nil && info.IsDir():
		return abs, nil
	case err == nil || errors.Is(err, os.ErrNotExist):
		dir := filepath.Dir(abs)
		if st, statErr := os.Stat(dir); statErr != nil || !st.IsDir() {
			return "", fmt.Errorf("%w: %s: no such directory", ErrNotTracked, path)
		}
		return dir, nil
	default:
		return "", err
	}
}

func (g *CLI) RepoPath() string {
	if g == nil {
		return ""
	}
	return g.path
}

func (g *CLI) Run(ctx context.Context, args ...string) (string, error) {
	out, err := g.run(ctx, args)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (g *CLI) RunBytes(ctx context.Context, args ...string) ([]byte, error) {
	return g.run(ctx, args)
}

func (g *CLI) run(ctx context.Context, args []string) ([]byte, error) {
	if g == nil || g.path == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	cmdArgs := append([]string{"--no-pager", "-C", g.path}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	start := time.Now()
	err := cmd.Run()
	slog.Debug("git",
		slog.String("args", strings.Join(args, " ")),
		slog.Duration("took", time.Since(start)),
		slog.Any("error", err),
	)
	if err != nil {
		qe := &QueryError{
			Args:     append([]string(nil), args...),
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			qe.ExitCode = exitErr.ExitCode()
		}
		return nil, qe
	}
	return stdout.Bytes(), nil
}
