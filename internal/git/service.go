package git

import (
	"fmt"
	"path/filepath"
	"strings"

	gitbackend "github.com/thiagokokada/gitliner/internal/git/backend"
)

const DefaultStatWorkers = 4

// Artifacts stores the files a reconstruction materializes. The ledger is the
// production implementation; it owns the files until they are released.
type Artifacts interface {
	Create(name string, content []byte) (string, error)
	Release(path string) error
}

// Service answers history and snapshot questions for one repository.
type Service struct {
	backend     gitbackend.Backend
	tree        gitbackend.TreeReader
	artifacts   Artifacts
	statWorkers int
}

type Option func(*Service)

// WithTreeReader swaps how parents, existence and blobs are looked up. The
// default asks the backend when it implements TreeReader.
func WithTreeReader(tree gitbackend.TreeReader) Option {
	return func(s *Service) { s.tree = tree }
}

// WithStatWorkers bounds how many `git show --stat` calls run at once.
func WithStatWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.statWorkers = n
		}
	}
}

func NewService(backend gitbackend.Backend, artifacts Artifacts, opts ...Option) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend not specified")
	}
	s := &Service{
		backend:     backend,
		artifacts:   artifacts,
		statWorkers: DefaultStatWorkers,
	}
	if tree, ok := backend.(gitbackend.TreeReader); ok {
		s.tree = tree
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tree == nil {
		return nil, fmt.Errorf("tree reader not available for %s", backend.RepoPath())
	}
	return s, nil
}

func (s *Service) RepoPath() string {
	return s.backend.RepoPath()
}

// RelPath converts a filesystem path into the slash separated path git
// expects, relative to the repository root.
func (s *Service) RelPath(path string) (string, error) {
	root := s.RepoPath()
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || escapesRoot(rel) {
		// The root git reports has symlinks resolved, the caller's path may not.
		if resolved, rerr := resolveSymlinks(abs); rerr == nil {
			rel, err = filepath.Rel(root, resolved)
		}
	}
	if err != nil {
		return "", err
	}
	if escapesRoot(rel) || rel == "." {
		return "", fmt.Errorf("%w: %s is not a file inside %s", gitbackend.ErrNotTracked, path, root)
	}
	return filepath.ToSlash(rel), nil
}

func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveSymlinks resolves the directory of path, which exists even when the
// file itself was deleted from the worktree.
func resolveSymlinks(path string) (string, error) {
	dir, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}

func validatePath(rel string) error {
	if strings.TrimSpace(rel) == "" {
		return fmt.Errorf("%w: path not specified", ErrInvalidArgument)
	}
	return nil
}

func validateRev(rev string) error {
	if strings.TrimSpace(rev) == "" || strings.HasPrefix(rev, "-") {
		return fmt.Errorf("%w: revision %q", ErrInvalidArgument, rev)
	}
	return nil
}

func validateLine(line int) error {
	if line < 1 {
		return fmt.Errorf("%w: line must be >= 1, got %d", ErrInvalidArgument, line)
	}
	return nil
}
