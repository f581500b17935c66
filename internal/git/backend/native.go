package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Native answers TreeReader questions in-process with go-git instead of
// spawning one git process per question.
type Native struct {
	// mu serializes object lookups; packfile readers are shared.
	mu   sync.Mutex
	repo *gitlib.Repository
	path string
}

var _ TreeReader = (*Native)(nil)

func OpenNative(root string) (*Native, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Native{repo: repo, path: abs}, nil
}

func (n *Native) RepoPath() string {
	return n.path
}

func (n *Native) commitLocked(rev string) (*object.Commit, error) {
	hash, err := n.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := n.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", rev, err)
	}
	return commit, nil
}

func (n *Native) Parent(_ context.Context, rev string) (string, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	commit, err := n.commitLocked(rev)
	if err != nil {
		return "", false, err
	}
	if commit.NumParents() == 0 {
		return "", false, nil
	}
	return commit.ParentHashes[0].String(), true, nil
}

func (n *Native) Exists(_ context.Context, rev, path string) (bool, error) {
	if rev == EmptyTree {
		return false, nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := n.fileLocked(rev, path)
	if errors.Is(err, object.ErrFileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (n *Native) Blob(_ context.Context, rev, path string) ([]byte, error) {
	if rev == EmptyTree {
		return nil, fmt.Errorf("%s does not exist in the empty tree", path)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	f, err := n.fileLocked(rev, path)
	if err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (n *Native) fileLocked(rev, path string) (*object.File, error) {
	commit, err := n.commitLocked(rev)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	return tree.File(path)
}
