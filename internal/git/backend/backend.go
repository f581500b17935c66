package backend

import "context"

// EmptyTree is the id git uses for a tree with no entries. It stands in for
// the parent of a root commit so that every revision can be diffed the same way.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Backend runs git queries against a single repository root.
//
// The default implementation shells out to the git executable. Every call is a
// single attempt; callers decide whether a failure is fatal or best-effort.
type Backend interface {
	RepoPath() string
	Run(ctx context.Context, args ...string) (string, error)
	RunBytes(ctx context.Context, args ...string) ([]byte, error)
}

// TreeReader answers the per-revision questions needed to rebuild the two
// sides of a file diff. Paths are slash separated and relative to the
// repository root.
type TreeReader interface {
	// Parent returns the first parent of rev. ok is false for a root commit.
	Parent(ctx context.Context, rev string) (parent string, ok bool, err error)
	Exists(ctx context.Context, rev, path string) (bool, error)
	Blob(ctx context.Context, rev, path string) ([]byte, error)
}
