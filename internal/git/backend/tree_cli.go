package backend

import (
	"context"
	"fmt"
	"strings"
)

func (g *CLI) Parent(ctx context.Context, rev string) (string, bool, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", false, fmt.Errorf("revision not specified")
	}
	out, err := g.Run(ctx, "rev-list", "--parents", "-n", "1", rev, "--")
	if err != nil {
		return "", false, err
	}
	return parseParents(out, rev)
}

func (g *CLI) Exists(ctx context.Context, rev, path string) (bool, error) {
	if rev == EmptyTree {
		return false, nil
	}
	out, err := g.Run(ctx, "ls-tree", "-z", "--full-tree", rev, "--", path)
	if err != nil {
		return false, err
	}
	return lsTreeHasBlob(out, path), nil
}

func (g *CLI) Blob(ctx context.Context, rev, path string) ([]byte, error) {
	if rev == EmptyTree {
		return nil, fmt.Errorf("%s does not exist in the empty tree", path)
	}
	return g.RunBytes(ctx, "cat-file", "blob", rev+":"+path)
}

// parseParents reads `git rev-list --parents -n 1` output: the commit id
// followed by its parent ids.
func parseParents(out, rev string) (string, bool, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", false, fmt.Errorf("unknown revision %q", rev)
	}
	if len(fields) < 2 {
		return "", false, nil
	}
	return fields[1], true, nil
}

// lsTreeHasBlob reports whether `git ls-tree -z` output lists path as a blob.
// Directories and submodules do not count as file snapshots.
func lsTreeHasBlob(out, path string) bool {
	for rec := range strings.SplitSeq(out, "\x00") {
		meta, name, ok := strings.Cut(rec, "\t")
		if !ok || name != path {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) >= 2 && fields[1] == "blob" {
			return true
		}
	}
	return false
}
