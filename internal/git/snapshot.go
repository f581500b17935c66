package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	gitbackend "github.com/thiagokokada/gitliner/internal/git/backend"
)

const maxTitleSubject = 50

// Reconstruct rebuilds the content of rel before and after rev. A root commit
// is diffed against the empty tree, so its Before side is simply absent. Both
// present sides are written out as artifacts.
func (s *Service) Reconstruct(ctx context.Context, rel, rev string) (*SnapshotPair, error) {
	if err := validatePath(rel); err != nil {
		return nil, err
	}
	if err := validateRev(rev); err != nil {
		return nil, err
	}
	parent, ok, err := s.tree.Parent(ctx, rev)
	if err != nil {
		return nil, err
	}
	if !ok {
		parent = gitbackend.EmptyTree
	}

	var beforeOK, afterOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		beforeOK, err = s.tree.Exists(gctx, parent, rel)
		return err
	})
	g.Go(func() (err error) {
		afterOK, err = s.tree.Exists(gctx, rev, rel)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !beforeOK && !afterOK {
		return nil, fmt.Errorf("%w: %s at %s", ErrPathNotInRevision, rel, shortID(rev))
	}

	pair := &SnapshotPair{
		Before: Snapshot{Rev: parent},
		After:  Snapshot{Rev: rev},
		Path:   rel,
		Rev:    rev,
		Parent: parent,
	}
	g, gctx = errgroup.WithContext(ctx)
	if beforeOK {
		g.Go(func() error { return s.readSnapshot(gctx, &pair.Before, rel) })
	}
	if afterOK {
		g.Go(func() error { return s.readSnapshot(gctx, &pair.After, rel) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.materialize(pair); err != nil {
		return nil, err
	}
	pair.Title = formatTitle(s.subject(ctx, rev), rev, rel, 0)
	slog.Debug("reconstructed snapshot pair",
		slog.String("path", rel),
		slog.String("rev", shortID(rev)),
		slog.String("kind", pair.Kind()),
	)
	return pair, nil
}

func (s *Service) readSnapshot(ctx context.Context, snap *Snapshot, rel string) error {
	content, err := s.tree.Blob(ctx, snap.Rev, rel)
	if err != nil {
		return fmt.Errorf("read %s at %s: %w", rel, shortID(snap.Rev), err)
	}
	snap.Present = true
	snap.Content = content
	return nil
}

// materialize writes every present side. Either both succeed or nothing
// written for this pair is left behind.
func (s *Service) materialize(pair *SnapshotPair) error {
	if s.artifacts == nil {
		return fmt.Errorf("%w: no artifact store configured", ErrArtifactIO)
	}
	sides := []struct {
		snap  *Snapshot
		label string
	}{
		{&pair.Before, "before"},
		{&pair.After, "after"},
	}
	var created []string
	for _, side := range sides {
		if !side.snap.Present {
			continue
		}
		name := artifactName(pair.Path, side.snap.Rev, side.label, "")
		p, err := s.artifacts.Create(name, side.snap.Content)
		if err != nil {
			s.releaseAll(created)
			pair.Before.Artifact, pair.After.Artifact = "", ""
			return fmt.Errorf("%w: %w", ErrArtifactIO, err)
		}
		side.snap.Artifact = p
		created = append(created, p)
	}
	return nil
}

func (s *Service) releaseAll(paths []string) {
	for _, p := range paths {
		if err := s.artifacts.Release(p); err != nil {
			slog.Warn("release artifact", slog.String("path", p), slog.Any("error", err))
		}
	}
}

// ReconstructLine shows how rev changed a single line. It asks `git log -L`
// for the patch of exactly that revision; if git cannot isolate the line
// there, the whole file is reconstructed instead.
func (s *Service) ReconstructLine(ctx context.Context, rel, rev string, line int) (Diff, error) {
	if err := validatePath(rel); err != nil {
		return Diff{}, err
	}
	if err := validateRev(rev); err != nil {
		return Diff{}, err
	}
	if err := validateLine(line); err != nil {
		return Diff{}, err
	}
	patch, err := s.backend.RunBytes(ctx, "log", "--no-color", dateFormat, lineRange(line, rel), rev+"^!")
	switch {
	case err != nil:
		slog.Debug("line patch unavailable, using full snapshot",
			slog.String("path", rel),
			slog.String("rev", shortID(rev)),
			slog.Int("line", line),
			slog.Any("error", err),
		)
	case len(bytes.TrimSpace(patch)) == 0:
		slog.Debug("line not touched by revision, using full snapshot",
			slog.String("path", rel),
			slog.String("rev", shortID(rev)),
			slog.Int("line", line),
		)
	default:
		lp := &LinePatch{
			Path:     rel,
			Rev:      rev,
			Line:     line,
			Patch:    patch,
			Sections: patchSections(string(patch)),
		}
		if s.artifacts == nil {
			return Diff{}, fmt.Errorf("%w: no artifact store configured", ErrArtifactIO)
		}
		p, err := s.artifacts.Create(artifactName(rel, rev, fmt.Sprintf("L%d", line), ".diff"), patch)
		if err != nil {
			return Diff{}, fmt.Errorf("%w: %w", ErrArtifactIO, err)
		}
		lp.Artifact = p
		lp.Title = formatTitle(s.subject(ctx, rev), rev, rel, line)
		return Diff{Patch: lp}, nil
	}
	pair, err := s.Reconstruct(ctx, rel, rev)
	if err != nil {
		return Diff{}, err
	}
	return Diff{Pair: pair}, nil
}

// subject is best-effort; the title falls back to the short id.
func (s *Service) subject(ctx context.Context, rev string) string {
	out, err := s.backend.Run(ctx, "log", "-1", "--no-color", "--pretty=format:%s", rev, "--")
	if err != nil {
		slog.Debug("commit subject unavailable", slog.String("rev", shortID(rev)), slog.Any("error", err))
		return ""
	}
	return strings.TrimSpace(out)
}

func formatTitle(subject, rev, rel string, line int) string {
	if r := []rune(subject); len(r) > maxTitleSubject {
		subject = string(r[:maxTitleSubject]) + "..."
	}
	var b strings.Builder
	if subject != "" {
		b.WriteString(subject)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "(%s) - %s", shortID(rev), rel)
	if line > 0 {
		fmt.Fprintf(&b, ", line %d", line)
	}
	return b.String()
}

// artifactName builds "<stem>.<rev8>.<label>.<rand8><ext>". The random part
// keeps concurrent reconstructions of the same path and revision apart; the
// extension stays last so viewers still detect the language.
func artifactName(rel, rev, label, ext string) string {
	base := path.Base(rel)
	if ext == "" {
		ext = path.Ext(base)
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" {
		stem = base
		if ext == base {
			ext = ""
		}
	}
	return fmt.Sprintf("%s.%s.%s.%s%s", stem, shortID(rev), label, uuid.NewString()[:8], ext)
}
