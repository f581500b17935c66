package git

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

func lineRange(line int, rel string) string {
	return fmt.Sprintf("-L%d,%d:%s", line, line, rel)
}

// lineHistory lists the revisions that touched one line, newest first. When
// `git log -L` yields nothing on the first page, blame is asked for the
// revision that owns the line instead. A failed `git log -L` is still
// returned when blame has nothing to offer either.
func (s *Service) lineHistory(ctx context.Context, rel string, line, skip, limit int) ([]Commit, error) {
	out, err := s.backend.Run(ctx,
		"log", "--no-color", lineRange(line, rel), logFormat, dateFormat,
		"--skip="+strconv.Itoa(skip), "-n", strconv.Itoa(limit),
	)
	var commits []Commit
	if err == nil {
		commits = parseLogLines(out, nil)
	}
	if len(commits) > 0 {
		return commits, nil
	}
	if skip > 0 {
		return nil, err
	}
	if err != nil {
		slog.Debug("line history query failed, trying blame",
			slog.String("path", rel),
			slog.Int("line", line),
			slog.Any("error", err),
		)
	}
	commits = s.blameFallback(ctx, rel, line)
	if len(commits) == 0 && err != nil {
		return nil, err
	}
	return commits, nil
}

// blameFallback emits at most one record. Its failures are never surfaced.
func (s *Service) blameFallback(ctx context.Context, rel string, line int) []Commit {
	out, err := s.backend.Run(ctx, "blame", "-L", fmt.Sprintf("%d,%d", line, line), "--porcelain", "--", rel)
	if err != nil {
		slog.Debug("blame fallback failed", slog.String("path", rel), slog.Int("line", line), slog.Any("error", err))
		return nil
	}
	id, ok := parseBlamePorcelain(out)
	if !ok {
		return nil
	}
	out, err = s.backend.Run(ctx, "log", "-1", "--no-color", logFormat, dateFormat, id, "--")
	if err != nil {
		slog.Debug("blame fallback log failed", slog.String("rev", id), slog.Any("error", err))
		return nil
	}
	commits := parseLogLines(out, nil)
	if len(commits) > 1 {
		commits = commits[:1]
	}
	return commits
}

// fileHistory lists the revisions of a file across renames, then attaches the
// per-revision change statistics where git can provide them.
func (s *Service) fileHistory(ctx context.Context, rel string, skip, limit int) ([]Commit, error) {
	out, err := s.backend.Run(ctx,
		"log", "--no-color", "--follow", logFormat, dateFormat,
		"--skip="+strconv.Itoa(skip), "-n", strconv.Itoa(limit),
		"--", rel,
	)
	if err != nil {
		return nil, err
	}
	commits := parseLogLines(out, nil)
	s.attachChanges(ctx, rel, commits)
	return commits, nil
}

func (s *Service) attachChanges(ctx context.Context, rel string, commits []Commit) {
	var g errgroup.Group
	g.SetLimit(s.statWorkers)
	for i := range commits {
		g.Go(func() error {
			out, err := s.backend.Run(ctx, "show", "--no-color", "--stat", "--pretty=format:", commits[i].FullID, "--", rel)
			if err != nil {
				slog.Debug("change statistics unavailable",
					slog.String("rev", commits[i].ShortID),
					slog.Any("error", err),
				)
				return nil
			}
			commits[i].Changes = Changes{Summary: strings.TrimSpace(out), OK: true}
			return nil
		})
	}
	_ = g.Wait()
}

// fileHistoryTotal counts the revisions fileHistory can page through. It
// follows renames like the listing so both agree on where the history ends.
func (s *Service) fileHistoryTotal(ctx context.Context, rel string) (int, error) {
	out, err := s.backend.Run(ctx, "log", "--follow", "--pretty=format:%H", "--", rel)
	if err != nil {
		return 0, err
	}
	total := 0
	for line := range strings.Lines(out) {
		if isHexID(strings.TrimSpace(line)) {
			total++
		}
	}
	return total, nil
}
