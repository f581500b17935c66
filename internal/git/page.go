package git

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const DefaultPageSize = 50

func validatePage(page, pageSize int) error {
	if page < 0 {
		return fmt.Errorf("%w: page must be >= 0, got %d", ErrInvalidArgument, page)
	}
	if pageSize <= 0 {
		return fmt.Errorf("%w: page size must be > 0, got %d", ErrInvalidArgument, pageSize)
	}
	return nil
}

// FetchLineHistory returns one page of the history of a 1-based line. The
// total is unknown, so HasMore only says the page came back full; a history
// that ends exactly on a page boundary reports one extra, empty page.
func (s *Service) FetchLineHistory(ctx context.Context, rel string, line, page, pageSize int) (Page, error) {
	if err := validatePath(rel); err != nil {
		return Page{}, err
	}
	if err := validateLine(line); err != nil {
		return Page{}, err
	}
	if err := validatePage(page, pageSize); err != nil {
		return Page{}, err
	}
	items, err := s.lineHistory(ctx, rel, line, page*pageSize, pageSize)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Commit{}
	}
	slog.Debug("line history page",
		slog.String("path", rel),
		slog.Int("line", line),
		slog.Int("page", page),
		slog.Int("returned", len(items)),
	)
	return Page{Items: items, HasMore: len(items) == pageSize}, nil
}

// FetchFileHistory returns one page of the history of a file with an exact
// total. The count and the listing run concurrently.
func (s *Service) FetchFileHistory(ctx context.Context, rel string, page, pageSize int) (Page, error) {
	if err := validatePath(rel); err != nil {
		return Page{}, err
	}
	if err := validatePage(page, pageSize); err != nil {
		return Page{}, err
	}
	skip := page * pageSize
	var (
		total int
		items []Commit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.fileHistoryTotal(gctx, rel)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.fileHistory(gctx, rel, skip, pageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Commit{}
	}
	slog.Debug("file history page",
		slog.String("path", rel),
		slog.Int("page", page),
		slog.Int("returned", len(items)),
		slog.Int("total", total),
	)
	return Page{
		Items:      items,
		HasMore:    skip+len(items) < total,
		Total:      total,
		TotalKnown: true,
	}, nil
}
