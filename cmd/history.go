package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitliner/internal/engine"
	"github.com/thiagokokada/gitliner/internal/git"
	"github.com/thiagokokada/gitliner/internal/render"
)

type historyFlags struct {
	page      int
	all       bool
	zeroBased bool
	filter    string
}

func (f *historyFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 0, "0-based page to show")
	cmd.Flags().BoolVar(&f.all, "all", false, "Show every page")
	cmd.Flags().StringVar(&f.filter, "filter", "", "Only show commits whose id, author, date or message contains this text")
}

func (a *app) lineCmd() *cobra.Command {
	var f historyFlags
	cmd := &cobra.Command{
		Use:   "line <path> <line>",
		Short: "List the commits that changed one line of a file.",
		Long: `List the commits that changed one line of a file, newest first.

The line is tracked through earlier edits with ` + "`git log -L`" + `. When git cannot
trace it, the last commit that touched the line according to ` + "`git blame`" + ` is
shown instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[1], f.zeroBased)
			if err != nil {
				return err
			}
			return a.history(cmd.Context(), engine.Target{Path: args[0], Line: line}, f)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.zeroBased, "zero-based", false, "Interpret <line> as a 0-based editor position")
	return cmd
}

func (a *app) fileCmd() *cobra.Command {
	var f historyFlags
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "List the commits that changed a file, following renames.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.history(cmd.Context(), engine.Target{Path: args[0]}, f)
		},
	}
	f.register(cmd)
	return cmd
}

func parseLine(raw string, zeroBased bool) (int, error) {
	line, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: line %q is not a number", git.ErrInvalidArgument, raw)
	}
	if zeroBased {
		line++
	}
	if line < 1 {
		return 0, fmt.Errorf("%w: line must be >= 1, got %d", git.ErrInvalidArgument, line)
	}
	return line, nil
}

func (a *app) history(ctx context.Context, target engine.Target, f historyFlags) error {
	p := a.printer()
	header := render.HistoryHeader{Path: target.Path, Line: target.Line, Filter: strings.TrimSpace(f.filter)}
	pageSize := a.cfg.PageSize
	return a.withEngine(false, func(e *engine.Engine) error {
		if !f.all {
			var (
				page git.Page
				err  error
			)
			if target.Line > 0 {
				page, err = e.LineHistory(ctx, target.Path, target.Line, f.page, pageSize)
			} else {
				page, err = e.FileHistory(ctx, target.Path, f.page, pageSize)
			}
			if err != nil {
				return err
			}
			header.Offset = f.page * pageSize
			page.Items = git.FilterCommits(page.Items, f.filter)
			return p.History(a.cfg.Output, header, page)
		}

		// Accumulate through a view so records repeated across page
		// boundaries are printed once.
		v := e.NewView(pageSize)
		page, err := v.Select(ctx, target)
		if err != nil {
			return err
		}
		for v.HasMore() {
			next, err := v.LoadMore(ctx)
			if err != nil {
				return err
			}
			if len(next.Items) == 0 {
				break
			}
		}
		page.Items = git.FilterCommits(v.Records(), f.filter)
		page.HasMore = v.HasMore()
		return p.History(a.cfg.Output, header, page)
	})
}
