package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitliner/internal/engine"
	"github.com/thiagokokada/gitliner/internal/git"
	"github.com/thiagokokada/gitliner/internal/render"
)

func (a *app) showCmd() *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "show <path> <rev>",
		Short: "Show how a commit changed a file.",
		Long: `Reconstruct a file as it was before and after a commit and print the diff.

A root commit is compared against an empty tree. With --keep the two
reconstructed files are left on disk and their paths are listed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(keep, func(e *engine.Engine) error {
				pair, err := e.ShowCommitDiff(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.printDiff(git.Diff{Pair: pair}, keep)
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the reconstructed files and print their paths")
	return cmd
}

func (a *app) showLineCmd() *cobra.Command {
	var (
		keep      bool
		zeroBased bool
	)
	cmd := &cobra.Command{
		Use:   "show-line <path> <rev> <line>",
		Short: "Show how a commit changed one line.",
		Long: `Print the patch of a single line for one commit. When git cannot isolate
the line in that commit, the whole file diff is printed instead.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[2], zeroBased)
			if err != nil {
				return err
			}
			return a.withEngine(keep, func(e *engine.Engine) error {
				d, err := e.ShowLineCommitDiff(cmd.Context(), args[0], args[1], line)
				if err != nil {
					return err
				}
				return a.printDiff(d, keep)
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the written patch or files and print their paths")
	cmd.Flags().BoolVar(&zeroBased, "zero-based", false, "Interpret <line> as a 0-based editor position")
	return cmd
}

func (a *app) printDiff(d git.Diff, keep bool) error {
	p := a.printer()
	if a.cfg.Output == render.FormatJSON {
		return p.DiffJSON(d)
	}
	if err := p.Diff(d); err != nil {
		return err
	}
	if keep {
		render.New(a.stderr, a.cfg.RenderOptions()).Artifacts(d.Artifacts())
	}
	return nil
}
