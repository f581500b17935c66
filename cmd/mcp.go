package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitliner/internal/config"
	"github.com/thiagokokada/gitliner/internal/engine"
	"github.com/thiagokokada/gitliner/internal/mcp"
	"github.com/thiagokokada/gitliner/internal/watch"
)

func (a *app) mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the gitliner MCP server on stdio.",
		Long: `Launch a Model Context Protocol server so agents can query line and file
history and reconstruct diffs. History pages are cached for the life of the
server; with --watch, edits to a queried file drop its cached pages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(false, func(e *engine.Engine) error {
				return mcp.StartMCPServer(cmd.Context(), e, a.cfg.PageSize)
			})
		},
	}
	cmd.Flags().Bool(config.KeyWatch, false, "Invalidate cached history when a queried file changes")
	cmd.Flags().Duration(config.KeyWatchDelay, watch.DefaultDelay, "Quiet period before a file change is acted on")
	cobra.CheckErr(a.v.BindPFlags(cmd.Flags()))
	return cmd
}
