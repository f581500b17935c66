package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitliner/internal/buildinfo"
	"github.com/thiagokokada/gitliner/internal/git"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build details.",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("gitliner\n%s", buildinfo.Read())
			if v, err := git.GitVersion(); err == nil {
				cmd.Printf("  Git:     %s (min %s)\n", v, git.MinGitVersion())
			}
		},
	}
}
