// Package cmd defines the gitliner command-line interface.
package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thiagokokada/gitliner/internal/buildinfo"
	"github.com/thiagokokada/gitliner/internal/cache"
	"github.com/thiagokokada/gitliner/internal/config"
	"github.com/thiagokokada/gitliner/internal/engine"
	"github.com/thiagokokada/gitliner/internal/git"
	"github.com/thiagokokada/gitliner/internal/ledger"
	"github.com/thiagokokada/gitliner/internal/render"
)

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newApp(stdout, stderr).rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer

	newEngine func(engine.Options) (*engine.Engine, error)
}

func newApp(stdout, stderr io.Writer) *app {
	v := viper.New()
	config.SetDefaults(v)
	return &app{v: v, stdout: stdout, stderr: stderr, newEngine: engine.New}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gitliner",
		Short: "Browse the git history of a single line or file.",
		Long: `gitliner lists the commits that changed a line or a file, following it
across edits and renames, and reconstructs the file before and after any
of those commits.`,
		Version:            buildinfo.VersionWithTags(),
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE:  a.setup,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.String(config.KeyConfig, "", "Path to config file")
	flags.Int(config.KeyPageSize, git.DefaultPageSize, "Commits per page")
	flags.Duration(config.KeyCacheTTL, cache.DefaultTTL, "How long fetched history pages are reused")
	flags.Int(config.KeyCacheSize, cache.DefaultSize, "Maximum number of cached history pages")
	flags.Duration(config.KeyArtifactTTL, ledger.DefaultTTL, "Lifetime of reconstructed files before they are deleted")
	flags.String(config.KeyArtifactDir, "", "Directory for reconstructed files (default: system temp dir)")
	flags.String(config.KeyBackend, engine.BackendCLI, "Content backend: cli or native")
	flags.Int(config.KeyStatWorkers, git.DefaultStatWorkers, "Concurrent `git show --stat` queries for file history")
	flags.String(config.KeyColor, string(render.ColorAuto), "Colored output: auto, always or never")
	flags.String(config.KeyTheme, render.ThemeAuto.String(), "Color theme: auto, light or dark")
	flags.StringP(config.KeyOutput, "o", string(render.FormatTable), "Output format: table, json or csv")
	flags.Int(config.KeyWidth, 0, "Terminal width override (0 = auto-detect)")
	flags.BoolP(config.KeyVerbose, "v", false, "Enable verbose logging")
	cobra.CheckErr(a.v.BindPFlags(flags))

	root.AddCommand(
		a.lineCmd(),
		a.fileCmd(),
		a.showCmd(),
		a.showLineCmd(),
		a.mcpCmd(),
		a.versionCmd(),
	)
	return root
}

// setup merges defaults, config file, environment and flags.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	setupLogging(a.stderr, cfg.Verbose)
	return nil
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (a *app) printer() *render.Printer {
	return render.New(a.stdout, a.cfg.RenderOptions())
}

// withEngine runs fn with a fresh engine and disposes of it afterwards. With
// keep set the reconstructed files are left on disk for the caller.
func (a *app) withEngine(keep bool, fn func(*engine.Engine) error) error {
	e, err := a.newEngine(a.cfg.EngineOptions())
	if err != nil {
		return err
	}
	err = fn(e)
	if keep {
		return err
	}
	if derr := e.Dispose(); derr != nil {
		slog.Warn("dispose engine", slog.Any("error", derr))
	}
	return err
}
