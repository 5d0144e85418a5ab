package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thiagokokada/wtdiff/internal/config"
	"github.com/thiagokokada/wtdiff/internal/git/backend"
	"github.com/thiagokokada/wtdiff/internal/repo"
	"github.com/thiagokokada/wtdiff/internal/worktree"
)

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(&app{v: viper.New()})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app is the state shared by every subcommand once the root's pre-run has
// loaded the configuration.
type app struct {
	v *viper.Viper

	cfgFile  string
	repoDir  string
	output   string
	theme    string
	verbose  bool
	noSyntax bool

	cfg    *config.Config
	format outputFormat
	runner backend.Runner
	repo   *repo.Service
	wt     *worktree.Service
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wtdiff",
		Short: "Inspect diffs, commits and worktrees of git repositories",
		Long: `wtdiff reports repository status, renders structured diffs, commits
changes and keeps track of the linked worktrees of a repository.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is "+config.File()+")")
	flags.StringVarP(&a.repoDir, "repo", "C", ".", "repository or worktree to operate on")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&a.output, "output", "o", string(formatText), "output format: text, json or yaml")
	flags.StringVar(&a.theme, "theme", ThemeAuto.String(), "color theme: auto, light or dark")
	flags.BoolVar(&a.noSyntax, "nosyntax", false, "disable syntax highlighting in diffs")

	root.AddCommand(
		a.newStatusCmd(),
		a.newDiffCmd(),
		a.newCompareCmd(),
		a.newCommitCmd(),
		a.newMessageCmd(),
		a.newWorktreeCmd(),
		a.newWatchCmd(),
		a.newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	setupLogging(cmd.ErrOrStderr(), cfg.Log.Level, a.verbose)

	if a.format, err = parseOutputFormat(a.output); err != nil {
		return err
	}
	dir, err := filepath.Abs(a.repoDir)
	if err != nil {
		return err
	}
	a.repoDir = dir

	cli := backend.NewCLI(cfg.Git.Binary, cfg.Git.CommandTimeout)
	if cmd.Name() != "version" {
		if _, err := cli.CheckVersion(cmd.Context()); err != nil {
			return err
		}
	}
	a.runner = cli
	a.repo = repo.New(a.runner, cfg.RepoOptions())
	a.wt = worktree.New(a.runner, cfg.WorktreeOptions())
	return nil
}

func setupLogging(w io.Writer, level string, verbose bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}

// path returns args[0] made absolute, or the --repo directory.
func (a *app) path(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return a.repoDir, nil
	}
	return filepath.Abs(args[0])
}
