package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/wtdiff/internal/buildinfo"
	"github.com/thiagokokada/wtdiff/internal/diffdoc"
	"github.com/thiagokokada/wtdiff/internal/git"
	"github.com/thiagokokada/wtdiff/internal/repo"
	"github.com/thiagokokada/wtdiff/internal/watch"
	"github.com/thiagokokada/wtdiff/internal/worktree"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [path]",
		Short: "Report whether path is a repository and its branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.path(args)
			if err != nil {
				return err
			}
			st := a.repo.Status(cmd.Context(), path)
			return a.emit(cmd, st, func(r *renderer) string { return r.status(st) })
		},
	}
}

// diffOutput is the machine-readable form of a diff.
type diffOutput struct {
	repo.Snapshot
	Document diffdoc.Document `json:"document"`
}

func (a *app) newDiffCmd() *cobra.Command {
	var (
		mode     string
		emphasis bool
		raw      bool
	)
	cmd := &cobra.Command{
		Use:   "diff [path]",
		Short: "Show uncommitted, branch or last-commit changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := repo.ParseMode(mode)
			if err != nil {
				return err
			}
			path, err := a.path(args)
			if err != nil {
				return err
			}
			snap, err := a.repo.Diff(cmd.Context(), path, m)
			if err != nil {
				return err
			}
			return a.emitSnapshot(cmd, snap, emphasis, raw)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", repo.ModeUncommitted.String(), "uncommitted, branch or last-turn")
	cmd.Flags().BoolVar(&emphasis, "emphasis", false, "mark changed characters inside paired lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the patch text unparsed")
	return cmd
}

func (a *app) emitSnapshot(cmd *cobra.Command, snap repo.Snapshot, emphasis, raw bool) error {
	if raw {
		_, err := fmt.Fprint(cmd.OutOrStdout(), snap.PatchText)
		return err
	}
	opts := a.cfg.RepoOptions().Diff
	opts.IntralineEmphasis = opts.IntralineEmphasis || emphasis
	doc := snap.Document(opts)
	out := diffOutput{Snapshot: snap, Document: doc}
	return a.emit(cmd, out, func(r *renderer) string { return r.snapshot(snap, doc) })
}

func (a *app) newCompareCmd() *cobra.Command {
	var (
		target       string
		targetBranch string
		emphasis     bool
		raw          bool
	)
	cmd := &cobra.Command{
		Use:   "compare [path]",
		Short: "Diff a worktree against a sibling worktree or its base branch",
		Long: `compare diffs the commits of a worktree since it diverged from a sibling
worktree of the same repository. Without --target or --target-branch the
worktree is compared against its base branch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.path(args)
			if err != nil {
				return err
			}
			req := repo.WorktreeDiffRequest{SourcePath: path, Baseline: repo.DefaultUpstreamBaseline{}}
			switch {
			case target != "":
				req.Baseline = repo.SiblingWorktreeBaseline{Path: target, BranchName: targetBranch}
			case targetBranch != "":
				sibling, err := a.findBranch(cmd, path, targetBranch)
				if err != nil {
					return err
				}
				req.Baseline = repo.SiblingWorktreeBaseline{Path: sibling.WorktreePath, BranchName: sibling.BranchName}
			}
			snap, err := a.repo.DiffWorktreeComparison(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.emitSnapshot(cmd, snap, emphasis, raw)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "path of the sibling worktree to compare against")
	cmd.Flags().StringVarP(&targetBranch, "target-branch", "b", "", "branch checked out in the sibling worktree")
	cmd.Flags().BoolVar(&emphasis, "emphasis", false, "mark changed characters inside paired lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the patch text unparsed")
	return cmd
}

func (a *app) findBranch(cmd *cobra.Command, path, branch string) (worktree.Descriptor, error) {
	cat, err := a.wt.Catalog(cmd.Context(), path)
	if err != nil {
		return worktree.Descriptor{}, err
	}
	for _, d := range cat.Descriptors {
		if d.BranchName == branch {
			return d, nil
		}
	}
	return worktree.Descriptor{}, git.Errorf(git.KindTargetNotFound, "no worktree has branch %q checked out", branch)
}

func (a *app) newCommitCmd() *cobra.Command {
	var (
		message    string
		stagedOnly bool
		push       bool
		pr         bool
	)
	cmd := &cobra.Command{
		Use:   "commit [path]",
		Short: "Commit changes and optionally push them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.path(args)
			if err != nil {
				return err
			}
			policy := repo.IncludeUnstaged
			if stagedOnly {
				policy = repo.StagedOnly
			}
			next := repo.StepCommit
			switch {
			case pr:
				next = repo.StepCommitAndCreatePR
			case push:
				next = repo.StepCommitAndPush
			}
			res, err := a.repo.ExecuteCommit(cmd.Context(), path, policy, message, next)
			if err != nil {
				if res.BranchName != "" {
					slog.Warn("commit created but not published", slog.String("branch", res.BranchName))
				}
				return err
			}
			return a.emit(cmd, res, func(r *renderer) string { return r.commit(res) })
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (generated when empty)")
	cmd.Flags().BoolVar(&stagedOnly, "staged-only", false, "commit the index as it is")
	cmd.Flags().BoolVar(&push, "push", false, "push the branch after committing")
	cmd.Flags().BoolVar(&pr, "pr", false, "push and print the pull request URL")
	return cmd
}

func (a *app) newMessageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "message [path]",
		Short: "Print the commit message generated for the pending changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.path(args)
			if err != nil {
				return err
			}
			msg, err := a.repo.AutoCommitMessage(cmd.Context(), path)
			if err != nil {
				return err
			}
			out := struct {
				Message string `json:"message"`
			}{msg}
			return a.emit(cmd, out, func(*renderer) string { return msg + "\n" })
		},
	}
}

func (a *app) newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "worktree",
		Aliases: []string{"wt"},
		Short:   "List, create and reconcile worktrees",
	}
	cmd.AddCommand(
		a.newWorktreeListCmd(),
		a.newWorktreeAddCmd(),
		a.newWorktreeSyncPlanCmd(),
		a.newWorktreeStaleCmd(),
		a.newWorktreeMetadataCmd(),
	)
	return cmd
}

func (a *app) newWorktreeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list [path]",
		Aliases: []string{"ls"},
		Short:   "List the worktrees of the repository",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.path(args)
			if err != nil {
				return err
			}
			cat, err := a.wt.Catalog(cmd.Context(), path)
			if err != nil {
				return err
			}
			return a.emit(cmd, cat, func(r *renderer) string { return r.catalog(cat) })
		},
	}
}

func (a *app) newWorktreeAddCmd() *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "add <path> <branch>",
		Short: "Create a worktree, checking out or creating branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if base == "" {
				ref, err := git.ResolveBaseReference(cmd.Context(), a.runner, a.repoDir, a.cfg.Git.Remote)
				switch {
				case err == nil:
					base = ref
				case git.KindOf(err) == git.KindMissingBaseBranch:
					base = a.cfg.Commit.DefaultBaseBranch
				default:
					return err
				}
			}
			d, err := a.wt.CreateWorktree(cmd.Context(), worktree.CreateRequest{
				RepositoryPath: a.repoDir,
				Path:           args[0],
				BranchName:     args[1],
				BaseReference:  base,
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, d, func(r *renderer) string { return r.descriptor(d) })
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "reference a new branch starts from (default: the resolved base branch)")
	return cmd
}

func (a *app) newWorktreeSyncPlanCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "sync-plan",
		Short: "Show which worktrees a workspace list is missing or tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, workspaces, err := a.catalogAndWorkspaces(cmd, file)
			if err != nil {
				return err
			}
			plan := worktree.WorkspaceSyncPlan(cat, workspaces)
			return a.emit(cmd, plan, func(r *renderer) string { return r.plan(plan) })
		},
	}
	cmd.Flags().StringVarP(&file, "workspaces", "w", "", "YAML or JSON file listing {id, path} workspaces")
	_ = cmd.MarkFlagRequired("workspaces")
	return cmd
}

func (a *app) newWorktreeStaleCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "stale",
		Short: "List workspaces whose worktree no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, workspaces, err := a.catalogAndWorkspaces(cmd, file)
			if err != nil {
				return err
			}
			ids := worktree.StaleWorkspaces(cat, workspaces)
			return a.emit(cmd, ids, func(r *renderer) string { return r.stale(ids) })
		},
	}
	cmd.Flags().StringVarP(&file, "workspaces", "w", "", "YAML or JSON file listing {id, path} workspaces")
	_ = cmd.MarkFlagRequired("workspaces")
	return cmd
}

func (a *app) catalogAndWorkspaces(cmd *cobra.Command, file string) (worktree.Catalog, []worktree.Workspace, error) {
	workspaces, err := readWorkspaces(file)
	if err != nil {
		return worktree.Catalog{}, nil, err
	}
	cat, err := a.wt.Catalog(cmd.Context(), a.repoDir)
	if err != nil {
		return worktree.Catalog{}, nil, err
	}
	return cat, workspaces, nil
}

// readWorkspaces loads a workspace list. JSON is valid YAML, so one decoder
// reads both. Paths are canonicalized the way catalog paths are.
func readWorkspaces(file string) ([]worktree.Workspace, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var workspaces []worktree.Workspace
	if err := yaml.Unmarshal(data, &workspaces); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	for i := range workspaces {
		if workspaces[i].Path != "" {
			workspaces[i].Path = git.CanonicalizeLenient(workspaces[i].Path)
		}
	}
	return workspaces, nil
}

func (a *app) newWorktreeMetadataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata [path]",
		Short: "Show branch, upstream and local-change state of a worktree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.path(args)
			if err != nil {
				return err
			}
			m, err := a.wt.BranchMetadata(cmd.Context(), path)
			if err != nil {
				return err
			}
			return a.emit(cmd, m, func(r *renderer) string { return r.metadata(m) })
		},
	}
}

func (a *app) newWatchCmd() *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Print the change summary whenever the repository changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.path(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			root, err := git.Toplevel(ctx, a.runner, path)
			if err != nil {
				return err
			}
			report := func() {
				snap, err := a.repo.Diff(ctx, root, repo.ModeUncommitted)
				if err != nil {
					if ctx.Err() == nil {
						slog.Error("refresh diff", slog.Any("error", err))
					}
					return
				}
				if err := a.emit(cmd, snap.Summary, func(r *renderer) string { return r.summary(snap.Summary) }); err != nil {
					slog.Error("write summary", slog.Any("error", err))
				}
			}
			report()
			w, err := watch.New(root, delay, report)
			if err != nil {
				return err
			}
			defer w.Close()
			slog.Info("watching repository", slog.String("path", root))
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "quiet period before reporting a burst of changes")
	return cmd
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := buildinfo.Read()
			return a.emit(cmd, info, func(*renderer) string { return info.String() + "\n" })
		},
	}
}
