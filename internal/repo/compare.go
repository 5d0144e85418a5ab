package repo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/thiagokokada/wtdiff/internal/git"
)

// ComparisonBaseline selects what DiffWorktreeComparison compares the
// source worktree against. It is implemented by DefaultUpstreamBaseline and
// SiblingWorktreeBaseline only.
type ComparisonBaseline interface {
	isComparisonBaseline()
}

// DefaultUpstreamBaseline compares against merge-base(HEAD, base) where base
// comes from the base-reference fallback chain.
type DefaultUpstreamBaseline struct{}

// SiblingWorktreeBaseline compares against another worktree of the same
// repository. BranchName labels the baseline for display.
type SiblingWorktreeBaseline struct {
	Path       string
	BranchName string
}

func (DefaultUpstreamBaseline) isComparisonBaseline() {}
func (SiblingWorktreeBaseline) isComparisonBaseline() {}

// WorktreeDiffRequest asks for the changes in SourcePath relative to
// Baseline.
type WorktreeDiffRequest struct {
	SourcePath string
	Baseline   ComparisonBaseline
}

// DiffWorktreeComparison diffs a worktree against its baseline. For a
// sibling baseline both worktrees must share the same git common directory
// and must not be the same worktree; the diff covers the source's commits
// since the merge-base of the two HEADs.
func (s *Service) DiffWorktreeComparison(ctx context.Context, req WorktreeDiffRequest) (Snapshot, error) {
	source, err := git.Canonicalize(req.SourcePath)
	if err != nil {
		return Snapshot{}, git.NewError(git.KindNotARepository, "").WithPath(req.SourcePath).WithCause(err)
	}
	if err := s.requireWorkTree(ctx, source); err != nil {
		return Snapshot{}, err
	}

	switch baseline := req.Baseline.(type) {
	case nil:
		return Snapshot{}, git.NewError(git.KindInvalidBaseline, "no baseline given")
	case DefaultUpstreamBaseline:
		return s.allBranchChanges(ctx, source)
	case SiblingWorktreeBaseline:
		return s.diffAgainstSibling(ctx, source, baseline)
	default:
		return Snapshot{}, git.Errorf(git.KindInvalidBaseline, "unsupported baseline %T", baseline)
	}
}

func (s *Service) diffAgainstSibling(ctx context.Context, source string, baseline SiblingWorktreeBaseline) (Snapshot, error) {
	if baseline.Path == "" {
		return Snapshot{}, git.NewError(git.KindInvalidBaseline, "sibling worktree path is empty")
	}
	target, err := git.Canonicalize(baseline.Path)
	if err != nil {
		return Snapshot{}, git.NewError(git.KindTargetNotFound, "").WithPath(baseline.Path).WithCause(err)
	}
	ok, err := git.IsWorkTree(ctx, s.runner, target)
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{}, git.NewError(git.KindTargetNotFound, "not a worktree").WithPath(target)
	}

	sourceCommon, err := git.CommonDir(ctx, s.runner, source)
	if err != nil {
		return Snapshot{}, err
	}
	targetCommon, err := git.CommonDir(ctx, s.runner, target)
	if err != nil {
		return Snapshot{}, notFoundIfNotRepo(err, target)
	}
	if sourceCommon != targetCommon {
		return Snapshot{}, git.Errorf(git.KindCrossRepositoryUnsupported, "%s and %s belong to different repositories", source, target)
	}

	sourceTop, err := git.Toplevel(ctx, s.runner, source)
	if err != nil {
		return Snapshot{}, err
	}
	targetTop, err := git.Toplevel(ctx, s.runner, target)
	if err != nil {
		return Snapshot{}, notFoundIfNotRepo(err, target)
	}
	if sourceTop == targetTop {
		return Snapshot{}, git.NewError(git.KindInvalidRequest, "cannot compare a worktree with itself").WithPath(sourceTop)
	}

	sourceHead, err := s.head(ctx, sourceTop)
	if err != nil {
		return Snapshot{}, err
	}
	targetHead, err := s.head(ctx, targetTop)
	if err != nil {
		return Snapshot{}, err
	}
	mergeBase, err := s.mergeBase(ctx, sourceTop, sourceHead, targetHead)
	if err != nil {
		return Snapshot{}, err
	}
	slog.Debug("comparing worktrees",
		slog.String("source", sourceTop),
		slog.String("target", targetTop),
		slog.String("targetBranch", baseline.BranchName),
		slog.String("mergeBase", mergeBase),
	)
	return s.snapshot(ctx, sourceTop, mergeBase, sourceHead)
}

func (s *Service) head(ctx context.Context, dir string) (string, error) {
	hash, ok, err := git.RevParse(ctx, s.runner, dir, "HEAD")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", git.NewError(git.KindNoHistory, "HEAD does not point to a commit").WithPath(dir)
	}
	return hash, nil
}

func notFoundIfNotRepo(err error, path string) error {
	if errors.Is(err, git.ErrNotARepository) {
		return git.NewError(git.KindTargetNotFound, "").WithPath(path).WithCause(err)
	}
	return err
}
