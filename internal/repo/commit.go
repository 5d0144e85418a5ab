package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git"
)

// StagePolicy decides what ExecuteCommit stages first.
type StagePolicy uint8

const (
	// IncludeUnstaged stages every change, untracked files included.
	IncludeUnstaged StagePolicy = iota
	// StagedOnly commits the index as it is.
	StagedOnly
)

// NextStep decides what happens after the commit is created.
type NextStep uint8

const (
	StepCommit NextStep = iota
	StepCommitAndPush
	StepCommitAndCreatePR
)

func (n NextStep) String() string {
	switch n {
	case StepCommit:
		return "commit"
	case StepCommitAndPush:
		return "commitAndPush"
	case StepCommitAndCreatePR:
		return "commitAndCreatePR"
	default:
		return fmt.Sprintf("NextStep(%d)", uint8(n))
	}
}

// CommitResult describes a finished commit. BaseBranch is always set.
type CommitResult struct {
	BranchName     string `json:"branchName"`
	RemoteURL      string `json:"remoteURL,omitempty"`
	BaseBranch     string `json:"baseBranch"`
	Pushed         bool   `json:"pushed"`
	PullRequestURL string `json:"pullRequestURL,omitempty"`
}

// ExecuteCommit stages according to policy, commits and optionally pushes.
// An empty message is replaced by the AutoCommitMessage format applied to the
// staged paths only. When the push fails
// the commit has already been made; the returned result describes it along
// with the error.
func (s *Service) ExecuteCommit(ctx context.Context, path string, policy StagePolicy, message string, next NextStep) (CommitResult, error) {
	if err := s.requireWorkTree(ctx, path); err != nil {
		return CommitResult{}, err
	}
	if policy == IncludeUnstaged {
		if _, err := git.Output(ctx, s.runner, path, "add", "-A"); err != nil {
			return CommitResult{}, err
		}
	}

	// `diff --cached --quiet` exits 1 when something is staged.
	args := []string{"diff", "--cached", "--quiet"}
	res, err := git.Exec(ctx, s.runner, path, args...)
	if err != nil {
		return CommitResult{}, err
	}
	switch res.ExitCode {
	case 0:
		return CommitResult{}, git.NewError(git.KindNoChangesToCommit, "").WithPath(path)
	case 1:
	default:
		return CommitResult{}, git.CommandFailed(path, args, res)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		if message, err = s.stagedCommitMessage(ctx, path); err != nil {
			return CommitResult{}, err
		}
	}
	if _, err := git.Output(ctx, s.runner, path, "commit", "-m", message); err != nil {
		return CommitResult{}, err
	}

	result, err := s.describeCommit(ctx, path)
	if err != nil {
		return CommitResult{}, err
	}
	slog.Info("committed",
		slog.String("path", path),
		slog.String("branch", result.BranchName),
		slog.String("next", next.String()),
	)
	if next == StepCommit {
		return result, nil
	}

	if _, err := git.Output(ctx, s.runner, path, "push", "-u", s.opts.Remote, "HEAD"); err != nil {
		return result, fmt.Errorf("push %s: %w", result.BranchName, err)
	}
	result.Pushed = true
	if next == StepCommitAndCreatePR {
		result.PullRequestURL = PullRequestURL(result.RemoteURL, result.BaseBranch, result.BranchName)
	}
	return result, nil
}

func (s *Service) describeCommit(ctx context.Context, path string) (CommitResult, error) {
	branch, err := git.CurrentBranch(ctx, s.runner, path)
	if err != nil {
		return CommitResult{}, err
	}
	result := CommitResult{BranchName: branch, BaseBranch: s.opts.DefaultBaseBranch}

	if out, ok, err := git.Probe(ctx, s.runner, path, "remote", "get-url", s.opts.Remote); err != nil {
		return CommitResult{}, err
	} else if ok {
		result.RemoteURL = strings.TrimSpace(out)
	}

	base, err := git.ResolveBaseReference(ctx, s.runner, path, s.opts.Remote)
	if err == nil && git.BranchFromReference(base, s.opts.Remote) == branch {
		// The branch's own upstream is not a useful base.
		base, err = git.ResolveDefaultReference(ctx, s.runner, path, s.opts.Remote)
	}
	switch {
	case err == nil:
		if b := git.BranchFromReference(base, s.opts.Remote); b != branch {
			result.BaseBranch = b
		}
	case errors.Is(err, git.ErrMissingBaseBranch):
	default:
		slog.Warn("base branch lookup failed", slog.String("path", path), slog.Any("error", err))
	}
	return result, nil
}
