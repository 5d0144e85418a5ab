// Package repo runs status, diff and commit operations against a single
// working tree through the git executable.
package repo

import (
	"context"
	"log/slog"

	"github.com/thiagokokada/wtdiff/internal/diffdoc"
	"github.com/thiagokokada/wtdiff/internal/git"
	"github.com/thiagokokada/wtdiff/internal/git/backend"
)

// DefaultBaseBranch is reported as CommitResult.BaseBranch when no base
// reference resolves.
const DefaultBaseBranch = "main"

// Options configures a Service.
type Options struct {
	// Disabled gates the integration off; Status reports FeatureDisabled.
	Disabled bool
	// Remote is the remote used for base resolution and pushes.
	Remote string
	// DefaultBaseBranch overrides DefaultBaseBranch.
	DefaultBaseBranch string
	// Diff is applied by Snapshot.Document.
	Diff diffdoc.Options
}

// Service is stateless; it is safe for concurrent use. Callers must not
// run mutating operations concurrently against the same repository.
type Service struct {
	runner backend.Runner
	opts   Options
}

// New returns a Service executing git through runner.
func New(runner backend.Runner, opts Options) *Service {
	if opts.Remote == "" {
		opts.Remote = git.DefaultRemote
	}
	if opts.DefaultBaseBranch == "" {
		opts.DefaultBaseBranch = DefaultBaseBranch
	}
	return &Service{runner: runner, opts: opts}
}

// DisabledReason explains why Status reports the integration unavailable.
type DisabledReason string

const (
	ReasonNone             DisabledReason = ""
	ReasonNotGitRepository DisabledReason = "notGitRepository"
	ReasonFeatureDisabled  DisabledReason = "featureDisabled"
)

// Status describes whether path can be used by the other operations.
// DisabledReason is set exactly when IsRepository is false or the feature
// is gated off.
type Status struct {
	IsRepository   bool           `json:"isRepository"`
	BranchName     string         `json:"branchName,omitempty"`
	DisabledReason DisabledReason `json:"disabledReason,omitempty"`
}

// Status probes path. Failures are reported through DisabledReason rather
// than returned.
func (s *Service) Status(ctx context.Context, path string) Status {
	if s.opts.Disabled {
		return Status{DisabledReason: ReasonFeatureDisabled}
	}
	ok, err := git.IsWorkTree(ctx, s.runner, path)
	if err != nil || !ok {
		if err != nil {
			slog.Debug("status probe failed", slog.String("path", path), slog.Any("error", err))
		}
		return Status{DisabledReason: ReasonNotGitRepository}
	}
	branch, err := git.CurrentBranch(ctx, s.runner, path)
	if err != nil {
		slog.Debug("branch lookup failed", slog.String("path", path), slog.Any("error", err))
		branch = "HEAD"
	}
	return Status{IsRepository: true, BranchName: branch}
}

// requireWorkTree fails with KindNotARepository unless path is inside a
// working tree.
func (s *Service) requireWorkTree(ctx context.Context, path string) error {
	ok, err := git.IsWorkTree(ctx, s.runner, path)
	if err != nil {
		return err
	}
	if !ok {
		return git.NewError(git.KindNotARepository, "").WithPath(path)
	}
	return nil
}
