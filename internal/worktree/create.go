package worktree

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git"
)

// CreateRequest asks for a new worktree at Path. An existing local branch
// is checked out; otherwise BranchName is created from BaseReference.
type CreateRequest struct {
	RepositoryPath string `json:"repositoryPath"`
	Path           string `json:"path"`
	BranchName     string `json:"branchName"`
	BaseReference  string `json:"baseReference"`
}

func (r CreateRequest) validate() error {
	switch {
	case strings.TrimSpace(r.RepositoryPath) == "":
		return git.NewError(git.KindInvalidRequest, "repository path is empty")
	case strings.TrimSpace(r.Path) == "":
		return git.NewError(git.KindInvalidRequest, "worktree path is empty")
	case strings.TrimSpace(r.BranchName) == "":
		return git.NewError(git.KindInvalidRequest, "branch name is empty")
	case strings.TrimSpace(r.BaseReference) == "":
		return git.NewError(git.KindInvalidRequest, "base reference is empty")
	}
	return nil
}

// CreateWorktree adds a worktree and returns its descriptor from a fresh
// catalog.
func (s *Service) CreateWorktree(ctx context.Context, req CreateRequest) (Descriptor, error) {
	if err := req.validate(); err != nil {
		return Descriptor{}, err
	}
	branch := strings.TrimSpace(req.BranchName)
	base := strings.TrimSpace(req.BaseReference)

	repoPath, err := git.Canonicalize(req.RepositoryPath)
	if err != nil {
		return Descriptor{}, git.NewError(git.KindNotARepository, "").WithPath(req.RepositoryPath).WithCause(err)
	}
	top, err := git.Toplevel(ctx, s.runner, repoPath)
	if err != nil {
		return Descriptor{}, err
	}

	if _, ok, err := git.Probe(ctx, s.runner, top, "check-ref-format", "--branch", branch); err != nil {
		return Descriptor{}, err
	} else if !ok {
		return Descriptor{}, git.Errorf(git.KindInvalidRequest, "invalid branch name %q", branch)
	}

	dest, err := filepath.Abs(req.Path)
	if err != nil {
		return Descriptor{}, git.NewError(git.KindInvalidRequest, "").WithPath(req.Path).WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Descriptor{}, git.NewError(git.KindInvalidRequest, "create parent directory").WithPath(dest).WithCause(err)
	}

	exists, err := git.LocalBranchExists(ctx, s.runner, top, branch)
	if err != nil {
		return Descriptor{}, err
	}
	args := []string{"worktree", "add", dest, branch}
	if !exists {
		args = []string{"worktree", "add", "-b", branch, dest, base}
	}
	if _, err := git.Output(ctx, s.runner, top, args...); err != nil {
		return Descriptor{}, err
	}
	slog.Info("worktree created",
		slog.String("path", dest),
		slog.String("branch", branch),
		slog.Bool("newBranch", !exists),
	)

	cat, err := s.Catalog(ctx, dest)
	if err != nil {
		return Descriptor{}, err
	}
	d, ok := cat.Find(git.CanonicalizeLenient(dest))
	if !ok {
		return Descriptor{}, git.NewError(git.KindDescriptorNotFound, "").WithPath(dest)
	}
	return d, nil
}
