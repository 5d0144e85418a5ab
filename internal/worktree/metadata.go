package worktree

import (
	"context"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git"
)

// Metadata is the branch and local-change summary of one worktree.
type Metadata struct {
	Branch       string `json:"branch"`
	OID          string `json:"oid,omitempty"`
	Detached     bool   `json:"detached"`
	Upstream     string `json:"upstream,omitempty"`
	Ahead        int    `json:"ahead"`
	Behind       int    `json:"behind"`
	HasStaged    bool   `json:"hasStaged"`
	HasUnstaged  bool   `json:"hasUnstaged"`
	HasUntracked bool   `json:"hasUntracked"`
	HasConflicts bool   `json:"hasConflicts"`
}

// BranchMetadata reads `git status --porcelain=v2 --branch` for path. It is
// bounded by Options.MetadataTimeout and fails with KindTimedOut when git
// does not answer in time.
func (s *Service) BranchMetadata(ctx context.Context, path string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.MetadataTimeout)
	defer cancel()

	out, err := git.Output(ctx, s.runner, path, "status", "--porcelain=v2", "--branch")
	if err != nil {
		return Metadata{}, err
	}
	st, err := git.ParseStatusPorcelainV2(strings.NewReader(out))
	if err != nil {
		return Metadata{}, git.NewError(git.KindParseFailed, "status --porcelain=v2").WithPath(path).WithCause(err)
	}
	branch := st.Branch.Head
	if st.Branch.Detached {
		branch = "HEAD"
	}
	return Metadata{
		Branch:       branch,
		OID:          st.Branch.OID,
		Detached:     st.Branch.Detached,
		Upstream:     st.Branch.Upstream,
		Ahead:        st.Branch.Ahead,
		Behind:       st.Branch.Behind,
		HasStaged:    st.Changes.HasStaged,
		HasUnstaged:  st.Changes.HasWorktree,
		HasUntracked: st.Changes.HasUntracked,
		HasConflicts: st.Changes.HasConflicts,
	}, nil
}
