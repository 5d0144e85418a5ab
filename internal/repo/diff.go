package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/diffdoc"
	"github.com/thiagokokada/wtdiff/internal/git"
)

// Mode selects what Diff compares.
type Mode uint8

const (
	// ModeUncommitted diffs the working tree against the index.
	ModeUncommitted Mode = iota
	// ModeAllBranchChanges diffs merge-base(HEAD, base) against HEAD.
	ModeAllBranchChanges
	// ModeLastTurnChanges diffs HEAD~1 against HEAD.
	ModeLastTurnChanges
)

func (m Mode) String() string {
	switch m {
	case ModeUncommitted:
		return "uncommitted"
	case ModeAllBranchChanges:
		return "branch"
	case ModeLastTurnChanges:
		return "last-turn"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode accepts the names printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uncommitted":
		return ModeUncommitted, nil
	case "branch", "all-branch-changes":
		return ModeAllBranchChanges, nil
	case "last-turn", "last-turn-changes":
		return ModeLastTurnChanges, nil
	default:
		return 0, fmt.Errorf("unknown diff mode %q", s)
	}
}

// Summary totals a snapshot from `git diff --numstat`, independently of the
// patch text.
type Summary struct {
	BranchName   string `json:"branchName"`
	FilesChanged int    `json:"filesChanged"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
}

// Snapshot is the raw patch plus its summary.
type Snapshot struct {
	Summary   Summary `json:"summary"`
	PatchText string  `json:"patchText"`
}

// Document parses the patch text.
func (s Snapshot) Document(opts diffdoc.Options) diffdoc.Document {
	return diffdoc.ParseWithOptions(s.PatchText, opts)
}

// Document parses snap with the service's diff options.
func (s *Service) Document(snap Snapshot) diffdoc.Document {
	return snap.Document(s.opts.Diff)
}

// Diff captures the changes selected by mode.
func (s *Service) Diff(ctx context.Context, path string, mode Mode) (Snapshot, error) {
	if err := s.requireWorkTree(ctx, path); err != nil {
		return Snapshot{}, err
	}
	switch mode {
	case ModeUncommitted:
		return s.snapshot(ctx, path)
	case ModeAllBranchChanges:
		return s.allBranchChanges(ctx, path)
	case ModeLastTurnChanges:
		return s.lastTurnChanges(ctx, path)
	default:
		return Snapshot{}, git.Errorf(git.KindInvalidRequest, "unknown diff mode %d", mode)
	}
}

func (s *Service) allBranchChanges(ctx context.Context, path string) (Snapshot, error) {
	base, err := git.ResolveBaseReference(ctx, s.runner, path, s.opts.Remote)
	if err != nil {
		return Snapshot{}, err
	}
	mergeBase, err := s.mergeBase(ctx, path, "HEAD", base)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, path, mergeBase, "HEAD")
}

func (s *Service) lastTurnChanges(ctx context.Context, path string) (Snapshot, error) {
	_, ok, err := git.RevParse(ctx, s.runner, path, "HEAD~1")
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{}, git.NewError(git.KindNoHistory, "HEAD has no parent commit").WithPath(path)
	}
	return s.snapshot(ctx, path, "HEAD~1", "HEAD")
}

func (s *Service) mergeBase(ctx context.Context, dir, a, b string) (string, error) {
	out, err := git.Output(ctx, s.runner, dir, "merge-base", a, b)
	if err != nil {
		return "", err
	}
	mb := strings.TrimSpace(out)
	if mb == "" {
		return "", git.Errorf(git.KindCommandFailed, "no merge base between %s and %s", a, b).WithPath(dir)
	}
	return mb, nil
}

// snapshot runs `git diff` and `git diff --numstat` over revs in dir.
func (s *Service) snapshot(ctx context.Context, dir string, revs ...string) (Snapshot, error) {
	patch, err := git.Output(ctx, s.runner, dir, patchArgs(revs...)...)
	if err != nil {
		return Snapshot{}, err
	}
	stat, err := git.Output(ctx, s.runner, dir, numstatArgs(revs...)...)
	if err != nil {
		return Snapshot{}, err
	}
	branch, err := git.CurrentBranch(ctx, s.runner, dir)
	if err != nil {
		return Snapshot{}, err
	}
	n := git.ParseNumstat(stat)
	return Snapshot{
		Summary: Summary{
			BranchName:   branch,
			FilesChanged: n.FilesChanged,
			Additions:    n.Additions,
			Deletions:    n.Deletions,
		},
		PatchText: patch,
	}, nil
}

func patchArgs(revs ...string) []string {
	return append([]string{"diff", "--no-color", "--no-ext-diff"}, revs...)
}

func numstatArgs(revs ...string) []string {
	return append([]string{"diff", "--numstat", "--no-color"}, revs...)
}
