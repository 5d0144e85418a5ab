package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/thiagokokada/wtdiff/internal/git"
	"github.com/thiagokokada/wtdiff/internal/git/backend"
	"github.com/thiagokokada/wtdiff/internal/git/gittest"
)

const (
	commonDirArgs = "rev-parse --path-format=absolute --git-common-dir"
	toplevelArgs  = "rev-parse --show-toplevel"
	headArgs      = "rev-parse --verify --quiet HEAD^{commit}"
)

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	return dir
}

func okResult(stdout string) backend.Result { return backend.Result{Stdout: stdout} }

// siblingRunner wires two worktrees of one repository sharing common.
func siblingRunner(source, target, common string) *gittest.FakeRunner {
	return newRepoRunner("feature").
		OnDir(source, commonDirArgs, okResult(common+"\n")).
		OnDir(target, commonDirArgs, okResult(common+"\n")).
		OnDir(source, toplevelArgs, okResult(source+"\n")).
		OnDir(target, toplevelArgs, okResult(target+"\n")).
		OnDir(source, headArgs, okResult("aaaa\n")).
		OnDir(target, headArgs, okResult("bbbb\n"))
}

func TestDiffWorktreeComparison_Sibling(t *testing.T) {
	t.Parallel()

	source, target := tempDir(t), tempDir(t)
	runner := siblingRunner(source, target, "/shared/.git").
		OnDir(source, "merge-base aaaa bbbb", okResult("cccc\n")).
		OnDir(source, "diff --no-color --no-ext-diff cccc aaaa", okResult(scenarioPatch)).
		OnDir(source, "diff --numstat --no-color cccc aaaa", okResult("1\t1\tx.txt\n"))

	snap, err := New(runner, Options{}).DiffWorktreeComparison(context.Background(), WorktreeDiffRequest{
		SourcePath: source,
		Baseline:   SiblingWorktreeBaseline{Path: target, BranchName: "main"},
	})
	if err != nil {
		t.Fatalf("DiffWorktreeComparison() error = %v", err)
	}
	want := Summary{BranchName: "feature", FilesChanged: 1, Additions: 1, Deletions: 1}
	if snap.Summary != want {
		t.Fatalf("Summary = %+v, want %+v", snap.Summary, want)
	}
}

func TestDiffWorktreeComparison_DefaultUpstream(t *testing.T) {
	t.Parallel()

	source := tempDir(t)
	runner := newRepoRunner("feature").
		On("rev-parse --verify --quiet main^{commit}", "1111\n").
		On("merge-base HEAD main", "cccc\n").
		On("diff --no-color --no-ext-diff cccc HEAD", "").
		On("diff --numstat --no-color cccc HEAD", "")

	snap, err := New(runner, Options{}).DiffWorktreeComparison(context.Background(), WorktreeDiffRequest{
		SourcePath: source,
		Baseline:   DefaultUpstreamBaseline{},
	})
	if err != nil {
		t.Fatalf("DiffWorktreeComparison() error = %v", err)
	}
	if snap.Summary.FilesChanged != 0 || snap.PatchText != "" {
		t.Fatalf("snapshot = %+v, want empty", snap)
	}
}

func TestDiffWorktreeComparison_Errors(t *testing.T) {
	t.Parallel()

	source, target, other := tempDir(t), tempDir(t), tempDir(t)
	missing := filepath.Join(target, "does-not-exist")

	tests := []struct {
		name     string
		runner   *gittest.FakeRunner
		source   string
		baseline ComparisonBaseline
		want     git.Kind
	}{
		{
			name:   "nil_baseline",
			runner: siblingRunner(source, target, "/shared/.git"),
			source: source,
			want:   git.KindInvalidBaseline,
		},
		{
			name:     "empty_sibling_path",
			runner:   siblingRunner(source, target, "/shared/.git"),
			source:   source,
			baseline: SiblingWorktreeBaseline{},
			want:     git.KindInvalidBaseline,
		},
		{
			name:     "missing_target",
			runner:   siblingRunner(source, target, "/shared/.git"),
			source:   source,
			baseline: SiblingWorktreeBaseline{Path: missing},
			want:     git.KindTargetNotFound,
		},
		{
			name: "target_not_a_worktree",
			runner: siblingRunner(source, target, "/shared/.git").
				OnDir(other, insideArgs, backend.Result{ExitCode: 128, Stderr: "fatal: not a git repository"}),
			source:   source,
			baseline: SiblingWorktreeBaseline{Path: other},
			want:     git.KindTargetNotFound,
		},
		{
			name: "cross_repository",
			runner: siblingRunner(source, target, "/shared/.git").
				OnDir(target, commonDirArgs, okResult("/elsewhere/.git\n")),
			source:   source,
			baseline: SiblingWorktreeBaseline{Path: target},
			want:     git.KindCrossRepositoryUnsupported,
		},
		{
			name: "same_worktree",
			runner: siblingRunner(source, target, "/shared/.git").
				OnDir(target, toplevelArgs, okResult(source+"\n")),
			source:   source,
			baseline: SiblingWorktreeBaseline{Path: target},
			want:     git.KindInvalidRequest,
		},
		{
			name:     "same_path",
			runner:   siblingRunner(source, target, "/shared/.git"),
			source:   source,
			baseline: SiblingWorktreeBaseline{Path: source + string(filepath.Separator) + "."},
			want:     git.KindInvalidRequest,
		},
		{
			name: "source_not_a_repository",
			runner: siblingRunner(source, target, "/shared/.git").
				OnDir(source, insideArgs, backend.Result{ExitCode: 128}),
			source:   source,
			baseline: SiblingWorktreeBaseline{Path: target},
			want:     git.KindNotARepository,
		},
		{
			name:     "source_missing",
			runner:   siblingRunner(source, target, "/shared/.git"),
			source:   missing,
			baseline: DefaultUpstreamBaseline{},
			want:     git.KindNotARepository,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.runner, Options{}).DiffWorktreeComparison(context.Background(), WorktreeDiffRequest{
				SourcePath: tt.source,
				Baseline:   tt.baseline,
			})
			if got := git.KindOf(err); got != tt.want {
				t.Fatalf("error kind = %v (%v), want %v", got, err, tt.want)
			}
			for _, c := range tt.runner.Calls() {
				if c.Args[0] == "diff" {
					t.Fatalf("diff ran despite error: %v", c.Args)
				}
			}
		})
	}
}

func TestDiffWorktreeComparison_TargetWithoutHistory(t *testing.T) {
	t.Parallel()

	source, target := tempDir(t), tempDir(t)
	runner := siblingRunner(source, target, "/shared/.git").
		OnDir(target, headArgs, backend.Result{ExitCode: 1})

	_, err := New(runner, Options{}).DiffWorktreeComparison(context.Background(), WorktreeDiffRequest{
		SourcePath: source,
		Baseline:   SiblingWorktreeBaseline{Path: target},
	})
	if !errors.Is(err, git.ErrNoHistory) {
		t.Fatalf("error = %v, want no history", err)
	}
}
