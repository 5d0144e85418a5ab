package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/thiagokokada/wtdiff/internal/git/gittest"
)

const (
	insideArgs = "rev-parse --is-inside-work-tree"
	branchArgs = "symbolic-ref -q --short HEAD"
)

func newRepoRunner(branch string) *gittest.FakeRunner {
	r := gittest.NewFakeRunner().On(insideArgs, "true\n")
	if branch != "" {
		r.On(branchArgs, branch+"\n")
	} else {
		r.OnExit(branchArgs, 1, "")
	}
	return r
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		runner *gittest.FakeRunner
		opts   Options
		want   Status
	}{
		{
			name:   "branch",
			runner: newRepoRunner("feature"),
			want:   Status{IsRepository: true, BranchName: "feature"},
		},
		{
			name:   "detached",
			runner: newRepoRunner(""),
			want:   Status{IsRepository: true, BranchName: "HEAD"},
		},
		{
			name:   "not_a_repository",
			runner: gittest.NewFakeRunner().OnExit(insideArgs, 128, "fatal: not a git repository"),
			want:   Status{DisabledReason: ReasonNotGitRepository},
		},
		{
			name:   "runner_error",
			runner: gittest.NewFakeRunner().OnError(insideArgs, errors.New("exec: \"git\": executable file not found")),
			want:   Status{DisabledReason: ReasonNotGitRepository},
		},
		{
			name:   "disabled",
			runner: newRepoRunner("main"),
			opts:   Options{Disabled: true},
			want:   Status{DisabledReason: ReasonFeatureDisabled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := New(tt.runner, tt.opts).Status(context.Background(), "/repo")
			if got != tt.want {
				t.Fatalf("Status() = %+v, want %+v", got, tt.want)
			}
			if (got.DisabledReason != ReasonNone) == (got.IsRepository && !tt.opts.Disabled) {
				t.Fatalf("DisabledReason %q inconsistent with IsRepository=%v", got.DisabledReason, got.IsRepository)
			}
		})
	}
}

func TestStatusDisabledRunsNothing(t *testing.T) {
	t.Parallel()

	runner := gittest.NewFakeRunner()
	New(runner, Options{Disabled: true}).Status(context.Background(), "/repo")
	if calls := runner.Calls(); len(calls) != 0 {
		t.Fatalf("unexpected git calls: %+v", calls)
	}
}
