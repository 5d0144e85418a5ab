package worktree

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thiagokokada/wtdiff/internal/git"
	"github.com/thiagokokada/wtdiff/internal/git/backend"
	"github.com/thiagokokada/wtdiff/internal/git/gittest"
)

const metadataArgs = "status --porcelain=v2 --branch"

func TestBranchMetadata(t *testing.T) {
	t.Parallel()

	out := "# branch.oid 1111111111111111111111111111111111111111\n" +
		"# branch.head feature\n" +
		"# branch.upstream origin/feature\n" +
		"# branch.ab +2 -5\n" +
		"1 M. N... 100644 100644 100644 aaa bbb staged.go\n" +
		"? new.txt\n"
	runner := gittest.NewFakeRunner().On(metadataArgs, out)

	got, err := New(runner, Options{}).BranchMetadata(context.Background(), "/repo")
	if err != nil {
		t.Fatalf("BranchMetadata() error = %v", err)
	}
	want := Metadata{
		Branch:       "feature",
		OID:          "1111111111111111111111111111111111111111",
		Upstream:     "origin/feature",
		Ahead:        2,
		Behind:       5,
		HasStaged:    true,
		HasUntracked: true,
	}
	if got != want {
		t.Fatalf("BranchMetadata() = %+v, want %+v", got, want)
	}
}

func TestBranchMetadata_Detached(t *testing.T) {
	t.Parallel()

	runner := gittest.NewFakeRunner().On(metadataArgs, "# branch.oid abc\n# branch.head (detached)\n")
	got, err := New(runner, Options{}).BranchMetadata(context.Background(), "/repo")
	if err != nil {
		t.Fatalf("BranchMetadata() error = %v", err)
	}
	if !got.Detached || got.Branch != "HEAD" || got.Upstream != "" {
		t.Fatalf("BranchMetadata() = %+v", got)
	}
}

func TestBranchMetadata_TimesOut(t *testing.T) {
	t.Parallel()

	runner := gittest.NewFakeRunner()
	runner.RunFunc = func(ctx context.Context, dir string, args ...string) (backend.Result, error) {
		<-ctx.Done()
		return backend.Result{ExitCode: -1}, ctx.Err()
	}

	start := time.Now()
	_, err := New(runner, Options{MetadataTimeout: 20 * time.Millisecond}).BranchMetadata(context.Background(), "/repo")
	if !errors.Is(err, git.ErrTimedOut) {
		t.Fatalf("BranchMetadata() error = %v, want timed out", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error %v does not wrap the deadline", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("BranchMetadata took %v", elapsed)
	}
}

func TestBranchMetadata_CommandFailed(t *testing.T) {
	t.Parallel()

	runner := gittest.NewFakeRunner().OnExit(metadataArgs, 128, "fatal: not a git repository")
	_, err := New(runner, Options{}).BranchMetadata(context.Background(), "/repo")
	if !errors.Is(err, git.ErrCommandFailed) {
		t.Fatalf("BranchMetadata() error = %v", err)
	}
}
