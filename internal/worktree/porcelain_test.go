package worktree

import (
	"errors"
	"testing"

	"github.com/thiagokokada/wtdiff/internal/git"
)

func TestParsePorcelain_DetachedLabel(t *testing.T) {
	t.Parallel()

	out := "worktree /repo\nHEAD 1111111111111111111111111111111111111111\nbranch refs/heads/main\n\n" +
		"worktree /repo-wt\nHEAD abcdef1234567890\ndetached\n\n"
	records, err := parsePorcelain(out)
	if err != nil {
		t.Fatalf("parsePorcelain() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records[0].label(); got != "main" {
		t.Fatalf("main label = %q", got)
	}
	wt := records[1]
	if !wt.detached || wt.label() != "detached@abcdef12" {
		t.Fatalf("detached record = %+v, label %q", wt, wt.label())
	}
}

func TestParsePorcelain_Attributes(t *testing.T) {
	t.Parallel()

	out := "worktree /srv/repo.git\nbare\n\n" +
		"worktree /wt/a\nHEAD 2222222222222222222222222222222222222222\nbranch refs/heads/feature/a\nlocked reason here\n\n" +
		"worktree /wt/gone\nHEAD 3333333333333333333333333333333333333333\nbranch refs/heads/gone\nprunable gitdir file points to non-existent location\n" +
		"worktree /wt/b\nHEAD 4444444444444444444444444444444444444444\nfuture-attribute x\n"

	records, err := parsePorcelain(out)
	if err != nil {
		t.Fatalf("parsePorcelain() error = %v", err)
	}
	want := []record{
		{path: "/srv/repo.git", bare: true},
		{path: "/wt/a", head: "2222222222222222222222222222222222222222", branch: "feature/a", locked: true},
		{path: "/wt/gone", head: "3333333333333333333333333333333333333333", branch: "gone", prunable: true},
		{path: "/wt/b", head: "4444444444444444444444444444444444444444"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(want), records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
	if got := records[3].label(); got != "44444444" {
		t.Fatalf("label without branch = %q, want short SHA", got)
	}
}

func TestParsePorcelain_AttributeBeforeWorktree(t *testing.T) {
	t.Parallel()

	_, err := parsePorcelain("HEAD abc\nworktree /repo\n")
	if !errors.Is(err, git.ErrParseFailed) {
		t.Fatalf("parsePorcelain() error = %v, want parse failed", err)
	}
}

func TestParsePorcelain_Empty(t *testing.T) {
	t.Parallel()

	records, err := parsePorcelain("\n\n")
	if err != nil || len(records) != 0 {
		t.Fatalf("parsePorcelain() = %+v, %v", records, err)
	}
}

func TestBranchName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"refs/heads/main":      "main",
		"refs/heads/feature/x": "feature/x",
		"main":                 "main",
		"refs/remotes/o/x":     "refs/remotes/o/x",
	}
	for in, want := range tests {
		if got := branchName(in); got != want {
			t.Errorf("branchName(%q) = %q, want %q", in, got, want)
		}
	}
}
