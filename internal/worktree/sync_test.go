package worktree

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/thiagokokada/wtdiff/internal/git"
)

func syncCatalog() Catalog {
	return Catalog{
		RepositoryRootPath:  "/repo",
		CurrentWorktreePath: "/repo",
		Descriptors: []Descriptor{
			{WorktreePath: "/repo", BranchName: "main", IsCurrent: true},
			{WorktreePath: "/wt/a", BranchName: "a"},
			{WorktreePath: "/wt/b", BranchName: "b"},
		},
	}
}

func TestWorkspaceSyncPlan(t *testing.T) {
	t.Parallel()

	cat := syncCatalog()
	workspaces := []Workspace{
		{ID: "ws-main", Path: "/repo/"},
		{ID: "ws-gone", Path: "/wt/removed"},
		{ID: "ws-b", Path: "/wt/./b"},
		{ID: "ws-b-dup", Path: "/wt/b"},
	}

	plan := WorkspaceSyncPlan(cat, workspaces)
	if len(plan.Additions) != 1 || plan.Additions[0].WorktreePath != "/wt/a" {
		t.Fatalf("Additions = %+v", plan.Additions)
	}
	var ids []string
	for _, u := range plan.Updates {
		ids = append(ids, u.WorkspaceID)
	}
	if want := []string{"ws-main", "ws-b"}; !slices.Equal(ids, want) {
		t.Fatalf("update IDs = %v, want %v", ids, want)
	}
}

func TestWorkspaceSyncPlan_Properties(t *testing.T) {
	t.Parallel()

	cat := syncCatalog()
	inputs := [][]Workspace{
		nil,
		{{ID: "x", Path: "/elsewhere"}},
		{{ID: "1", Path: "/repo"}, {ID: "2", Path: "/wt/a"}, {ID: "3", Path: "/wt/b"}},
		{{ID: "1", Path: "/wt/a"}, {ID: "2", Path: "/nowhere"}},
	}

	for _, workspaces := range inputs {
		catBefore := syncCatalog()
		wsBefore := slices.Clone(workspaces)

		first := WorkspaceSyncPlan(cat, workspaces)
		second := WorkspaceSyncPlan(cat, workspaces)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("plan is not deterministic: %+v vs %+v", first, second)
		}
		if !reflect.DeepEqual(cat, catBefore) || !slices.Equal(workspaces, wsBefore) {
			t.Fatal("inputs were modified")
		}
		// Every descriptor lands in exactly one partition and nothing is
		// removed.
		if got := len(first.Additions) + len(first.Updates); got != len(cat.Descriptors) {
			t.Fatalf("partitions cover %d descriptors, want %d", got, len(cat.Descriptors))
		}
	}
}

func TestStaleWorkspaces(t *testing.T) {
	t.Parallel()

	workspaces := []Workspace{
		{ID: "keep", Path: "/wt/a/"},
		{ID: "stale-1", Path: "/wt/removed"},
		{ID: "stale-2", Path: "/repo-old"},
	}
	got := StaleWorkspaces(syncCatalog(), workspaces)
	if want := []string{"stale-1", "stale-2"}; !slices.Equal(got, want) {
		t.Fatalf("StaleWorkspaces() = %v, want %v", got, want)
	}
	if got := StaleWorkspaces(syncCatalog(), nil); len(got) != 0 {
		t.Fatalf("StaleWorkspaces(nil) = %v", got)
	}
}

func TestWorkspaceSyncPlan_CanonicalPaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "001")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	rel, err := filepath.Rel(cwd, target)
	if err != nil {
		t.Skipf("no relative path to %s: %v", target, err)
	}

	cat := Catalog{Descriptors: []Descriptor{{WorktreePath: git.CanonicalizeLenient(target), BranchName: "feature"}}}
	for name, path := range map[string]string{"symlinked": link, "relative": rel} {
		workspaces := []Workspace{{ID: "ws", Path: path}}
		plan := WorkspaceSyncPlan(cat, workspaces)
		if len(plan.Additions) != 0 || len(plan.Updates) != 1 || plan.Updates[0].WorkspaceID != "ws" {
			t.Errorf("%s: plan = %+v", name, plan)
		}
		if stale := StaleWorkspaces(cat, workspaces); len(stale) != 0 {
			t.Errorf("%s: stale = %v", name, stale)
		}
	}
}
