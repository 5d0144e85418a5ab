package worktree

import "github.com/thiagokokada/wtdiff/internal/git"

// Workspace is a caller-owned entry tracking a worktree by path.
type Workspace struct {
	ID   string `json:"id" yaml:"id"`
	Path string `json:"path" yaml:"path"`
}

// SyncUpdate pairs an existing workspace with the descriptor that matches it.
type SyncUpdate struct {
	WorkspaceID string     `json:"workspaceID"`
	Descriptor  Descriptor `json:"descriptor"`
}

// SyncPlan is what a caller must do to bring its workspaces in line with a
// catalog. It never contains removals.
type SyncPlan struct {
	Additions []Descriptor `json:"additions"`
	Updates   []SyncUpdate `json:"updates"`
}

// WorkspaceSyncPlan partitions the catalog into descriptors no workspace
// tracks yet and descriptors with a workspace at the same path. Paths are
// compared in canonical form, so relative and symlinked workspace paths match. When several
// workspaces share a path the first one wins. Workspaces absent from the
// catalog are left alone; see StaleWorkspaces.
func WorkspaceSyncPlan(cat Catalog, workspaces []Workspace) SyncPlan {
	byPath := make(map[string]string, len(workspaces))
	for _, ws := range workspaces {
		key := git.CanonicalizeLenient(ws.Path)
		if _, dup := byPath[key]; !dup {
			byPath[key] = ws.ID
		}
	}

	plan := SyncPlan{Additions: []Descriptor{}, Updates: []SyncUpdate{}}
	for _, d := range cat.Descriptors {
		if id, ok := byPath[git.CanonicalizeLenient(d.WorktreePath)]; ok {
			plan.Updates = append(plan.Updates, SyncUpdate{WorkspaceID: id, Descriptor: d})
		} else {
			plan.Additions = append(plan.Additions, d)
		}
	}
	return plan
}

// StaleWorkspaces returns, in input order, the IDs of workspaces whose path
// is not in the catalog. Nothing is removed.
func StaleWorkspaces(cat Catalog, workspaces []Workspace) []string {
	present := make(map[string]bool, len(cat.Descriptors))
	for _, d := range cat.Descriptors {
		present[git.CanonicalizeLenient(d.WorktreePath)] = true
	}
	var stale []string
	for _, ws := range workspaces {
		if !present[git.CanonicalizeLenient(ws.Path)] {
			stale = append(stale, ws.ID)
		}
	}
	return stale
}
