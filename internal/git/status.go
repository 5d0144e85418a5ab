package git

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// LocalChanges summarises the entries of `git status --porcelain=v2`.
type LocalChanges struct {
	HasStaged    bool
	HasWorktree  bool
	HasUntracked bool
	HasConflicts bool
}

// Dirty reports whether anything at all differs from HEAD.
func (c LocalChanges) Dirty() bool {
	return c.HasStaged || c.HasWorktree || c.HasUntracked || c.HasConflicts
}

// BranchHeader holds the "# branch.*" headers of
// `git status --porcelain=v2 --branch`.
type BranchHeader struct {
	OID         string
	Head        string
	Detached    bool
	Upstream    string
	HasUpstream bool
	Ahead       int
	Behind      int
}

// PorcelainStatus is the parsed form of `git status --porcelain=v2 --branch`.
type PorcelainStatus struct {
	Branch  BranchHeader
	Changes LocalChanges
}

// ParseStatusPorcelainV2 parses porcelain v2 output, with or without branch
// headers.
func ParseStatusPorcelainV2(r io.Reader) (PorcelainStatus, error) {
	var res PorcelainStatus
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case '#':
			parseBranchHeader(&res.Branch, line)
		case '1', '2':
			if len(line) < 4 {
				continue
			}
			stagedState := line[2]
			worktreeState := line[3]
			if stagedState != '.' {
				res.Changes.HasStaged = true
			}
			if worktreeState != '.' && worktreeState != '?' {
				res.Changes.HasWorktree = true
			}
		case 'u':
			res.Changes.HasConflicts = true
		case '?':
			res.Changes.HasUntracked = true
		default:
			// '!' ignored
		}
	}
	return res, scanner.Err()
}

func parseBranchHeader(h *BranchHeader, line string) {
	key, value, ok := strings.Cut(strings.TrimPrefix(line, "# "), " ")
	if !ok {
		return
	}
	switch key {
	case "branch.oid":
		if value != "(initial)" {
			h.OID = value
		}
	case "branch.head":
		if value == "(detached)" {
			h.Detached = true
			return
		}
		h.Head = value
	case "branch.upstream":
		h.Upstream = value
		h.HasUpstream = true
	case "branch.ab":
		for _, field := range strings.Fields(value) {
			n, err := strconv.Atoi(field[1:])
			if err != nil || n < 0 {
				continue
			}
			switch field[0] {
			case '+':
				h.Ahead = n
			case '-':
				h.Behind = n
			}
		}
	}
}

// ParseStatusPaths extracts the changed paths from `git status --porcelain`
// (v1) output in listing order. Renames and copies yield the new path.
// C-quoted paths are unquoted.
func ParseStatusPaths(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 || line[2] != ' ' {
			continue
		}
		if p := statusEntryPath(line[3:]); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func statusEntryPath(rest string) string {
	if strings.HasPrefix(rest, `"`) {
		first, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return rest
		}
		if target, ok := strings.CutPrefix(rest[len(first):], " -> "); ok {
			return unquotePath(target)
		}
		return unquotePath(first)
	}
	if _, target, ok := strings.Cut(rest, " -> "); ok {
		return unquotePath(target)
	}
	return rest
}

func unquotePath(s string) string {
	if !strings.HasPrefix(s, `"`) {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}
