package worktree

import (
	"bufio"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/thiagokokada/wtdiff/internal/git"
)

const shortSHALen = 8

// record is one block of `git worktree list --porcelain`.
type record struct {
	path     string
	head     string
	branch   string
	detached bool
	bare     bool
	locked   bool
	prunable bool
}

// parsePorcelain splits the listing into records. A blank line ends a
// record; unknown attributes are ignored so newer git versions still parse.
func parsePorcelain(out string) ([]record, error) {
	var (
		records []record
		cur     *record
	)
	flush := func() {
		if cur != nil {
			records = append(records, *cur)
			cur = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		if key == "worktree" {
			flush()
			cur = &record{path: value}
			continue
		}
		if cur == nil {
			return nil, git.Errorf(git.KindParseFailed, "worktree list: %q before any worktree line", line)
		}
		switch key {
		case "HEAD":
			cur.head = strings.TrimSpace(value)
		case "branch":
			cur.branch = branchName(strings.TrimSpace(value))
		case "detached":
			cur.detached = true
		case "bare":
			cur.bare = true
		case "locked":
			cur.locked = true
		case "prunable":
			cur.prunable = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, git.NewError(git.KindParseFailed, "worktree list").WithCause(err)
	}
	flush()
	return records, nil
}

func branchName(ref string) string {
	name := plumbing.ReferenceName(ref)
	if name.IsBranch() {
		return name.Short()
	}
	return ref
}

func shortSHA(head string) string {
	if len(head) > shortSHALen {
		return head[:shortSHALen]
	}
	return head
}

// label is the branch name shown for a record: the branch itself, then
// detached@<short> for a detached HEAD, then the bare short SHA.
func (r record) label() string {
	switch {
	case r.branch != "":
		return r.branch
	case r.detached && r.head != "":
		return "detached@" + shortSHA(r.head)
	default:
		return shortSHA(r.head)
	}
}
