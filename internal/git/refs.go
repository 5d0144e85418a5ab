package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git/backend"
)

// RefKind classifies a reference by namespace.
type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

// Ref is one entry of `git show-ref`, with its namespace prefix stripped.
type Ref struct {
	Hash string
	Kind RefKind
	Name string
}

// ListRefs runs `git show-ref` restricted by extra flags (for example
// "--heads"). No matching refs is not an error.
func ListRefs(ctx context.Context, r backend.Runner, dir string, flags ...string) ([]Ref, error) {
	args := append([]string{"show-ref", "--dereference"}, flags...)
	res, err := Exec(ctx, r, dir, args...)
	if err != nil {
		return nil, err
	}
	switch {
	case res.Success():
	case res.ExitCode == 1 && strings.TrimSpace(res.Stderr) == "":
		return nil, nil
	default:
		return nil, CommandFailed(dir, args, res)
	}
	refs, err := ParseShowRef(res.Stdout)
	if err != nil {
		return nil, NewError(KindParseFailed, err.Error()).WithPath(dir).WithArgs(args)
	}
	return refs, nil
}

// LocalBranchExists reports whether refs/heads/<branch> exists.
func LocalBranchExists(ctx context.Context, r backend.Runner, dir, branch string) (bool, error) {
	refs, err := ListRefs(ctx, r, dir, "--heads")
	if err != nil {
		return false, err
	}
	for _, ref := range refs {
		if ref.Kind == RefKindBranch && ref.Name == branch {
			return true, nil
		}
	}
	return false, nil
}

// ParseShowRef parses `git show-ref --dereference` output. Annotated tags
// take the hash of their peeled commit.
func ParseShowRef(out string) ([]Ref, error) {
	type refEntry struct {
		hash string
		ref  string
	}

	peeledByTagRef := map[string]string{}
	var entries []refEntry

	for _, rawLine := range strings.Split(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		hash, refName := parts[0], parts[1]
		if base, ok := strings.CutSuffix(refName, "^{}"); ok {
			if base != "" {
				peeledByTagRef[base] = hash
			}
			continue
		}
		entries = append(entries, refEntry{hash: hash, ref: refName})
	}

	var refs []Ref
	for _, entry := range entries {
		var (
			kind  RefKind
			short string
			ok    bool
		)
		if short, ok = strings.CutPrefix(entry.ref, "refs/heads/"); ok {
			kind = RefKindBranch
		} else if short, ok = strings.CutPrefix(entry.ref, "refs/remotes/"); ok {
			kind = RefKindRemoteBranch
		} else if short, ok = strings.CutPrefix(entry.ref, "refs/tags/"); ok {
			kind = RefKindTag
		}
		if !ok || short == "" {
			continue
		}
		hash := entry.hash
		if peeled := peeledByTagRef[entry.ref]; kind == RefKindTag && peeled != "" {
			hash = peeled
		}
		refs = append(refs, Ref{Hash: hash, Kind: kind, Name: short})
	}
	return refs, nil
}
