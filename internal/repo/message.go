package repo

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git"
)

const maxMessageScopes = 2

var docExtensions = map[string]bool{".md": true, ".rst": true, ".txt": true, ".adoc": true}

// AutoCommitMessage derives "<kind>: update <N> files in <scopes>" from the
// working tree status. Kind is docs or test when every path qualifies,
// chore otherwise; scopes are the first path segments in listing order.
func (s *Service) AutoCommitMessage(ctx context.Context, dir string) (string, error) {
	out, err := git.Output(ctx, s.runner, dir, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	msg, ok := commitMessageFor(git.ParseStatusPaths(out))
	if !ok {
		return "", git.NewError(git.KindNoChangesToCommit, "").WithPath(dir)
	}
	return msg, nil
}

// stagedCommitMessage is AutoCommitMessage over the index, which is what a
// commit records.
func (s *Service) stagedCommitMessage(ctx context.Context, dir string) (string, error) {
	out, err := git.Output(ctx, s.runner, dir, "diff", "--cached", "--name-only", "-z")
	if err != nil {
		return "", err
	}
	msg, ok := commitMessageFor(strings.Split(out, "\x00"))
	if !ok {
		return "", git.NewError(git.KindNoChangesToCommit, "").WithPath(dir)
	}
	return msg, nil
}

func commitMessageFor(paths []string) (string, bool) {
	seen := map[string]bool{}
	var unique []string
	for _, p := range paths {
		p = strings.TrimPrefix(path.Clean(p), "./")
		if p == "" || p == "." || seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}
	if len(unique) == 0 {
		return "", false
	}

	var scopes []string
	seenScope := map[string]bool{}
	allDocs, allTests := true, true
	for _, p := range unique {
		scope, _, _ := strings.Cut(p, "/")
		if !seenScope[scope] {
			seenScope[scope] = true
			scopes = append(scopes, scope)
		}
		allDocs = allDocs && isDocPath(p)
		allTests = allTests && isTestPath(p)
	}

	kind := "chore"
	switch {
	case allDocs:
		kind = "docs"
	case allTests:
		kind = "test"
	}
	noun := "files"
	if len(unique) == 1 {
		noun = "file"
	}
	if len(scopes) > maxMessageScopes {
		scopes = scopes[:maxMessageScopes]
	}
	return fmt.Sprintf("%s: update %d %s in %s", kind, len(unique), noun, strings.Join(scopes, ", ")), true
}

func isDocPath(p string) bool {
	lower := strings.ToLower(p)
	return docExtensions[path.Ext(lower)] || strings.HasPrefix(lower, "docs/") || strings.Contains(lower, "/docs/")
}

func isTestPath(p string) bool {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return true
	case strings.Contains(base, ".test."), strings.Contains(base, ".spec."):
		return true
	}
	for _, dir := range []string{"test/", "tests/"} {
		if strings.HasPrefix(lower, dir) || strings.Contains(lower, "/"+dir) {
			return true
		}
	}
	return false
}
