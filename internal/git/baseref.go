package git

import (
	"context"
	"log/slog"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git/backend"
)

// DefaultRemote is the remote consulted when none is configured.
const DefaultRemote = "origin"

// baseCandidates returns the static fallbacks tried after the upstream and
// the remote's default branch, in order.
func baseCandidates(remote string) []string {
	return []string{remote + "/main", "main", remote + "/master", "master"}
}

// ResolveBaseReference finds the reference a branch should be compared
// against. First success wins:
//
//  1. the configured upstream of the current branch, if it exists;
//  2. the remote's recorded default branch (refs/remotes/<remote>/HEAD);
//  3. <remote>/main, main, <remote>/master, master.
//
// It fails with KindMissingBaseBranch when nothing resolves.
func ResolveBaseReference(ctx context.Context, r backend.Runner, dir, remote string) (string, error) {
	if remote == "" {
		remote = DefaultRemote
	}

	out, ok, err := Probe(ctx, r, dir, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}")
	if err != nil {
		return "", err
	}
	if upstream := strings.TrimSpace(out); ok && upstream != "" {
		if _, exists, err := RevParse(ctx, r, dir, upstream); err != nil {
			return "", err
		} else if exists {
			return upstream, nil
		}
	}

	return ResolveDefaultReference(ctx, r, dir, remote)
}

// ResolveDefaultReference runs the chain of ResolveBaseReference without the
// upstream step: the remote's default branch, then the static candidates.
func ResolveDefaultReference(ctx context.Context, r backend.Runner, dir, remote string) (string, error) {
	if remote == "" {
		remote = DefaultRemote
	}

	out, ok, err := Probe(ctx, r, dir, "symbolic-ref", "-q", "--short", "refs/remotes/"+remote+"/HEAD")
	if err != nil {
		return "", err
	}
	if def := strings.TrimSpace(out); ok && def != "" {
		if _, exists, err := RevParse(ctx, r, dir, def); err != nil {
			return "", err
		} else if exists {
			return def, nil
		}
	}

	for _, candidate := range baseCandidates(remote) {
		_, exists, err := RevParse(ctx, r, dir, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}
	slog.Debug("no base reference", slog.String("dir", dir), slog.String("remote", remote))
	return "", NewError(KindMissingBaseBranch, "").WithPath(dir)
}

// BranchFromReference strips a leading "<remote>/" from ref.
func BranchFromReference(ref, remote string) string {
	if remote == "" {
		remote = DefaultRemote
	}
	return strings.TrimPrefix(ref, remote+"/")
}
