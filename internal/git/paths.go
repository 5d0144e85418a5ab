package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git/backend"
)

// Canonicalize returns the absolute, symlink-resolved, cleaned form of path.
// Worktree and workspace identity is string equality on this form.
func Canonicalize(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// CanonicalizeLenient is Canonicalize that falls back to the cleaned
// absolute path when the path cannot be resolved (for example, a worktree
// whose directory has been removed but not pruned).
func CanonicalizeLenient(path string) string {
	if c, err := Canonicalize(path); err == nil {
		return c
	}
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

// HasPathPrefix reports whether path equals prefix or lies beneath it.
// /repo-other does not match /repo.
func HasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)
	if path == prefix {
		return true
	}
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// IsWorkTree probes whether dir is inside a git working tree.
func IsWorkTree(ctx context.Context, r backend.Runner, dir string) (bool, error) {
	out, ok, err := Probe(ctx, r, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false, err
	}
	return ok && strings.TrimSpace(out) == "true", nil
}

// Toplevel resolves the canonical root of the worktree containing dir.
func Toplevel(ctx context.Context, r backend.Runner, dir string) (string, error) {
	out, ok, err := Probe(ctx, r, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(out)
	if !ok || root == "" {
		return "", NewError(KindNotARepository, "").WithPath(dir)
	}
	return CanonicalizeLenient(root), nil
}

// CommonDir resolves the canonical git directory shared by every worktree
// of the repository containing dir.
func CommonDir(ctx context.Context, r backend.Runner, dir string) (string, error) {
	out, ok, err := Probe(ctx, r, dir, "rev-parse", "--path-format=absolute", "--git-common-dir")
	if err != nil {
		return "", err
	}
	common := strings.TrimSpace(out)
	if !ok || common == "" {
		return "", NewError(KindNotARepository, "").WithPath(dir)
	}
	return CanonicalizeLenient(common), nil
}

// GitDir resolves the worktree-specific git directory for dir.
func GitDir(ctx context.Context, r backend.Runner, dir string) (string, error) {
	out, ok, err := Probe(ctx, r, dir, "rev-parse", "--path-format=absolute", "--git-dir")
	if err != nil {
		return "", err
	}
	gitDir := strings.TrimSpace(out)
	if !ok || gitDir == "" {
		return "", NewError(KindNotARepository, "").WithPath(dir)
	}
	return CanonicalizeLenient(gitDir), nil
}

// RevParse resolves rev to a full object name, reporting false when it does
// not exist.
func RevParse(ctx context.Context, r backend.Runner, dir, rev string) (string, bool, error) {
	out, ok, err := Probe(ctx, r, dir, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil || !ok {
		return "", false, err
	}
	hash := strings.TrimSpace(out)
	return hash, hash != "", nil
}

// CurrentBranch returns the short symbolic name of HEAD, or "HEAD" when
// detached.
func CurrentBranch(ctx context.Context, r backend.Runner, dir string) (string, error) {
	out, ok, err := Probe(ctx, r, dir, "symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(out)
	if !ok || name == "" {
		return "HEAD", nil
	}
	return name, nil
}
