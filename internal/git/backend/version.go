package backend

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Minimum supported git version. Keep this aligned with the flags used across
// the module (e.g. "status --porcelain=v2 --branch" and "worktree list
// --porcelain" with prunable annotations).
var minGitVersion = Version{Major: 2, Minor: 31, Patch: 0}

// Version is a parsed `git --version` triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// MinGitVersion returns the oldest git release known to work.
func MinGitVersion() Version {
	return minGitVersion
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

func parseGitVersionOutput(out string) (Version, bool) {
	s := strings.TrimSpace(out)
	if s == "" {
		return Version{}, false
	}
	// Common formats:
	// - "git version 2.44.0"
	// - "git version 2.39.3 (Apple Git-146)"
	// - "git version 2.39.3.windows.1"
	if idx := strings.Index(s, "git version"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("git version"):])
	}
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return Version{}, false
	}
	s = s[start:]
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	parts := strings.Split(strings.Trim(s[:end], "."), ".")
	if len(parts) < 2 {
		return Version{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, false
	}
	patch := 0
	if len(parts) >= 3 {
		if p, err := strconv.Atoi(parts[2]); err == nil {
			patch = p
		}
	}
	return Version{Major: major, Minor: minor, Patch: patch}, true
}

func validateGitVersionOutput(out string) (Version, error) {
	got, ok := parseGitVersionOutput(out)
	if !ok {
		return Version{}, fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if got.Less(minGitVersion) {
		return got, fmt.Errorf("git %s is too old; wtdiff requires git >= %s", got, minGitVersion)
	}
	return got, nil
}

// CheckVersion runs `git --version` and rejects releases older than
// MinGitVersion. It does not need a working directory, so it bypasses Run.
func (c *CLI) CheckVersion(ctx context.Context) (Version, error) {
	outBytes, err := exec.CommandContext(ctx, c.binary, "--version").CombinedOutput()
	out := strings.TrimSpace(string(outBytes))
	if err != nil {
		if out != "" {
			return Version{}, fmt.Errorf("git --version: %v: %s", err, out)
		}
		return Version{}, fmt.Errorf("git --version: %w", err)
	}
	return validateGitVersionOutput(out)
}
