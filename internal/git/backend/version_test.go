package backend

import (
	"context"
	"strings"
	"testing"
)

func TestParseGitVersionOutput(t *testing.T) {
	t.Parallel()

	valid := map[string]Version{
		"git version 2.44.0\n":                 {Major: 2, Minor: 44},
		"git version 2.39.3 (Apple Git-146)\n": {Major: 2, Minor: 39, Patch: 3},
		"git version 2.39.3.windows.1\n":       {Major: 2, Minor: 39, Patch: 3},
		"2.42.1":                               {Major: 2, Minor: 42, Patch: 1},
		"git version 2.42\n":                   {Major: 2, Minor: 42},
	}
	for in, want := range valid {
		got, ok := parseGitVersionOutput(in)
		if !ok || got != want {
			t.Errorf("parseGitVersionOutput(%q) = %+v, %v; want %+v", in, got, ok, want)
		}
	}

	for _, in := range []string{"", "  \n", "git version not-a-version", "git version 2"} {
		if got, ok := parseGitVersionOutput(in); ok {
			t.Errorf("parseGitVersionOutput(%q) = %+v, want failure", in, got)
		}
	}
}

func TestValidateGitVersionOutput(t *testing.T) {
	t.Parallel()

	floor := MinGitVersion()
	if got, err := validateGitVersionOutput("git version " + floor.String()); err != nil || got != floor {
		t.Fatalf("minimum version rejected: %+v, %v", got, err)
	}

	old := Version{Major: floor.Major, Minor: floor.Minor - 1, Patch: 9}
	_, err := validateGitVersionOutput("git version " + old.String())
	if err == nil || !strings.Contains(err.Error(), "too old") {
		t.Fatalf("old git error = %v", err)
	}

	if _, err := validateGitVersionOutput("nonsense"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestVersionLess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b Version
		want bool
	}{
		{a: Version{2, 40, 1}, b: Version{2, 41, 0}, want: true},
		{a: Version{2, 41, 0}, b: Version{2, 40, 1}, want: false},
		{a: Version{1, 99, 99}, b: Version{2, 0, 0}, want: true},
		{a: Version{2, 40, 1}, b: Version{2, 40, 2}, want: true},
		{a: Version{2, 40, 1}, b: Version{2, 40, 1}, want: false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%s.Less(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCheckVersion(t *testing.T) {
	requireGit(t)
	t.Parallel()

	v, err := NewCLI("", 0).CheckVersion(context.Background())
	if err != nil {
		t.Fatalf("CheckVersion() error = %v", err)
	}
	if v.Less(MinGitVersion()) {
		t.Fatalf("CheckVersion() accepted %s", v)
	}
}

func TestCheckVersionMissingBinary(t *testing.T) {
	t.Parallel()

	if _, err := NewCLI("/nonexistent/git-binary", 0).CheckVersion(context.Background()); err == nil {
		t.Fatal("CheckVersion() with a missing binary should fail")
	}
}
