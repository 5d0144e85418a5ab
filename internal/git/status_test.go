package git

import (
	"slices"
	"strings"
	"testing"
)

func TestParseStatusPorcelainV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want PorcelainStatus
	}{
		{
			name: "clean",
			in:   "# branch.oid 0123456789abcdef\n# branch.head main\n",
			want: PorcelainStatus{Branch: BranchHeader{OID: "0123456789abcdef", Head: "main"}},
		},
		{
			name: "upstream_and_counts",
			in: strings.Join([]string{
				"# branch.oid abc",
				"# branch.head feature",
				"# branch.upstream origin/feature",
				"# branch.ab +2 -3",
				"1 .M N... 100644 100644 100644 aaa bbb file.go",
				"",
			}, "\n"),
			want: PorcelainStatus{
				Branch:  BranchHeader{OID: "abc", Head: "feature", Upstream: "origin/feature", HasUpstream: true, Ahead: 2, Behind: 3},
				Changes: LocalChanges{HasWorktree: true},
			},
		},
		{
			name: "detached_initial",
			in:   "# branch.oid (initial)\n# branch.head (detached)\n",
			want: PorcelainStatus{Branch: BranchHeader{Detached: true}},
		},
		{
			name: "staged_rename_untracked_conflict",
			in: strings.Join([]string{
				"2 R. N... 100644 100644 100644 aaa bbb R100 new.go\told.go",
				"? untracked.txt",
				"u UU N... 100644 100644 100644 100644 aaa bbb ccc both.go",
				"! ignored.log",
			}, "\n"),
			want: PorcelainStatus{Changes: LocalChanges{HasStaged: true, HasUntracked: true, HasConflicts: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusPorcelainV2(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("ParseStatusPorcelainV2() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocalChangesDirty(t *testing.T) {
	t.Parallel()

	if (LocalChanges{}).Dirty() {
		t.Fatal("empty changes should be clean")
	}
	if !(LocalChanges{HasUntracked: true}).Dirty() {
		t.Fatal("untracked files should make the tree dirty")
	}
}

func TestParseStatusPaths(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		" M README.md",
		"A  internal/git/pool.go",
		"R  old.go -> cmd/new.go",
		`?? "docs/with space.md"`,
		`R  "a b.txt" -> "c\td.txt"`,
		`?? "caf\303\251.txt"`,
		"",
	}, "\n")

	got := ParseStatusPaths(in)
	want := []string{
		"README.md",
		"internal/git/pool.go",
		"cmd/new.go",
		"docs/with space.md",
		"c\td.txt",
		"café.txt",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("ParseStatusPaths() = %q, want %q", got, want)
	}
}
