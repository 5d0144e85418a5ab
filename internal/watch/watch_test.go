package watch

import (
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func TestShouldIgnore(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"/repo/.git/index.lock":    true,
		"/repo/.git/HEAD.LOCK":     true,
		"/repo/.git/fsmonitor.ipc": true,
		"/repo/.git/index":         false,
		"/repo/.git/refs/heads/x":  false,
	}
	for name, want := range tests {
		if got := shouldIgnore(name); got != want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()

	plain := t.TempDir()

	withDir := t.TempDir()
	for _, dir := range []string{".git/refs", "pkg/sub", "cmd"} {
		if err := os.MkdirAll(filepath.Join(withDir, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	linked := t.TempDir()
	if err := os.WriteFile(filepath.Join(linked, ".git"), []byte("gitdir: /srv/repo/.git/worktrees/linked\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	relative := t.TempDir()
	if err := os.WriteFile(filepath.Join(relative, ".git"), []byte("gitdir: ../main/.git/worktrees/rel\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		root string
		want []string
	}{
		{root: "", want: nil},
		{root: plain, want: []string{plain}},
		{root: withDir, want: []string{
			filepath.Join(withDir, ".git"),
			withDir,
			filepath.Join(withDir, "cmd"),
			filepath.Join(withDir, "pkg"),
			filepath.Join(withDir, "pkg", "sub"),
		}},
		{root: linked, want: []string{"/srv/repo/.git/worktrees/linked", linked}},
		{root: relative, want: []string{filepath.Join(filepath.Dir(relative), "main", ".git", "worktrees", "rel"), relative}},
	}
	for _, tt := range tests {
		if got := Paths(tt.root); !slices.Equal(got, tt.want) {
			t.Errorf("Paths(%q) = %v, want %v", tt.root, got, tt.want)
		}
	}
}

func TestWatcherCoalescesEvents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	if err := os.Mkdir(gitDir, 0o755); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	fired := make(chan struct{}, 1)
	w, err := New(root, 50*time.Millisecond, func() {
		calls.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	for i := range 5 {
		if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("callback ran %d times, want 1", got)
	}
}

func TestWatcherReportsWorkingTreeEdits(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	fired := make(chan struct{}, 1)
	w, err := New(root, 20*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	wait := func(what string) {
		t.Helper()
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatalf("watcher did not report %s", what)
		}
	}

	sub := filepath.Join(root, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	wait("a new directory")
	// Give the loop time to add the new directory before writing into it.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wait("a file in the new directory")
}

func TestWatcherIgnoresLockFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var calls atomic.Int32
	w, err := New(root, 20*time.Millisecond, func() { calls.Add(1) })
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if err := os.WriteFile(filepath.Join(root, "index.lock"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("callback ran %d times for a lock file", got)
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir(), 0, func() {})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
