// Package gittest provides test doubles and fixtures for code built on
// backend.Runner.
package gittest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/wtdiff/internal/git/backend"
)

// Call records one invocation seen by FakeRunner.
type Call struct {
	Dir  string
	Args []string
}

// Key is the argument vector joined by spaces.
func (c Call) Key() string {
	return strings.Join(c.Args, " ")
}

// FakeRunner answers git invocations from canned results. Lookups try the
// (dir, args) pair first, then args alone. Unknown commands exit 128.
type FakeRunner struct {
	// RunFunc, when set, takes precedence over the canned results.
	RunFunc func(ctx context.Context, dir string, args ...string) (backend.Result, error)

	mu     sync.Mutex
	byArgs map[string]backend.Result
	byDir  map[string]backend.Result
	errs   map[string]error
	calls  []Call
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		byArgs: map[string]backend.Result{},
		byDir:  map[string]backend.Result{},
		errs:   map[string]error{},
	}
}

// On registers stdout for a successful command in any directory.
func (f *FakeRunner) On(args string, stdout string) *FakeRunner {
	return f.OnResult(args, backend.Result{Stdout: stdout})
}

// OnExit registers a failing command in any directory.
func (f *FakeRunner) OnExit(args string, code int, stderr string) *FakeRunner {
	return f.OnResult(args, backend.Result{ExitCode: code, Stderr: stderr})
}

// OnResult registers a full result for a command in any directory.
func (f *FakeRunner) OnResult(args string, res backend.Result) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byArgs[args] = res
	return f
}

// OnDir registers a result for a command run in dir only.
func (f *FakeRunner) OnDir(dir, args string, res backend.Result) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDir[dir+"\x00"+args] = res
	return f
}

// OnError makes a command fail to run at all.
func (f *FakeRunner) OnError(args string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[args] = err
	return f
}

// Run implements backend.Runner.
func (f *FakeRunner) Run(ctx context.Context, dir string, args ...string) (backend.Result, error) {
	call := Call{Dir: dir, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	runFunc := f.RunFunc
	key := call.Key()
	res, dirOK := f.byDir[dir+"\x00"+key]
	if !dirOK {
		res, dirOK = f.byArgs[key]
	}
	err, errOK := f.errs[key]
	f.mu.Unlock()

	if runFunc != nil {
		return runFunc(ctx, dir, args...)
	}
	if errOK {
		return backend.Result{ExitCode: -1}, err
	}
	if !dirOK {
		return backend.Result{ExitCode: 128, Stderr: "fatal: unexpected command: git " + key}, nil
	}
	return res, nil
}

// Calls returns a copy of the invocations seen so far.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Called reports whether args was invoked in any directory.
func (f *FakeRunner) Called(args string) bool {
	for _, c := range f.Calls() {
		if c.Key() == args {
			return true
		}
	}
	return false
}

// RequireGit skips the test when no git executable is on PATH.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath(backend.DefaultBinary); err != nil {
		t.Skip("git executable not available")
	}
}

// NewRepo creates a repository in a temporary directory with one commit on
// branch main containing files. It returns the symlink-resolved root.
func NewRepo(t testing.TB, files map[string]string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: "refs/heads/main"},
	})
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	cfg.User.Name = "Test"
	cfg.User.Email = "test@example.com"
	cfg.Raw.Section("commit").SetOption("gpgsign", "false")
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	Commit(t, repo, dir, files, "initial commit")
	return dir
}

// Commit writes files into the worktree at dir, stages them and commits.
func Commit(t testing.TB, repo *gogit.Repository, dir string, files map[string]string, msg string) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	for name, content := range files {
		WriteFile(t, dir, name, content)
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t testing.TB, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// Git runs the real git binary in dir and returns trimmed stdout.
func Git(t testing.TB, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command(backend.DefaultBinary, append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v: %s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}
