// Package git holds the pieces shared by the repository and worktree
// services: the error taxonomy, command helpers over [backend.Runner], path
// canonicalisation, base-reference resolution and the parsers for git's
// machine-readable output formats.
package git

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/thiagokokada/wtdiff/internal/git/backend"
)

// Output runs an informational or mutating command and returns its stdout.
// A non-zero exit is reported as KindCommandFailed carrying stderr.
func Output(ctx context.Context, r backend.Runner, dir string, args ...string) (string, error) {
	res, err := r.Run(ctx, dir, args...)
	if err != nil {
		return "", runError(dir, args, err)
	}
	if !res.Success() {
		return "", commandFailed(dir, args, res)
	}
	return res.Stdout, nil
}

// Probe runs a command whose exit status is the answer. ok is true on exit 0;
// only failures to run at all are returned as errors.
func Probe(ctx context.Context, r backend.Runner, dir string, args ...string) (stdout string, ok bool, err error) {
	res, err := r.Run(ctx, dir, args...)
	if err != nil {
		return "", false, runError(dir, args, err)
	}
	return res.Stdout, res.Success(), nil
}

// Exec runs a command and hands back the raw result for callers that
// interpret specific exit codes themselves.
func Exec(ctx context.Context, r backend.Runner, dir string, args ...string) (backend.Result, error) {
	res, err := r.Run(ctx, dir, args...)
	if err != nil {
		return res, runError(dir, args, err)
	}
	return res, nil
}

// CommandFailed builds the KindCommandFailed error for an unsuccessful
// result.
func CommandFailed(dir string, args []string, res backend.Result) error {
	return commandFailed(dir, args, res)
}

func commandFailed(dir string, args []string, res backend.Result) error {
	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	if detail == "" {
		detail = "exit status " + strconv.Itoa(res.ExitCode)
	}
	return NewError(KindCommandFailed, detail).WithPath(dir).WithArgs(args)
}

func runError(dir string, args []string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimedOut, "").WithPath(dir).WithArgs(args).WithCause(err)
	}
	return NewError(KindCommandFailed, "").WithPath(dir).WithArgs(args).WithCause(err)
}

// TrimmedLines splits command output into non-empty, right-trimmed lines.
func TrimmedLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
