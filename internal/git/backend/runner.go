// Package backend runs the git executable.
//
// Every caller in the module goes through [Runner]; all output capture and
// process cleanup lives here so services only see a [Result].
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// DefaultBinary is the executable looked up on PATH when none is configured.
const DefaultBinary = "git"

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed by its context.
const waitDelay = time.Second

// Result holds what a single git invocation produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether git exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes git subcommands against a working directory.
//
// A non-zero exit status is reported through Result.ExitCode, not as an
// error. The error return is reserved for invocations that could not run to
// completion: missing executable, empty directory, or a context that expired.
// Implementations hold no per-call state, so independent calls may run
// concurrently.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// CLI is the Runner backed by os/exec.
type CLI struct {
	binary  string
	timeout time.Duration
}

// NewCLI returns a Runner invoking binary. A positive timeout is applied to
// every call whose context carries no deadline of its own.
func NewCLI(binary string, timeout time.Duration) *CLI {
	if binary == "" {
		binary = DefaultBinary
	}
	return &CLI{binary: binary, timeout: timeout}
}

// Binary returns the configured executable.
func (c *CLI) Binary() string {
	return c.binary
}

// Run executes `<binary> -C <dir> args...`.
func (c *CLI) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	if dir == "" {
		return Result{}, fmt.Errorf("working directory not set")
	}
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	cmdArgs := append([]string{"-C", dir}, args...)
	cmd := exec.CommandContext(ctx, c.binary, cmdArgs...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_OPTIONAL_LOCKS=0")
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.ExitCode = -1
			slog.Debug("git interrupted",
				slog.String("dir", dir),
				slog.Any("args", args),
				slog.Duration("elapsed", time.Since(start)),
				slog.Any("error", ctxErr),
			)
			return res, fmt.Errorf("git %s: %w", subcommand(args), ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("git %s: %w", subcommand(args), err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	slog.Debug("git",
		slog.String("dir", dir),
		slog.Any("args", args),
		slog.Int("exit", res.ExitCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return "(none)"
	}
	return args[0]
}
