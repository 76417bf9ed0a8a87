// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package azcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// TimeoutExitCode is the sentinel exit code recorded when an
// invocation is killed at its deadline. Real az exit codes are
// non-negative, so the sentinel cannot collide.
const TimeoutExitCode = -1

// DefaultTimeout bounds a single az invocation when the caller does
// not specify one. az calls that talk to Azure DevOps normally finish
// well inside this; anything slower is stuck.
const DefaultTimeout = 30 * time.Second

// Result captures one az invocation. A Result is produced exactly
// once per subprocess, never mutated afterwards, and owned by the
// call that produced it.
type Result struct {
	// Args is the argument vector the subprocess ran with (excluding
	// the binary path).
	Args []string

	// ExitCode is the subprocess exit status, or TimeoutExitCode when
	// TimedOut is set.
	ExitCode int

	// Stdout and Stderr are the captured output streams.
	Stdout string
	Stderr string

	// Parsed holds the JSON-decoded stdout when stdout was non-empty
	// and decoded cleanly; nil otherwise. A decode failure never fails
	// the invocation: the raw stdout stays available for diagnostics
	// and ParseErr records what went wrong.
	Parsed any

	// ParseErr is the JSON decode error for a non-empty stdout that
	// was not valid JSON. Nil when stdout was empty or decoded.
	ParseErr error

	// TimedOut is set when the subprocess was killed at its deadline.
	TimedOut bool
}

// CommandRunner executes az subcommands. The pipeline service depends
// on this interface so tests can substitute a fake that never spawns
// a subprocess.
type CommandRunner interface {
	// Run executes az with args, bounded by timeout (DefaultTimeout
	// when zero). A non-zero exit from az is a successful Run whose
	// Result carries the exit code; classification is the caller's
	// job. The error return is reserved for *NotFoundError (binary
	// unresolvable) and *LaunchError (binary found but unstartable).
	Run(ctx context.Context, args []string, timeout time.Duration) (*Result, error)
}

// Runner is the real CommandRunner backed by os/exec.
type Runner struct {
	locator *Locator
	logger  *slog.Logger
}

// NewRunner returns a Runner that resolves the az binary through
// locator on every call (a cheap cache read after the first success).
func NewRunner(locator *Locator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{locator: locator, logger: logger}
}

// Run implements CommandRunner. Arguments are passed as a vector to
// the subprocess; nothing is ever interpolated through a shell, so
// pipeline names and branch strings cannot inject commands.
func (r *Runner) Run(ctx context.Context, args []string, timeout time.Duration) (*Result, error) {
	path, err := r.locator.Locate()
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	// Without WaitDelay, Wait blocks past the deadline on output pipes
	// held open by orphaned grandchildren of the killed subprocess.
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(started)

	result := &Result{
		Args:   args,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case runErr != nil && ctx.Err() != nil:
		// Killed at the deadline (or the caller's context ended).
		// Reported as a result with a sentinel exit code rather than
		// an error so bulk operations can record it per-outcome.
		result.ExitCode = TimeoutExitCode
		result.TimedOut = true
	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The process never started: binary removed between
			// locate and exec, permission denied, resource limits.
			return nil, &LaunchError{Path: path, Err: runErr}
		}
	}

	if trimmed := strings.TrimSpace(result.Stdout); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &result.Parsed); err != nil {
			result.Parsed = nil
			result.ParseErr = err
		}
	}

	r.logger.Debug("az invocation",
		"args", args,
		"exit_code", result.ExitCode,
		"timed_out", result.TimedOut,
		"duration", elapsed)

	return result, nil
}
