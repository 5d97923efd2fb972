/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package toolchain

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/demokit/crmstack/pkg/errors"
)

// Result contains the outcome of a single subprocess invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Ok reports whether the command ran and exited zero.
func (r *Result) Ok() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Error converts a failed result into a structured error, including an
// excerpt of stderr for diagnosis. Returns nil for successful results.
func (r *Result) Error(tool string) error {
	if r.Ok() {
		return nil
	}
	return apperrors.WrapWithContext(
		apperrors.ErrCodeExternalCommand,
		tool+" exited non-zero",
		r.Err,
		map[string]any{
			"exitCode": r.ExitCode,
			"stderr":   excerpt(r.Stderr, 512),
		},
	)
}

// Runner executes external commands. The interface exists so pipelines can
// be tested against a scripted fake without spawning processes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) *Result
}

// ExecRunner runs commands via os/exec, honoring context cancellation.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and captures its output. A non-zero exit is
// reported through ExitCode, not Err; Err is reserved for failures to run
// the command at all (not found, context canceled).
func (e *ExecRunner) Run(ctx context.Context, name string, args ...string) *Result {
	start := time.Now()
	result := &Result{}

	slog.Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Err = err
		}
	}

	return result
}

func asExitError(err error, target **exec.ExitError) bool {
	e, ok := err.(*exec.ExitError)
	if ok {
		*target = e
	}
	return ok
}

func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
