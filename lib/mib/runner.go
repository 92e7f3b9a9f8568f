// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// outputWaitDelay bounds how long Run keeps reading stdout after the
// command exits or its context ends. A background child that inherits
// stdout would otherwise hold Run open until that child exits.
const outputWaitDelay = time.Second

// Runner executes a metric group's command and returns its stdout.
// Tests substitute a fake; production uses [ExecRunner].
type Runner interface {
	Run(ctx context.Context, commandLine string) ([]byte, error)
}

// ExecRunner runs commands as child processes. The command line is
// split on whitespace with no shell interpretation and no quoting, so
// an argument cannot contain a space.
//
// A non-zero exit status is not an error: the captured output and
// status are logged at Warn level and the stdout captured so far is
// returned. Tools like rocm-smi exit non-zero when one sensor is
// unreadable but still print the rest.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates an ExecRunner that reports non-zero exits to
// logger.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes commandLine and returns its stdout.
func (r *ExecRunner) Run(ctx context.Context, commandLine string) ([]byte, error) {
	argv := splitCommand(commandLine)
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: command is empty", ErrConfiguration)
	}

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	command.WaitDelay = outputWaitDelay

	r.logger.Debug("running metric command", "command", commandLine)
	err := command.Run()

	var exitError *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrWaitDelay):
		// The command itself exited 0; only a descendant kept the pipe open.
		r.logger.Warn("metric command left its output open after exiting",
			"command", commandLine,
			"wait_delay", outputWaitDelay,
		)
	case err != nil && ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, argv[0], ctx.Err())
	case errors.As(err, &exitError):
		r.logger.Warn("metric command exited with non-zero status",
			"command", commandLine,
			"status", exitError.ExitCode(),
			"stdout", stdout.String(),
			"stderr", stderr.String(),
		)
	case err != nil:
		return nil, fmt.Errorf("%w: starting %s: %w", ErrSource, argv[0], err)
	}

	if !utf8.Valid(stdout.Bytes()) {
		return nil, fmt.Errorf("%w: output of %s is not valid UTF-8", ErrSource, argv[0])
	}
	return stdout.Bytes(), nil
}

func splitCommand(commandLine string) []string {
	return strings.Fields(commandLine)
}
