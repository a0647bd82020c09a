// SPDX-License-Identifier: MIT

// Package procgroup runs helper processes in their own process group so a
// timeout can reap the whole tree.
package procgroup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultGrace is the time between SIGTERM and SIGKILL.
const DefaultGrace = 2 * time.Second

// Result is the outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Run starts name with args in a new process group and waits for it. A
// non-zero exit is reported through Result.ExitCode, not as an error. When
// ctx ends first the group is terminated and ctx.Err() is returned.
func Run(ctx context.Context, name string, args []string, grace time.Duration) (Result, error) {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}

	// #nosec G204 -- the helper binary and its arguments come from operator configuration
	cmd := exec.Command(name, args...)
	Set(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = grace

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("start %s: %w", name, err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case err := <-waitCh:
		res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			return res, nil
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		default:
			res.ExitCode = -1
			return res, fmt.Errorf("wait %s: %w", name, err)
		}
	case <-ctx.Done():
		_ = Terminate(cmd, waitCh, grace)
		return Result{ExitCode: -1, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, ctx.Err()
	}
}
