package builder

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result captures the outcome of one external command invocation.
type Result struct {
	ExitCode int
	Output   []byte
	Duration time.Duration
}

// Runner executes an external command with a working directory and returns
// its exit status and combined output. Tests substitute a fake implementation
// so no real toolchain is invoked.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	res := Result{Output: out, Duration: time.Since(start)}

	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	// Start failure (binary missing, context canceled before exec, ...).
	res.ExitCode = -1
	return res, err
}
