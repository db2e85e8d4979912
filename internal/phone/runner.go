package phone

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// RunResult captures one subprocess invocation.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an external command with a deadline. Tests substitute a
// fake; production code uses ExecRunner.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands through os/exec. A non-zero exit is not an error
// here: the adb tool encodes most failures in its output text, so callers
// inspect the result instead.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := RunResult{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return res, context.DeadlineExceeded
		}
		// Binary missing, not executable, etc.
		return res, err
	}

	return res, nil
}
