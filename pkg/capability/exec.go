package capability

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ExecResult is the outcome of one command execution. A timeout or spawn
// failure is reported through Succeeded/TimedOut, never as a Go error, so a
// wedged command becomes a failed sub-check instead of aborting a probe.
type ExecResult struct {
	Stdout    string
	Stderr    string
	Succeeded bool
	TimedOut  bool
}

// Executor runs external commands with a bounded timeout.
type Executor interface {
	// Execute runs name with args in dir (empty dir means the current
	// directory), waiting at most timeout. It never returns an error.
	Execute(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) ExecResult
}

// NewExecutor returns the default Executor backed by os/exec.
func NewExecutor() Executor {
	return &systemExecutor{}
}

type systemExecutor struct{}

func (e *systemExecutor) Execute(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) ExecResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ExecResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Succeeded: err == nil,
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Succeeded = false
		result.TimedOut = true
	}

	return result
}
