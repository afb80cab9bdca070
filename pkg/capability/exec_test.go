package capability

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecuteCapturesOutput(t *testing.T) {
	exec := NewExecutor()

	result := exec.Execute(context.Background(), "", 5*time.Second, "echo", "hello")
	if !result.Succeeded {
		t.Fatalf("echo failed: stderr=%q", result.Stderr)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("stdout = %q, want hello", result.Stdout)
	}
	if result.TimedOut {
		t.Error("echo must not time out")
	}
}

func TestExecuteReportsFailureWithoutError(t *testing.T) {
	exec := NewExecutor()

	result := exec.Execute(context.Background(), "", 5*time.Second, "false")
	if result.Succeeded {
		t.Error("false must report failure")
	}
	if result.TimedOut {
		t.Error("false must not report a timeout")
	}
}

func TestExecuteTimesOutWithinBound(t *testing.T) {
	exec := NewExecutor()
	timeout := 200 * time.Millisecond

	start := time.Now()
	result := exec.Execute(context.Background(), "", timeout, "sleep", "10")
	elapsed := time.Since(start)

	if result.Succeeded {
		t.Error("a command outliving its timeout must not succeed")
	}
	if !result.TimedOut {
		t.Error("TimedOut must be set")
	}
	// The executor must return close to the timeout, not wait for the command.
	if elapsed > timeout+2*time.Second {
		t.Errorf("Execute returned after %v, want roughly %v", elapsed, timeout)
	}
}

func TestExecuteMissingBinary(t *testing.T) {
	exec := NewExecutor()

	result := exec.Execute(context.Background(), "", time.Second, "definitely-not-a-real-binary")
	if result.Succeeded {
		t.Error("a missing binary must report failure")
	}
	if result.TimedOut {
		t.Error("a missing binary is not a timeout")
	}
}
