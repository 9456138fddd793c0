package adapter

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// DefaultTestTimeout bounds a single go test invocation.
const DefaultTestTimeout = 5 * time.Minute

// TestRunnerAdapter abstracts go test execution for verifying generated files.
type TestRunnerAdapter interface {
	// RunGoTest runs 'go test' for target inside workDir, restricted to tests
	// matching run when it is non-empty. It returns the combined output.
	RunGoTest(ctx context.Context, workDir, target, run string) (output string, err error)
}

// LocalTestRunnerAdapter provides a concrete implementation using os/exec.
type LocalTestRunnerAdapter struct {
	timeout time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter. A zero
// timeout selects DefaultTestTimeout.
func NewLocalTestRunnerAdapter(timeout time.Duration) *LocalTestRunnerAdapter {
	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}

	return &LocalTestRunnerAdapter{timeout: timeout}
}

// RunGoTest runs 'go test' in the given directory.
func (a *LocalTestRunnerAdapter) RunGoTest(ctx context.Context, workDir, target, run string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{"test", "-count=1"}
	if run != "" {
		args = append(args, "-run", run)
	}

	args = append(args, target)

	// #nosec G204 - arguments are built from generated test names, not user input
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.String() + stderr.String()

	return output, err
}
