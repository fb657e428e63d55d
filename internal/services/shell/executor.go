package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// Executor runs one operator command and captures its output.
// A non-zero exit status is not an error; only failing to run the command is.
type Executor interface {
	Run(ctx context.Context, command string) (stdout, stderr string, err error)
}

// HostExecutor hands the command to the host's command interpreter
// (powershell on Windows, /bin/sh elsewhere) and waits for it to exit.
// There is no timeout and no filtering of what runs.
type HostExecutor struct{}

// Ensure HostExecutor implements Executor
var _ Executor = HostExecutor{}

// Run executes command and returns everything it wrote
func (HostExecutor) Run(ctx context.Context, command string) (string, string, error) {
	name, args := interpreter(command)
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", "", fmt.Errorf("%w: %w", ErrExecFailed, err)
	}
	return stdout.String(), stderr.String(), nil
}

func interpreter(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "powershell.exe", []string{"-NoProfile", "-Command", command}
	}
	return "/bin/sh", []string{"-c", command}
}

// DisabledExecutor refuses every command
type DisabledExecutor struct{}

// Ensure DisabledExecutor implements Executor
var _ Executor = DisabledExecutor{}

// Run always fails with ErrDisabled
func (DisabledExecutor) Run(context.Context, string) (string, string, error) {
	return "", "", ErrDisabled
}
