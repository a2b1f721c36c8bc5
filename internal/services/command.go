package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// CommandResult captures one external command invocation.
type CommandResult struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// CommandRunner abstracts process execution so ffmpeg callers can be tested
// without the binary installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

// Run executes one command and captures stdout/stderr and exit code. The
// returned error is a *CommandError whenever the process could not be started
// or exited non-zero.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Command: name,
		Args:    append([]string(nil), args...),
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, &CommandError{Result: result, Err: err}
	}
	return result, nil
}

// CommandError reports a failed external command along with its captured output.
type CommandError struct {
	Result CommandResult
	Err    error
}

// Error formats the command failure with the trimmed stderr tail.
func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	detail := strings.TrimSpace(e.Result.Stderr)
	if len(detail) > 512 {
		detail = "..." + detail[len(detail)-512:]
	}
	if detail == "" {
		return fmt.Sprintf("%s exited %d: %v", e.Result.Command, e.Result.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s exited %d: %s", e.Result.Command, e.Result.ExitCode, detail)
}

// Unwrap exposes the underlying process error for errors.Is / errors.As.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsBinaryMissing reports whether err stems from an executable that could not
// be located, either on PATH or at a configured absolute path.
func IsBinaryMissing(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
