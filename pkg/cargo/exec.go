// Package cargo wraps the Rust toolchain subprocesses allowfix depends on:
// cargo clippy for the diagnostic stream, rustc for AST dumps, and
// cargo check/doc for the target checker.
package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrSubprocess marks any failure to start a tool or a non-zero exit from it.
var ErrSubprocess = errors.New("subprocess failed")

// stderrTail bounds how much of a failing tool's stderr is kept in the error.
const stderrTail = 2048

// Command describes one subprocess invocation.
type Command struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Name is the executable.
	Name string

	// Args are the arguments after Name.
	Args []string

	// Env holds extra KEY=VALUE pairs appended to the current environment.
	Env []string
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Executor runs a command and returns its standard output.
type Executor interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecExecutor runs commands with os/exec. It blocks until the command exits.
type ExecExecutor struct{}

// Run implements Executor.
func (ExecExecutor) Run(ctx context.Context, cmd Command) ([]byte, error) {
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	if err := proc.Run(); err != nil {
		return stdout.Bytes(), &SubprocessError{
			Command: cmd.String(),
			Stderr:  tail(stderr.String(), stderrTail),
			Err:     err,
		}
	}

	return stdout.Bytes(), nil
}

// SubprocessError describes a failed tool invocation.
type SubprocessError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

// Unwrap lets errors.Is match both ErrSubprocess and the underlying exec error.
func (e *SubprocessError) Unwrap() []error {
	return []error{ErrSubprocess, e.Err}
}

// ExitCode returns the tool's exit status, or -1 when it never ran.
func (e *SubprocessError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
