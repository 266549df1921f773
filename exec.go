package svcinstall

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CommandResult holds the captured output of a host command
type CommandResult struct {
	// Stdout is the captured standard output
	Stdout string
	// Stderr is the captured standard error
	Stderr string
}

// Combined returns stdout and stderr joined for diagnostics
func (r CommandResult) Combined() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner executes host commands on behalf of a backend
type Runner interface {
	// Run executes path with args. A non-zero exit yields a *CommandError;
	// the captured output is returned in both cases.
	Run(ctx context.Context, path string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec, optionally through sudo
type ExecRunner struct {
	// UseSudo indicates whether to prefix commands with SudoCommand
	UseSudo bool

	// SudoCommand is the sudo command to use (default: "sudo")
	SudoCommand string

	// Timeout bounds each command; zero means no extra bound
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner that uses sudo when not running as root
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		UseSudo:     os.Geteuid() > 0,
		SudoCommand: DefaultSudoCommand,
		Timeout:     DefaultCommandTimeout,
	}
}

// WithSudo configures sudo usage
func (r *ExecRunner) WithSudo(use bool, command string) *ExecRunner {
	r.UseSudo = use
	if command != "" {
		r.SudoCommand = command
	}
	return r
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, path string, args ...string) (CommandResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if r.UseSudo {
		sudoArgs := append([]string{path}, args...)
		cmd = exec.CommandContext(ctx, r.SudoCommand, sudoArgs...)
	} else {
		cmd = exec.CommandContext(ctx, path, args...)
	}

	// a killed manager may leave children holding the output pipes
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{
		Stdout: decodeOutput(stdout.Bytes()),
		Stderr: decodeOutput(stderr.Bytes()),
	}
	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, &CommandError{Path: path, Args: args, ExitCode: -1, Output: res.Combined(), Err: kindError(ErrTimeout, ctx.Err())}
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return res, &CommandError{Path: path, Args: args, ExitCode: exitCode, Output: res.Combined(), Err: err}
}

// decodeOutput strips the NUL bytes left by tools that write UTF-16LE
// (NSSM does on Windows consoles) and normalises line endings.
func decodeOutput(b []byte) string {
	b = bytes.ReplaceAll(b, []byte{0}, nil)
	b = bytes.TrimPrefix(b, []byte{0xff, 0xfe})
	return strings.ReplaceAll(string(b), "\r\n", "\n")
}
