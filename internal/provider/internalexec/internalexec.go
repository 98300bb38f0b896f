package internalexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Result captures stdout/stderr emitted by a streaming command run.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes external installers. Providers depend on this interface so
// tests can substitute a recording fake for the real process runner.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	RunScript(ctx context.Context, script string) (Result, error)
	LookPath(name string) (string, error)
}

// ExitError reports a command or script that ran and exited non-zero, as
// opposed to one that could not be started at all.
type ExitError struct {
	Name   string
	Code   int
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Name, e.Code)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// IsExit reports whether err is, or wraps, an ExitError.
func IsExit(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Command is the process-backed Runner.
type Command struct {
	// Stdout and Stderr receive a live copy of the child's output. When nil the
	// output is only collected into the Result.
	Stdout io.Writer
	Stderr io.Writer

	// Env is appended to the parent environment for every child.
	Env []string

	// Dir is the working directory for children; empty means the current one.
	Dir string
}

var _ Runner = (*Command)(nil)

// Run starts name with args and waits for it. A non-zero exit is returned as an
// error that carries the command's primary output.
func (c *Command) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	res, err := RunStreaming(cmd)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return res, &ExitError{Name: name, Code: exitErr.ExitCode(), Output: lastLine(PrimaryOutput(res)), Err: err}
		}
		return res, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// RunScript interprets a POSIX/bash script in-process. Commands the script
// invokes are still started as real processes with the runner's environment.
func (c *Command) RunScript(ctx context.Context, script string) (Result, error) {
	prog, err := ParseScript(script)
	if err != nil {
		return Result{}, err
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := io.Writer(&stdoutBuf)
	stderr := io.Writer(&stderrBuf)
	if c.Stdout != nil {
		stdout = io.MultiWriter(c.Stdout, &stdoutBuf)
	}
	if c.Stderr != nil {
		stderr = io.MultiWriter(c.Stderr, &stderrBuf)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(append(os.Environ(), c.Env...)...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if c.Dir != "" {
		opts = append(opts, interp.Dir(c.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)
	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}
	if err != nil {
		if exitStatus, ok := interp.IsExitStatus(err); ok && ctx.Err() == nil {
			return res, &ExitError{Name: "script", Code: int(exitStatus), Output: lastLine(PrimaryOutput(res)), Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("script: %w", ctxErr)
		}
		return res, fmt.Errorf("script execution failed: %w", err)
	}
	return res, nil
}

// ParseScript checks a script's syntax without running it.
func ParseScript(script string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "script")
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return prog, nil
}

// Quote single-quotes s for use as one word in a POSIX shell command line.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// LookPath resolves name against PATH.
func (c *Command) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// RunStreaming runs cmd and collects its output. Writers already set on cmd
// also receive a live copy; unset ones are not inherited from the parent.
func RunStreaming(cmd *exec.Cmd) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = tee(cmd.Stdout, &stdoutBuf)
	cmd.Stderr = tee(cmd.Stderr, &stderrBuf)

	err := cmd.Run()

	return Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}, err
}

func tee(live io.Writer, buf *bytes.Buffer) io.Writer {
	if live == nil {
		return buf
	}
	return io.MultiWriter(live, buf)
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}

// Lines splits trimmed output into non-empty lines.
func Lines(out string) []string {
	raw := strings.Split(out, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func lastLine(out string) string {
	lines := Lines(out)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
