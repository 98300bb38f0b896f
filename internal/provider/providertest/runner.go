// Package providertest provides a scripted command runner for provider tests.
package providertest

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
)

// Handler produces the result of one scripted command.
type Handler func(args []string) (internalexec.Result, error)

// Runner is an internalexec.Runner that records every command and answers from
// handlers registered by command-line prefix. Unmatched commands succeed with
// no output.
type Runner struct {
	mu       sync.Mutex
	calls    []string
	handlers map[string]Handler
	missing  map[string]bool
}

var _ internalexec.Runner = (*Runner)(nil)

// NewRunner returns an empty scripted runner.
func NewRunner() *Runner {
	return &Runner{handlers: map[string]Handler{}, missing: map[string]bool{}}
}

// On registers h for every command line starting with prefix. The longest
// matching prefix wins.
func (r *Runner) On(prefix string, h Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = h
	return r
}

// Missing makes LookPath fail for the named binaries.
func (r *Runner) Missing(names ...string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.missing[name] = true
	}
	return r
}

// Run implements internalexec.Runner.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (internalexec.Result, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))

	r.mu.Lock()
	r.calls = append(r.calls, line)
	var (
		handler Handler
		best    int
	)
	for prefix, h := range r.handlers {
		if strings.HasPrefix(line, prefix) && len(prefix) >= best {
			handler, best = h, len(prefix)
		}
	}
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return internalexec.Result{}, err
	}
	if handler == nil {
		return internalexec.Result{}, nil
	}
	return handler(append([]string{name}, args...))
}

// RunScript implements internalexec.Runner. Scripts are recorded and matched
// as "sh -c <script>".
func (r *Runner) RunScript(ctx context.Context, script string) (internalexec.Result, error) {
	if _, err := internalexec.ParseScript(script); err != nil {
		return internalexec.Result{}, err
	}
	return r.Run(ctx, "sh", "-c", script)
}

// LookPath implements internalexec.Runner.
func (r *Runner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/local/bin/" + name, nil
}

// Calls returns every command line run so far, in order.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ran reports whether a command line starting with prefix was run.
func (r *Runner) Ran(prefix string) bool {
	for _, call := range r.Calls() {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

// Output answers with stdout and a zero exit.
func Output(stdout string) Handler {
	return func([]string) (internalexec.Result, error) {
		return internalexec.Result{Stdout: strings.TrimSpace(stdout)}, nil
	}
}

// Fail answers with stderr and a non-zero exit.
func Fail(stderr string) Handler {
	return func(args []string) (internalexec.Result, error) {
		return internalexec.Result{Stderr: stderr}, &internalexec.ExitError{
			Name:   args[0],
			Code:   1,
			Output: stderr,
			Err:    errors.New("exit status 1"),
		}
	}
}

// Broken answers as if the binary could not be started at all.
func Broken(msg string) Handler {
	return func(args []string) (internalexec.Result, error) {
		return internalexec.Result{}, fmt.Errorf("%s: %s", args[0], msg)
	}
}
