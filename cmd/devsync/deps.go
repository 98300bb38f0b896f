package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
	"github.com/alexisbeaulieu97/devsync/internal/providers"
	"github.com/alexisbeaulieu97/devsync/internal/secrets"
)

// deps are the process collaborators of a command run. Tests replace them.
type deps struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	env        secrets.Environment
	runner     internalexec.Runner
	isTerminal func() bool
	newRunID   func() string
	registry   func(provider.Resources) *provider.Registry
}

func defaultDeps() deps {
	return deps{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		env:    secrets.OSEnvironment{},
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
		},
		newRunID: uuid.NewString,
		registry: func(res provider.Resources) *provider.Registry {
			return providers.NewRegistry(res)
		},
	}
}

func (d deps) getenv(key string) string {
	v, _ := d.env.LookupEnv(key)
	return v
}

// exitError carries a non-zero process status without an extra message; the
// report has already told the operator what failed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
