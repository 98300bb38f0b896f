package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/providers"
)

const stubBrew = `#!/bin/sh
case "$1" in
  list) echo "LISTED-FORMULA-git"; echo git ;;
  install) echo "INSTALLER-PROGRESS"; echo "==> Pouring $2" >&2 ;;
esac
`

// Not parallel: changes PATH and swaps the process stdout and stderr.
func TestApplyKeepsInstallerOutputOutOfStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub brew is a POSIX shell script")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "brew"), []byte(stubBrew), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	configPath := filepath.Join(dir, "devsync.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(strings.ReplaceAll(`
settings: {shell_profile: $DIR/.zshrc}
identity: {github_cli: false}
system: {formulae: [git, jq]}
`, "$DIR", dir)), 0o644))

	r, w, err := os.Pipe()
	require.NoError(t, err)
	oldStdout, oldStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = w, w
	defer func() { os.Stdout, os.Stderr = oldStdout, oldStderr }()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	d := deps{
		stdin:      strings.NewReader(""),
		stdout:     stdout,
		stderr:     stderr,
		env:        newMapEnv(nil),
		isTerminal: func() bool { return false },
		newRunID:   func() string { return "run-out" },
		registry: func(res provider.Resources) *provider.Registry {
			return providers.NewRegistry(res)
		},
	}
	cmd := newRootCmd(d)
	cmd.SetArgs([]string{"apply", "--config", configPath, "--no-tui"})
	runErr := cmd.Execute()

	os.Stdout, os.Stderr = oldStdout, oldStderr
	require.NoError(t, w.Close())
	leaked, err := io.ReadAll(r)
	require.NoError(t, err)

	require.NoError(t, runErr)
	require.Empty(t, string(leaked), "child output must not reach the process stdout or stderr")

	out := stdout.String()
	require.Contains(t, out, "Summary: 2 total, 1 installed, 1 already satisfied, 0 failed, 0 skipped")
	require.NotContains(t, out, "LISTED-FORMULA")
	require.NotContains(t, out, "INSTALLER-PROGRESS")
	require.NotContains(t, stderr.String(), "INSTALLER-PROGRESS", "installer output is only shown with --verbose")
}

// Not parallel: changes PATH.
func TestApplyVerboseStreamsInstallerOutputToStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub brew is a POSIX shell script")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "brew"), []byte(stubBrew), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	configPath := filepath.Join(dir, "devsync.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("identity: {github_cli: false}\nsystem: {formulae: [jq]}\n"), 0o644))

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	d := deps{
		stdin:      strings.NewReader(""),
		stdout:     stdout,
		stderr:     stderr,
		env:        newMapEnv(nil),
		isTerminal: func() bool { return false },
		newRunID:   func() string { return "run-verbose" },
		registry: func(res provider.Resources) *provider.Registry {
			return providers.NewRegistry(res)
		},
	}
	cmd := newRootCmd(d)
	cmd.SetArgs([]string{"apply", "--config", configPath, "--no-tui", "--verbose"})
	require.NoError(t, cmd.Execute())

	require.Contains(t, stderr.String(), "INSTALLER-PROGRESS")
	require.Contains(t, stderr.String(), "==> Pouring jq")
	require.NotContains(t, stdout.String(), "INSTALLER-PROGRESS")
}
