package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/providertest"
	"github.com/alexisbeaulieu97/devsync/internal/providers"
	devsyncerrors "github.com/alexisbeaulieu97/devsync/pkg/errors"
)

type mapEnv struct {
	mu   sync.Mutex
	vars map[string]string
}

func newMapEnv(vars map[string]string) *mapEnv {
	if vars == nil {
		vars = map[string]string{}
	}
	return &mapEnv{vars: vars}
}

func (e *mapEnv) LookupEnv(key string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vars[key]
	return v, ok
}

func (e *mapEnv) Setenv(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[key] = value
	return nil
}

type harness struct {
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	runner *providertest.Runner
	env    *mapEnv
}

func newHarness(t *testing.T, config string) *harness {
	t.Helper()

	dir := t.TempDir()
	config = strings.ReplaceAll(config, "$DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devsync.yaml"), []byte(config), 0o644))

	return &harness{
		dir:    dir,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		runner: providertest.NewRunner().
			On("brew list --formula -1", providertest.Output("")).
			On("brew list --cask -1", providertest.Output("")),
		env: newMapEnv(nil),
	}
}

func (h *harness) deps() deps {
	return deps{
		stdin:      strings.NewReader(""),
		stdout:     h.stdout,
		stderr:     h.stderr,
		env:        h.env,
		runner:     h.runner,
		isTerminal: func() bool { return false },
		newRunID:   func() string { return "run-1" },
		registry: func(res provider.Resources) *provider.Registry {
			return providers.NewRegistry(res)
		},
	}
}

func (h *harness) execute(args ...string) error {
	cmd := newRootCmd(h.deps())
	cmd.SetOut(h.stdout)
	cmd.SetErr(h.stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(h.dir, "devsync.yaml")}, args...))
	return cmd.Execute()
}

func (h *harness) installs() []string {
	var out []string
	for _, call := range h.runner.Calls() {
		if strings.HasPrefix(call, "brew install") {
			out = append(out, call)
		}
	}
	return out
}

const basicConfig = `
settings:
  shell_profile: $DIR/.zshrc
identity: {github_cli: false}
system: {formulae: [jq]}
overrides:
  cask_any:
    - [arc, arc-browser]
`

// withLines swaps whole top-level lines of basicConfig.
func withLines(replacements ...string) string {
	cfg := basicConfig
	for i := 0; i+1 < len(replacements); i += 2 {
		cfg = strings.Replace(cfg, replacements[i], replacements[i+1], 1)
	}
	return cfg
}

func TestApplyInstallsMissingItems(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	h.runner.
		On("brew install --cask arc", providertest.Fail("Error: Cask 'arc' is unavailable")).
		On("brew install --cask arc-browser", providertest.Output("installed"))

	reportPath := filepath.Join(h.dir, "out", "report.json")
	require.NoError(t, h.execute("apply", "--no-tui", "--report", reportPath))

	require.Equal(t, []string{"brew install jq", "brew install --cask arc", "brew install --cask arc-browser"}, h.installs())

	out := h.stdout.String()
	require.Contains(t, out, "devsync run run-1")
	require.Contains(t, out, "Summary: 2 total, 2 installed, 0 already satisfied, 0 failed, 0 skipped")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var decoded struct {
		RunID      string `json:"run_id"`
		ExitStatus int    `json:"exit_status"`
		Entries    []struct {
			Identifier string `json:"identifier"`
			Status     string `json:"status"`
			Detail     string `json:"detail"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "run-1", decoded.RunID)
	require.Equal(t, 0, decoded.ExitStatus)
	require.Len(t, decoded.Entries, 2)
	require.Equal(t, "arc-browser", decoded.Entries[1].Detail)

	_, err = os.Stat(filepath.Join(h.dir, "devsync.log"))
	require.NoError(t, err, "run log is created next to the configuration")
}

func TestApplyIsTheDefaultCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	require.NoError(t, h.execute("--no-tui"))
	require.NotEmpty(t, h.installs())
}

func TestApplySecondRunChangesNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	h.runner.
		On("brew list --formula -1", providertest.Output("jq")).
		On("brew list --cask -1", providertest.Output("arc-browser"))

	require.NoError(t, h.execute("apply", "--no-tui"))
	require.Empty(t, h.installs())
	require.Contains(t, h.stdout.String(), "Summary: 2 total, 0 installed, 2 already satisfied, 0 failed, 0 skipped")
}

func TestApplyFailuresExitZeroUnlessStrict(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	h.runner.On("brew install jq", providertest.Fail("Error: no bottle"))

	require.NoError(t, h.execute("apply", "--no-tui"))
	require.Contains(t, h.stdout.String(), "Failed items:")
	require.Contains(t, h.stdout.String(), "(formula/jq)")
	require.Contains(t, h.stderr.String(), "1 item(s) failed")

	strict := newHarness(t, basicConfig)
	strict.runner.On("brew install jq", providertest.Fail("Error: no bottle"))

	err := strict.execute("apply", "--no-tui", "--strict")
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.code)
	require.Equal(t, []string{"brew install jq", "brew install --cask arc"}, strict.installs(),
		"a failed item never stops later items")
}

func TestApplyStrictFromSettings(t *testing.T) {
	t.Parallel()

	h := newHarness(t, withLines("settings:\n", "settings:\n  strict: true\n"))
	h.runner.On("brew install --cask", providertest.Fail("Error: download failed"))

	err := h.execute("apply", "--no-tui")
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
}

func TestApplyDryRunInstallsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	h.runner.Missing("brew")

	require.NoError(t, h.execute("apply", "--no-tui", "--dry-run"))
	require.Empty(t, h.installs())
	require.False(t, h.runner.Ran("sh -c"), "dry run never runs the Homebrew installer")
	require.Contains(t, h.stdout.String(), "would install")
	require.Contains(t, h.stdout.String(), "2 skipped")
}

func TestApplyMissingHomebrewIsFatal(t *testing.T) {
	t.Parallel()

	h := newHarness(t, withLines("system: {formulae: [jq]}", "system: {homebrew: false, formulae: [jq]}"))
	h.runner.Missing("brew")

	err := h.execute("apply", "--no-tui")
	var missing *devsyncerrors.DependencyMissingError
	require.True(t, errors.As(err, &missing), "got %v", err)
	require.Empty(t, h.installs())
}

func TestApplyLoadsSecretsFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, ".env"), []byte("GITHUB_TOKEN=from-file\nEXISTING=file\n"), 0o600))
	h.env.vars["EXISTING"] = "process"

	require.NoError(t, h.execute("apply", "--no-tui"))

	v, ok := h.env.LookupEnv("GITHUB_TOKEN")
	require.True(t, ok)
	require.Equal(t, "from-file", v)
	v, _ = h.env.LookupEnv("EXISTING")
	require.Equal(t, "process", v, "the process environment wins over the secrets file")
}

func TestApplyRejectsMissingConfig(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	cmd := newRootCmd(h.deps())
	cmd.SetArgs([]string{"apply", "--config", filepath.Join(h.dir, "absent.yaml"), "--no-tui"})

	err := cmd.Execute()
	var cfgErr *devsyncerrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Empty(t, h.runner.Calls())
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	require.Equal(t, filepath.Join("/etc/devsync", ".env"), resolvePath("/etc/devsync", ".env"))
	require.Equal(t, "/var/log/devsync.log", resolvePath("/etc/devsync", "/var/log/devsync.log"))
	require.Equal(t, "", resolvePath("/etc/devsync", ""))
}

func TestApplyReportWriteFailureIsExecutionError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, basicConfig)
	blocked := filepath.Join(h.dir, "devsync.yaml", "report.json")

	err := h.execute("apply", "--no-tui", "--report", blocked)
	var execErr *devsyncerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "write report", execErr.Stage)
	require.Contains(t, h.stdout.String(), "Summary: 2 total", "the report is still printed")
}
