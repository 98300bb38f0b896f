package langver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
	"github.com/alexisbeaulieu97/devsync/internal/provider/providertest"
)

func nodeItem(version string, asDefault bool) model.DesiredItem {
	params := map[string]string{"manager": ManagerNVM, "version": version}
	if asDefault {
		params["default"] = "true"
	}
	return model.DesiredItem{
		Group:      "languages",
		Category:   model.CategoryLanguageVersion,
		Identifier: Identifier("node", version),
		Params:     params,
	}
}

func pythonItem(version string, global bool) model.DesiredItem {
	params := map[string]string{"manager": ManagerPyenv, "version": version}
	if global {
		params["default"] = "true"
	}
	return model.DesiredItem{
		Group:      "languages",
		Category:   model.CategoryLanguageVersion,
		Identifier: Identifier("python", version),
		Params:     params,
	}
}

func nvmCmd(command string) string {
	return "bash -c " + NVMPrelude + command
}

func notAvailable(args []string) (internalexec.Result, error) {
	return internalexec.Result{Stdout: "N/A"}, &internalexec.ExitError{Name: args[0], Code: 3}
}

func TestIdentifier(t *testing.T) {
	t.Parallel()
	require.Equal(t, "node@20", Identifier("node", "20"))
}

func TestNVMIsSatisfied(t *testing.T) {
	t.Parallel()

	runner := providertest.NewRunner().
		On(nvmCmd("nvm version '20'"), providertest.Output("v20.11.1")).
		On(nvmCmd("nvm version '18'"), notAvailable).
		On(nvmCmd("nvm version 'default'"), providertest.Output("v18.19.0"))
	p := New(provider.Resources{Runner: runner})

	ok, err := p.IsSatisfied(context.Background(), nodeItem("20", false))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.IsSatisfied(context.Background(), nodeItem("20", true))
	require.NoError(t, err)
	require.False(t, ok, "installed but not the default")

	ok, err = p.IsSatisfied(context.Background(), nodeItem("18", false))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNVMInstallSetsDefault(t *testing.T) {
	t.Parallel()

	runner := providertest.NewRunner().
		On(nvmCmd("nvm version '20'"), providertest.Output("v20.11.1"))
	p := New(provider.Resources{Runner: runner})

	outcome, err := p.Install(context.Background(), nodeItem("20", true))
	require.NoError(t, err)
	require.Equal(t, model.StatusInstalled, outcome.Status())
	require.Equal(t, "v20.11.1", outcome.Detail())
	require.Equal(t, []string{
		nvmCmd("nvm install '20'"),
		nvmCmd("nvm alias default '20'"),
		nvmCmd("nvm version '20'"),
	}, runner.Calls())
}

func TestNVMQuotesVersionArguments(t *testing.T) {
	t.Parallel()

	runner := providertest.NewRunner().
		On(nvmCmd(`nvm version '20; rm -rf ~'`), providertest.Output("v20.11.1"))
	p := New(provider.Resources{Runner: runner})

	_, err := p.Install(context.Background(), nodeItem("20; rm -rf ~", false))
	require.NoError(t, err)
	require.Equal(t, nvmCmd(`nvm install '20; rm -rf ~'`), runner.Calls()[0])
}

func TestNVMProbeErrorWhenShellMissing(t *testing.T) {
	t.Parallel()

	runner := providertest.NewRunner().On("bash", providertest.Broken("executable file not found"))
	p := New(provider.Resources{Runner: runner})

	_, err := p.IsSatisfied(context.Background(), nodeItem("20", false))
	require.ErrorIs(t, err, &provider.ProbeError{})
}

func TestPyenvIsSatisfied(t *testing.T) {
	t.Parallel()

	runner := providertest.NewRunner().
		On("pyenv versions --bare", providertest.Output("3.11.9\n3.12.1\n3.12.4\n")).
		On("pyenv global", providertest.Output("3.12.4"))
	p := New(provider.Resources{Runner: runner})

	ok, err := p.IsSatisfied(context.Background(), pythonItem("3.12", true))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.IsSatisfied(context.Background(), pythonItem("3.11", true))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = p.IsSatisfied(context.Background(), pythonItem("3.13", false))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPyenvInstallResolvesGlobal(t *testing.T) {
	t.Parallel()

	installed := false
	runner := providertest.NewRunner().
		On("pyenv install", func([]string) (internalexec.Result, error) {
			installed = true
			return internalexec.Result{}, nil
		}).
		On("pyenv versions --bare", func([]string) (internalexec.Result, error) {
			if installed {
				return internalexec.Result{Stdout: "3.11.9\n3.12.4"}, nil
			}
			return internalexec.Result{Stdout: "3.11.9"}, nil
		})
	p := New(provider.Resources{Runner: runner})

	outcome, err := p.Install(context.Background(), pythonItem("3.12", true))
	require.NoError(t, err)
	require.Equal(t, "3.12.4", outcome.Detail())
	require.True(t, runner.Ran("pyenv install --skip-existing 3.12"))
	require.True(t, runner.Ran("pyenv global 3.12.4"))
}

func TestUnknownManager(t *testing.T) {
	t.Parallel()

	p := New(provider.Resources{Runner: providertest.NewRunner()})
	item := model.DesiredItem{
		Category:   model.CategoryLanguageVersion,
		Identifier: "ruby@3.3",
		Params:     map[string]string{"manager": "rbenv", "version": "3.3"},
	}

	_, err := p.IsSatisfied(context.Background(), item)
	require.ErrorIs(t, err, &provider.ProbeError{})

	outcome, err := p.Install(context.Background(), item)
	require.Error(t, err)
	require.Contains(t, outcome.Detail(), "unknown version manager")
}

func TestMatchVersion(t *testing.T) {
	t.Parallel()

	installed := []string{"3.9.18", "3.12.10", "3.12.9", "3.1.2"}
	require.Equal(t, "3.12.10", matchVersion(installed, "3.12"))
	require.Equal(t, "3.1.2", matchVersion(installed, "3.1"))
	require.Equal(t, "3.9.18", matchVersion(installed, "3.9.18"))
	require.Equal(t, "", matchVersion(installed, "3.13"))
}
