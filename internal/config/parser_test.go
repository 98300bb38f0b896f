package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	devsyncerrors "github.com/alexisbeaulieu97/devsync/pkg/errors"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	validYAML := `settings:
  log_file: logs/run.log
  shell_profile: /tmp/profile
  item_timeout: 90s
  strict: true
system:
  formulae: [jq]
`

	invalidYAML := `system:
  formulae: [jq
browsers: {arc: true}
`

	badTimeout := `settings:
  item_timeout: soon
`

	badTokenEnv := `settings:
  token_env: "not valid"
`

	cases := []struct {
		name     string
		file     string
		contents string
		assert   func(t *testing.T, doc *Document, err error)
	}{
		{
			name:     "valid configuration is parsed",
			file:     "devsync.yaml",
			contents: validYAML,
			assert: func(t *testing.T, doc *Document, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"jq"}, doc.GetStringList("system.formulae"))
				settings := doc.Settings()
				require.Equal(t, "logs/run.log", settings.LogFile)
				require.Equal(t, "/tmp/profile", settings.ProfilePath())
				require.Equal(t, 90*time.Second, settings.Timeout())
				require.True(t, settings.Strict)
				require.Equal(t, "GITHUB_TOKEN", settings.TokenEnv)
				require.Equal(t, ".env", settings.SecretsFile)
			},
		},
		{
			name:     "invalid yaml returns parse error",
			file:     "devsync.yaml",
			contents: invalidYAML,
			assert: func(t *testing.T, doc *Document, err error) {
				require.Error(t, err)
				var cfgErr *devsyncerrors.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				var parseErr *devsyncerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Greater(t, parseErr.Line, 0)
			},
		},
		{
			name:     "invalid duration returns validation error",
			file:     "devsync.yaml",
			contents: badTimeout,
			assert: func(t *testing.T, doc *Document, err error) {
				require.Error(t, err)
				var validationErr *devsyncerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Equal(t, "settings.item_timeout", validationErr.Field)
			},
		},
		{
			name:     "invalid env name returns validation error",
			file:     "devsync.yaml",
			contents: badTokenEnv,
			assert: func(t *testing.T, doc *Document, err error) {
				var validationErr *devsyncerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Equal(t, "settings.token_env", validationErr.Field)
			},
		},
		{
			name:     "empty document is valid",
			file:     "devsync.yaml",
			contents: "",
			assert: func(t *testing.T, doc *Document, err error) {
				require.NoError(t, err)
				require.Empty(t, doc.GetList("system.formulae"))
			},
		},
		{
			name:     "toml is selected by extension",
			file:     "devsync.toml",
			contents: "[settings]\nitem_timeout = \"5m\"\n[system]\nformulae = [\"jq\"]\n",
			assert: func(t *testing.T, doc *Document, err error) {
				require.NoError(t, err)
				require.Equal(t, 5*time.Minute, doc.Settings().Timeout())
				require.Equal(t, []string{"jq"}, doc.GetStringList("system.formulae"))
			},
		},
		{
			name:     "malformed toml reports line",
			file:     "devsync.toml",
			contents: "[system]\nformulae = [\"jq\"\n",
			assert: func(t *testing.T, doc *Document, err error) {
				var parseErr *devsyncerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Greater(t, parseErr.Line, 0)
			},
		},
	}

	for _, tc := range cases {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.contents), 0o644))

			doc, err := Load(path)
			tc.assert(t, doc, err)
			if err == nil {
				require.Equal(t, path, doc.Path())
			}
		})
	}
}

func TestLoadRejectsInvalidPaths(t *testing.T) {
	t.Parallel()

	_, err := Load("")
	var cfgErr *devsyncerrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorAs(t, err, &cfgErr)

	_, err = Load(t.TempDir())
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, err.Error(), "is a directory")
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, FormatTOML, FormatForPath("machine.TOML"))
	require.Equal(t, FormatYAML, FormatForPath("machine.yml"))
	require.Equal(t, FormatYAML, FormatForPath("machine"))
}

func TestSettingsDefaults(t *testing.T) {
	t.Parallel()

	s := Settings{}.withDefaults()
	require.Equal(t, "devsync.log", s.LogFile)
	require.Equal(t, "OPENAI_API_KEY", s.AIKeyEnv)
	require.Zero(t, s.Timeout())
	require.Contains(t, []string{"~/.zshrc", "~/.bashrc"}, s.ShellProfile)

	require.Equal(t, "~/.bashrc", defaultProfileForShell("/bin/bash"))
	require.Equal(t, "~/.zshrc", defaultProfileForShell("/bin/zsh"))
	require.Equal(t, "~/.zshrc", defaultProfileForShell(""))
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".zshrc"), ExpandHome("~/.zshrc"))
	require.Equal(t, home, ExpandHome("~"))
	require.Equal(t, "/etc/profile", ExpandHome("/etc/profile"))
}
