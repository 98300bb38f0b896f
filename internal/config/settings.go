package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Settings holds run-wide options read from the document's settings section.
type Settings struct {
	LogFile         string `yaml:"log_file" toml:"log_file" validate:"omitempty,max=4096"`
	ShellProfile    string `yaml:"shell_profile" toml:"shell_profile" validate:"omitempty,max=4096"`
	ProfileEncoding string `yaml:"profile_encoding" toml:"profile_encoding" validate:"omitempty,oneof=utf-8 utf8 latin-1 latin1 iso-8859-1 windows-1252 utf-16 utf-16le utf-16be"`
	ItemTimeout     string `yaml:"item_timeout" toml:"item_timeout" validate:"omitempty,duration"`
	Strict          bool   `yaml:"strict" toml:"strict"`
	SecretsFile     string `yaml:"secrets_file" toml:"secrets_file" validate:"omitempty,max=4096"`
	TokenEnv        string `yaml:"token_env" toml:"token_env" validate:"omitempty,env_name"`
	AIKeyEnv        string `yaml:"ai_key_env" toml:"ai_key_env" validate:"omitempty,env_name"`
}

const (
	defaultLogFile     = "devsync.log"
	defaultSecretsFile = ".env"
	defaultTokenEnv    = "GITHUB_TOKEN"
	defaultAIKeyEnv    = "OPENAI_API_KEY"
)

func (s Settings) withDefaults() Settings {
	if strings.TrimSpace(s.LogFile) == "" {
		s.LogFile = defaultLogFile
	}
	if strings.TrimSpace(s.SecretsFile) == "" {
		s.SecretsFile = defaultSecretsFile
	}
	if strings.TrimSpace(s.TokenEnv) == "" {
		s.TokenEnv = defaultTokenEnv
	}
	if strings.TrimSpace(s.AIKeyEnv) == "" {
		s.AIKeyEnv = defaultAIKeyEnv
	}
	if strings.TrimSpace(s.ShellProfile) == "" {
		s.ShellProfile = defaultProfileForShell(os.Getenv("SHELL"))
	}
	return s
}

// Timeout returns the per-item timeout, or zero for unbounded.
func (s Settings) Timeout() time.Duration {
	if strings.TrimSpace(s.ItemTimeout) == "" {
		return 0
	}
	d, err := time.ParseDuration(s.ItemTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ProfilePath returns the shell profile with "~" expanded.
func (s Settings) ProfilePath() string {
	return ExpandHome(s.ShellProfile)
}

func defaultProfileForShell(shell string) string {
	if strings.Contains(filepath.Base(shell), "bash") {
		return "~/.bashrc"
	}
	return "~/.zshrc"
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
