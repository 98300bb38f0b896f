// Package secrets loads the optional secrets file into the process
// environment before a run is planned.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/subosito/gotenv"
)

// Environment is the process environment the secrets are exported into.
type Environment interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
}

// OSEnvironment is the real process environment.
type OSEnvironment struct{}

// LookupEnv implements Environment.
func (OSEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Setenv implements Environment.
func (OSEnvironment) Setenv(key, value string) error {
	return os.Setenv(key, value)
}

// Load parses the dotenv file at path and exports every variable that is not
// already set in env. It returns the exported names, sorted. A missing file is
// not an error.
func Load(path string, env Environment) ([]string, error) {
	if env == nil {
		env = OSEnvironment{}
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open secrets file %s: %w", path, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.IsDir() {
		return nil, fmt.Errorf("secrets file %s is a directory", path)
	}

	values, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", path, err)
	}

	exported := make([]string, 0, len(values))
	for key, value := range values {
		if _, set := env.LookupEnv(key); set {
			continue
		}
		if err := env.Setenv(key, value); err != nil {
			return nil, fmt.Errorf("export %s: %w", key, err)
		}
		exported = append(exported, key)
	}
	sort.Strings(exported)
	return exported, nil
}
