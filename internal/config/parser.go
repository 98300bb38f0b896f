package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	devsyncerrors "github.com/alexisbeaulieu97/devsync/pkg/errors"
)

// DefaultPath is the document looked up in the working directory when no
// path is given on the command line.
const DefaultPath = "devsync.yaml"

// Format identifies the syntax of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// FormatForPath picks the document syntax from the file extension. Anything
// that is not .toml is treated as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads, parses and validates the document at path. Every failure is a
// ConfigurationError: nothing may be installed from a document that did not load.
func Load(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, devsyncerrors.NewConfigurationError(path,
			devsyncerrors.NewValidationError("config", "config file is required", nil))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, devsyncerrors.NewConfigurationError(path, devsyncerrors.NewParseError(path, 0, err))
	}
	if info.IsDir() {
		return nil, devsyncerrors.NewConfigurationError(path,
			devsyncerrors.NewValidationError("config", fmt.Sprintf("%s is a directory", path), nil))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, devsyncerrors.NewConfigurationError(path, devsyncerrors.NewParseError(path, 0, err))
	}

	return Parse(data, FormatForPath(path), path)
}

// Parse decodes a document held in memory. path is only used for messages.
func Parse(data []byte, format Format, path string) (*Document, error) {
	root, err := decodeTree(data, format)
	if err != nil {
		return nil, devsyncerrors.NewConfigurationError(path,
			devsyncerrors.NewParseError(path, extractLine(err), err))
	}

	settings, err := decodeSettings(data, format)
	if err != nil {
		return nil, devsyncerrors.NewConfigurationError(path,
			devsyncerrors.NewParseError(path, extractLine(err), err))
	}

	settings = settings.withDefaults()
	if err := ValidateSettings(settings); err != nil {
		return nil, devsyncerrors.NewConfigurationError(path, err)
	}

	return &Document{path: path, root: root, settings: settings}, nil
}

func decodeTree(data []byte, format Format) (map[string]any, error) {
	raw := map[string]any{}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	root, _ := normalize(raw).(map[string]any)
	if root == nil {
		root = map[string]any{}
	}
	return root, nil
}

func decodeSettings(data []byte, format Format) (Settings, error) {
	var wrapper struct {
		Settings Settings `yaml:"settings" toml:"settings"`
	}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &wrapper); err != nil {
			return Settings{}, err
		}
	default:
		if err := yaml.Unmarshal(data, &wrapper); err != nil {
			return Settings{}, err
		}
	}
	return wrapper.Settings, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, _ := decodeErr.Position()
		return row
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
