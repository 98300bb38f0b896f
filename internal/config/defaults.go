package config

// defaultEnabled is the complete list of include flags that are on when the
// document does not mention them. Every other flag defaults to disabled.
var defaultEnabled = map[string]bool{
	"system.homebrew":       true,
	"identity.github_cli":   true,
	"languages.python.pipx": true,
}

// DefaultEnabled reports the documented default for an include flag.
func DefaultEnabled(path string) bool {
	return defaultEnabled[path]
}

// DefaultEnabledFlags returns a copy of the defaults table.
func DefaultEnabledFlags() map[string]bool {
	out := make(map[string]bool, len(defaultEnabled))
	for k, v := range defaultEnabled {
		out[k] = v
	}
	return out
}
