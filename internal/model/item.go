package model

import "strings"

// Installer categories understood by the provider registry.
const (
	CategoryFormula         = "formula"
	CategoryCask            = "cask"
	CategoryCaskAny         = "cask_any"
	CategoryTap             = "tap"
	CategoryAppStoreApp     = "app_store_app"
	CategoryLanguageVersion = "language_version"
	CategoryGlobalPackage   = "global_package"
	CategoryShellStep       = "shell_step"
	CategoryProfileLine     = "profile_line"
	CategoryGitRepo         = "git_repo"
	CategoryReleaseBinary   = "release_binary"
	CategorySymlink         = "symlink"
)

// DesiredItem is one unit the reconciler may need to install.
type DesiredItem struct {
	// Group is the configuration section that produced the item (e.g. "browsers").
	Group string

	// Category selects the provider responsible for the item.
	Category string

	// Identifier is the provider-specific name or id (cask slug, store id, version).
	Identifier string

	// Label is an optional human-facing name; Identifier is used when empty.
	Label string

	// Params carries auxiliary provider options such as a version manager or flags.
	Params map[string]string

	// Alternatives lists fallback identifiers for cask_any items, in attempt order.
	Alternatives []string
}

// Key returns the (category, identifier) pair that must be unique within a run.
func (i DesiredItem) Key() string {
	return i.Category + "/" + i.Identifier
}

// Name returns the label shown to operators.
func (i DesiredItem) Name() string {
	if strings.TrimSpace(i.Label) != "" {
		return i.Label
	}
	return i.Identifier
}

// Param returns the named parameter or "" when absent.
func (i DesiredItem) Param(key string) string {
	if i.Params == nil {
		return ""
	}
	return i.Params[key]
}

// ParamOr returns the named parameter, or fallback when it is absent or blank.
func (i DesiredItem) ParamOr(key, fallback string) string {
	if v := strings.TrimSpace(i.Param(key)); v != "" {
		return v
	}
	return fallback
}

// ParamBool reports whether the named parameter is set to "true".
func (i DesiredItem) ParamBool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Param(key)), "true")
}
