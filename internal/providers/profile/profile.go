// Package profile appends lines to the operator's shell profile. Appends are
// de-duplicated: a line that is already present is never written again.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
	"github.com/alexisbeaulieu97/devsync/pkg/diff"
)

// Provider manages profile_line items. The identifier is the exact line; the
// optional "path" parameter overrides the profile from Resources.
//
// An item with an "export_env" parameter instead exports the current value of
// that environment variable. The value is read when the item is probed or
// installed, so it never appears in the item itself, the log or the report.
type Provider struct {
	res provider.Resources
}

var (
	_ provider.Provider  = (*Provider)(nil)
	_ provider.Previewer = (*Provider)(nil)
)

// New creates a shell profile provider.
func New(res provider.Resources) *Provider {
	return &Provider{res: res.WithDefaults()}
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategoryProfileLine
}

// IsSatisfied reports whether the exact line is already in the profile.
func (p *Provider) IsSatisfied(_ context.Context, item model.DesiredItem) (bool, error) {
	line, err := p.line(item)
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}
	state, err := readFileState(p.path(item), p.res.ProfileEncoding)
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}
	return state.contains(normalizeLine(line)), nil
}

// Install appends the line unless it is present.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}

	line, err := p.line(item)
	if err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	appended, err := Append(p.path(item), line, p.res.ProfileEncoding)
	if err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	if !appended {
		return model.Installed("already present"), nil
	}
	return model.Installed(""), nil
}

// Preview returns a unified diff of the profile before and after the append.
// Exported values are masked.
func (p *Provider) Preview(_ context.Context, item model.DesiredItem) (string, error) {
	line := item.Identifier
	if name := item.Param("export_env"); name != "" {
		line = ExportLine(name, "***")
	}
	line = normalizeLine(line)

	state, err := readFileState(p.path(item), p.res.ProfileEncoding)
	if err != nil {
		return "", err
	}
	if state.contains(line) {
		return "", nil
	}

	before := joinLines(state.Lines, state.TrailingNewline)
	after := joinLines(append(append([]string{}, state.Lines...), line), true)
	return diff.Unified([]byte(before), []byte(after), state.Path, state.Path+" (after)"), nil
}

func (p *Provider) line(item model.DesiredItem) (string, error) {
	name := item.Param("export_env")
	if name == "" {
		return item.Identifier, nil
	}
	value := p.res.Getenv(name)
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return ExportLine(name, value), nil
}

// ExportLine renders `export NAME='value'` with value single-quoted.
func ExportLine(name, value string) string {
	return "export " + name + "=" + internalexec.Quote(value)
}

func (p *Provider) path(item model.DesiredItem) string {
	return item.ParamOr("path", p.res.ProfilePath)
}

// Append adds line to the profile at path unless an identical line exists. It
// reports whether the file was modified. The line must be valid shell.
func Append(path, line, enc string) (bool, error) {
	line = normalizeLine(line)
	if line == "" {
		return false, fmt.Errorf("profile line is empty")
	}
	if strings.Contains(line, "\n") {
		return false, fmt.Errorf("profile line must be a single line")
	}
	if _, err := internalexec.ParseScript(line); err != nil {
		return false, fmt.Errorf("profile line is not valid shell: %w", err)
	}

	state, err := readFileState(path, enc)
	if err != nil {
		return false, err
	}
	if state.contains(line) {
		return false, nil
	}

	lines := append(append([]string{}, state.Lines...), line)
	data, err := encodeContent(joinLines(lines, true), enc)
	if err != nil {
		return false, err
	}
	if err := writeFileAtomic(state.Path, data, state.Permissions); err != nil {
		return false, fmt.Errorf("write profile %s: %w", state.Path, err)
	}
	return true, nil
}

func normalizeLine(line string) string {
	return strings.TrimRight(strings.TrimSpace(line), "\r")
}
