// Package globalpkg installs globally available packages through npm and pipx.
package globalpkg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
	"github.com/alexisbeaulieu97/devsync/internal/providers/langver"
)

// Supported package managers, selected by the item's "manager" parameter.
const (
	ManagerNPM  = "npm"
	ManagerPipx = "pipx"
)

// Provider installs one global package.
type Provider struct {
	res provider.Resources
}

var _ provider.Provider = (*Provider)(nil)

// New creates a global package provider.
func New(res provider.Resources) *Provider {
	return &Provider{res: res.WithDefaults()}
}

// Identifier builds the unique item identifier for a package.
func Identifier(manager, pkg string) string {
	return manager + ":" + pkg
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategoryGlobalPackage
}

// IsSatisfied reports whether the package is already listed by its manager.
func (p *Provider) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	pkg := packageName(item)

	var (
		installed []string
		err       error
	)
	switch item.Param("manager") {
	case ManagerNPM:
		installed, err = p.npmList(ctx)
	case ManagerPipx:
		installed, err = p.pipxList(ctx)
	default:
		err = fmt.Errorf("unknown package manager %q", item.Param("manager"))
	}
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}

	for _, name := range installed {
		if strings.EqualFold(name, baseName(pkg)) {
			return true, nil
		}
	}
	return false, nil
}

// Install adds the package globally.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	pkg := packageName(item)

	var err error
	switch item.Param("manager") {
	case ManagerNPM:
		_, err = p.res.Runner.Run(ctx, "bash", "-c", langver.NVMPrelude+"npm install -g "+internalexec.Quote(pkg))
	case ManagerPipx:
		_, err = p.res.Runner.Run(ctx, "pipx", "install", pkg)
	default:
		err = fmt.Errorf("unknown package manager %q", item.Param("manager"))
	}
	if err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	return model.Installed(""), nil
}

func (p *Provider) npmList(ctx context.Context) ([]string, error) {
	res, err := p.res.Runner.Run(ctx, "bash", "-c", langver.NVMPrelude+"npm ls -g --depth=0 --parseable")
	if err != nil {
		return nil, err
	}

	lines := internalexec.Lines(res.Stdout)
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		dir := filepath.Dir(line)
		name := filepath.Base(line)
		if strings.HasPrefix(filepath.Base(dir), "@") {
			name = filepath.Base(dir) + "/" + name
		} else if filepath.Base(dir) != "node_modules" {
			// the first line is the global prefix itself
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (p *Provider) pipxList(ctx context.Context) ([]string, error) {
	res, err := p.res.Runner.Run(ctx, "pipx", "list", "--short")
	if err != nil {
		return nil, err
	}

	lines := internalexec.Lines(res.Stdout)
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names, nil
}

func packageName(item model.DesiredItem) string {
	if pkg := item.Param("package"); pkg != "" {
		return pkg
	}
	if _, pkg, ok := strings.Cut(item.Identifier, ":"); ok {
		return pkg
	}
	return item.Identifier
}

// baseName strips a version or extra spec: "typescript@5" -> "typescript",
// "@vue/cli@5" -> "@vue/cli", "black[jupyter]==24.1" -> "black".
func baseName(pkg string) string {
	pkg = strings.TrimSpace(pkg)
	if strings.HasPrefix(pkg, "@") {
		if i := strings.Index(pkg[1:], "@"); i >= 0 {
			return pkg[:i+1]
		}
		return pkg
	}
	if i := strings.IndexAny(pkg, "@[=<>~!"); i >= 0 {
		return pkg[:i]
	}
	return pkg
}
