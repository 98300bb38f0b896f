// Package langver installs language runtimes through version managers (nvm for
// Node, pyenv for Python).
package langver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
)

// Supported version managers, selected by the item's "manager" parameter.
const (
	ManagerNVM   = "nvm"
	ManagerPyenv = "pyenv"
)

// NVMPrelude loads nvm, which is a shell function rather than a binary. Any
// script that needs node or npm from an nvm-managed install starts with it.
const NVMPrelude = `export NVM_DIR="${NVM_DIR:-$HOME/.nvm}"; mkdir -p "$NVM_DIR"; . "$(brew --prefix nvm)/nvm.sh"; `

// Provider installs one runtime version. Items carry "manager", "version" and,
// optionally, "default" = "true" to make the version the manager's default.
type Provider struct {
	res provider.Resources
}

var _ provider.Provider = (*Provider)(nil)

// New creates a language version provider.
func New(res provider.Resources) *Provider {
	return &Provider{res: res.WithDefaults()}
}

// Identifier builds the unique item identifier for a runtime version.
func Identifier(language, version string) string {
	return language + "@" + version
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategoryLanguageVersion
}

// IsSatisfied reports whether the version is installed and, when requested,
// already the default.
func (p *Provider) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	version := item.Param("version")
	if version == "" {
		return false, provider.NewProbeError(item.Key(), fmt.Errorf("version parameter is required"))
	}

	var (
		ok  bool
		err error
	)
	switch item.Param("manager") {
	case ManagerNVM:
		ok, err = p.nvmSatisfied(ctx, version, item.ParamBool("default"))
	case ManagerPyenv:
		ok, err = p.pyenvSatisfied(ctx, version, item.ParamBool("default"))
	default:
		err = fmt.Errorf("unknown version manager %q", item.Param("manager"))
	}
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}
	return ok, nil
}

// Install installs the version and sets it as default when requested.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	version := item.Param("version")

	var (
		detail string
		err    error
	)
	switch {
	case version == "":
		err = fmt.Errorf("version parameter is required")
	case item.Param("manager") == ManagerNVM:
		detail, err = p.nvmInstall(ctx, version, item.ParamBool("default"))
	case item.Param("manager") == ManagerPyenv:
		detail, err = p.pyenvInstall(ctx, version, item.ParamBool("default"))
	default:
		err = fmt.Errorf("unknown version manager %q", item.Param("manager"))
	}
	if err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	return model.Installed(detail), nil
}

func (p *Provider) nvm(ctx context.Context, command string) (internalexec.Result, error) {
	return p.res.Runner.Run(ctx, "bash", "-c", NVMPrelude+command)
}

// nvmResolve returns the installed version nvm resolves alias to, or "" when
// nothing matches. nvm exits non-zero with "N/A" for unknown versions.
func (p *Provider) nvmResolve(ctx context.Context, alias string) (string, error) {
	res, err := p.nvm(ctx, "nvm version "+internalexec.Quote(alias))
	out := strings.TrimSpace(res.Stdout)
	if strings.HasPrefix(out, "v") {
		return out, nil
	}
	if err != nil && !internalexec.IsExit(err) {
		return "", err
	}
	return "", nil
}

func (p *Provider) nvmSatisfied(ctx context.Context, version string, asDefault bool) (bool, error) {
	resolved, err := p.nvmResolve(ctx, version)
	if err != nil || resolved == "" {
		return false, err
	}
	if !asDefault {
		return true, nil
	}
	current, err := p.nvmResolve(ctx, "default")
	if err != nil {
		return false, err
	}
	return current == resolved, nil
}

func (p *Provider) nvmInstall(ctx context.Context, version string, asDefault bool) (string, error) {
	if _, err := p.nvm(ctx, "nvm install "+internalexec.Quote(version)); err != nil {
		return "", err
	}
	if asDefault {
		if _, err := p.nvm(ctx, "nvm alias default "+internalexec.Quote(version)); err != nil {
			return "", fmt.Errorf("set default: %w", err)
		}
	}
	resolved, err := p.nvmResolve(ctx, version)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func (p *Provider) pyenvVersions(ctx context.Context) ([]string, error) {
	res, err := p.res.Runner.Run(ctx, "pyenv", "versions", "--bare")
	if err != nil {
		return nil, err
	}
	return internalexec.Lines(res.Stdout), nil
}

func (p *Provider) pyenvSatisfied(ctx context.Context, version string, asGlobal bool) (bool, error) {
	versions, err := p.pyenvVersions(ctx)
	if err != nil {
		return false, err
	}
	resolved := matchVersion(versions, version)
	if resolved == "" {
		return false, nil
	}
	if !asGlobal {
		return true, nil
	}
	res, err := p.res.Runner.Run(ctx, "pyenv", "global")
	if err != nil {
		return false, err
	}
	globals := internalexec.Lines(res.Stdout)
	return len(globals) > 0 && globals[0] == resolved, nil
}

func (p *Provider) pyenvInstall(ctx context.Context, version string, asGlobal bool) (string, error) {
	if _, err := p.res.Runner.Run(ctx, "pyenv", "install", "--skip-existing", version); err != nil {
		return "", err
	}

	versions, err := p.pyenvVersions(ctx)
	if err != nil {
		return "", err
	}
	resolved := matchVersion(versions, version)
	if resolved == "" {
		return "", fmt.Errorf("pyenv did not report %s after install", version)
	}

	if asGlobal {
		if _, err := p.res.Runner.Run(ctx, "pyenv", "global", resolved); err != nil {
			return "", fmt.Errorf("set global: %w", err)
		}
	}
	return resolved, nil
}

// matchVersion returns the newest installed version equal to want or starting
// with want followed by a dot ("3.12" matches "3.12.4").
func matchVersion(installed []string, want string) string {
	want = strings.TrimSpace(want)
	var matches []string
	for _, v := range installed {
		if v == want || strings.HasPrefix(v, want+".") {
			matches = append(matches, v)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.Slice(matches, func(i, j int) bool {
		return compareVersions(matches[i], matches[j]) < 0
	})
	return matches[len(matches)-1]
}

func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			_, _ = fmt.Sscanf(as[i], "%d", &x)
		}
		if i < len(bs) {
			_, _ = fmt.Sscanf(bs[i], "%d", &y)
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}
