package brew

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
)

// Cask installs Homebrew casks.
type Cask struct {
	res provider.Resources
}

var _ provider.Provider = (*Cask)(nil)

// NewCask creates a cask provider.
func NewCask(res provider.Resources) *Cask {
	return &Cask{res: newResources(res)}
}

// Category implements provider.Provider.
func (c *Cask) Category() string {
	return model.CategoryCask
}

// IsSatisfied reports whether the cask appears in `brew list --cask`.
func (c *Cask) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	installed, err := listInstalled(ctx, c.res.Runner, "cask")
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}
	return installed[shortName(item.Identifier)], nil
}

// Install runs `brew install --cask <cask>`.
func (c *Cask) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	if err := installCask(ctx, c.res, item.Identifier, item.Param("flags")); err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	return model.Installed(""), nil
}

// CaskAny installs the first cask of an ordered fallback set. Applications
// that have been published under several cask names are configured this way.
type CaskAny struct {
	res provider.Resources
}

var _ provider.Provider = (*CaskAny)(nil)

// NewCaskAny creates a cask fallback provider.
func NewCaskAny(res provider.Resources) *CaskAny {
	return &CaskAny{res: newResources(res)}
}

// Category implements provider.Provider.
func (c *CaskAny) Category() string {
	return model.CategoryCaskAny
}

// IsSatisfied reports whether any alternative is already installed.
func (c *CaskAny) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	installed, err := listInstalled(ctx, c.res.Runner, "cask")
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}
	for _, alt := range alternatives(item) {
		if installed[shortName(alt)] {
			return true, nil
		}
	}
	return false, nil
}

// Install tries each alternative in order and stops at the first success. The
// outcome detail names the alternative that was installed.
func (c *CaskAny) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	alts := alternatives(item)
	log := c.res.ItemLogger(item)

	failures := make([]string, 0, len(alts))
	for _, alt := range alts {
		if err := ctx.Err(); err != nil {
			return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
		}

		err := installCask(ctx, c.res, alt, item.Param("flags"))
		if err == nil {
			return model.Installed(alt), nil
		}

		log.WithFields(map[string]any{"alternative": alt}).Warn(fmt.Sprintf("alternative failed: %v", err))
		failures = append(failures, fmt.Sprintf("%s: %v", alt, err))
	}

	err := fmt.Errorf("all alternatives failed: %s", strings.Join(failures, "; "))
	return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
}

func alternatives(item model.DesiredItem) []string {
	if len(item.Alternatives) > 0 {
		return item.Alternatives
	}
	return []string{item.Identifier}
}

func installCask(ctx context.Context, res provider.Resources, cask, flags string) error {
	args := append([]string{"install", "--cask"}, installFlags(flags)...)
	args = append(args, cask)
	_, err := res.Runner.Run(ctx, binary, args...)
	return err
}
