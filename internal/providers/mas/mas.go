// Package mas installs Mac App Store applications through the mas CLI.
package mas

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
)

const binary = "mas"

// Provider installs App Store apps by numeric store id.
type Provider struct {
	res provider.Resources
}

var _ provider.Provider = (*Provider)(nil)

// New creates an App Store provider.
func New(res provider.Resources) *Provider {
	return &Provider{res: res.WithDefaults()}
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategoryAppStoreApp
}

// IsSatisfied reports whether the store id appears in `mas list`.
func (p *Provider) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	if _, err := storeID(item); err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}

	res, err := p.res.Runner.Run(ctx, binary, "list")
	if err != nil {
		return false, provider.NewProbeError(item.Key(), fmt.Errorf("list apps: %w", err))
	}

	for _, line := range internalexec.Lines(res.Stdout) {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == item.Identifier {
			return true, nil
		}
	}
	return false, nil
}

// Install runs `mas install <id>`. The operator must already be signed in to
// the App Store; mas cannot sign in non-interactively.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	if _, err := storeID(item); err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}

	if _, err := p.res.Runner.Run(ctx, binary, "install", item.Identifier); err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	return model.Installed(item.Name()), nil
}

func storeID(item model.DesiredItem) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(item.Identifier), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("app store id %q is not a positive number", item.Identifier)
	}
	return id, nil
}
