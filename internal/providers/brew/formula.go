package brew

import (
	"context"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
)

// Formula installs Homebrew formulae.
type Formula struct {
	res provider.Resources
}

var _ provider.Provider = (*Formula)(nil)

// NewFormula creates a formula provider.
func NewFormula(res provider.Resources) *Formula {
	return &Formula{res: newResources(res)}
}

// Category implements provider.Provider.
func (f *Formula) Category() string {
	return model.CategoryFormula
}

// IsSatisfied reports whether the formula appears in `brew list --formula`.
func (f *Formula) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	installed, err := listInstalled(ctx, f.res.Runner, "formula")
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}
	return installed[item.Identifier] || installed[shortName(item.Identifier)], nil
}

// Install runs `brew install <formula>`.
func (f *Formula) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	args := append([]string{"install"}, installFlags(item.Param("flags"))...)
	args = append(args, item.Identifier)

	if _, err := f.res.Runner.Run(ctx, binary, args...); err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	return model.Installed(""), nil
}
