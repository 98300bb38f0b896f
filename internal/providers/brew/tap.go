package brew

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
)

// Tap adds third-party Homebrew repositories.
type Tap struct {
	res provider.Resources
}

var _ provider.Provider = (*Tap)(nil)

// NewTap creates a tap provider.
func NewTap(res provider.Resources) *Tap {
	return &Tap{res: newResources(res)}
}

// Category implements provider.Provider.
func (t *Tap) Category() string {
	return model.CategoryTap
}

// IsSatisfied reports whether the tap is listed by `brew tap`.
func (t *Tap) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	res, err := t.res.Runner.Run(ctx, binary, "tap")
	if err != nil {
		return false, provider.NewProbeError(item.Key(), fmt.Errorf("list taps: %w", err))
	}
	want := strings.ToLower(item.Identifier)
	for _, line := range internalexec.Lines(res.Stdout) {
		if strings.ToLower(line) == want {
			return true, nil
		}
	}
	return false, nil
}

// Install runs `brew tap <name> [url]`.
func (t *Tap) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	args := []string{"tap", item.Identifier}
	if url := item.Param("url"); url != "" {
		args = append(args, url)
	}
	if _, err := t.res.Runner.Run(ctx, binary, args...); err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	return model.Installed(""), nil
}
