// Package symlink links dotfiles listed under extras.dotfiles into place.
package symlink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/devsync/internal/config"
	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
)

// Provider manages symlink items. The identifier is the link path; params are
// "source" and optional "force", which replaces whatever is at the link path.
type Provider struct {
	res provider.Resources
}

var _ provider.Provider = (*Provider)(nil)

// New creates a symlink provider.
func New(res provider.Resources) *Provider {
	return &Provider{res: res.WithDefaults()}
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategorySymlink
}

type link struct {
	source string
	target string
	force  bool
}

func linkFor(item model.DesiredItem) (link, error) {
	l := link{
		source: config.ExpandHome(item.Param("source")),
		target: config.ExpandHome(item.Identifier),
		force:  item.ParamBool("force"),
	}
	if l.target == "" {
		return link{}, fmt.Errorf("link path is required")
	}
	if l.source == "" {
		return link{}, fmt.Errorf("source is required for %s", item.Identifier)
	}
	return l, nil
}

// IsSatisfied reports whether the link path is a symlink to source.
func (p *Provider) IsSatisfied(_ context.Context, item model.DesiredItem) (bool, error) {
	l, err := linkFor(item)
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}

	info, err := os.Lstat(l.target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, provider.NewProbeError(item.Key(), err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return false, nil
	}

	dest, err := os.Readlink(l.target)
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}
	return dest == l.source, nil
}

// Install creates the link. An existing file at the link path is only
// replaced when force is set.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	fail := func(err error) (model.Outcome, error) {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	l, err := linkFor(item)
	if err != nil {
		return fail(err)
	}
	if _, err := os.Stat(l.source); err != nil {
		return fail(fmt.Errorf("source %s: %w", l.source, err))
	}
	if err := os.MkdirAll(filepath.Dir(l.target), 0o755); err != nil {
		return fail(err)
	}

	if _, err := os.Lstat(l.target); err == nil {
		if !l.force {
			return fail(fmt.Errorf("%s already exists; set force to replace it", l.target))
		}
		if err := os.RemoveAll(l.target); err != nil {
			return fail(err)
		}
		p.res.ItemLogger(item).Debug("replaced existing file at link path")
	}

	if err := os.Symlink(l.source, l.target); err != nil {
		return fail(err)
	}
	return model.Installed(fmt.Sprintf("linked to %s", l.source)), nil
}
