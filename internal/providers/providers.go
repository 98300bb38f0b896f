// Package providers assembles the built-in provider set.
package providers

import (
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/providers/brew"
	"github.com/alexisbeaulieu97/devsync/internal/providers/globalpkg"
	"github.com/alexisbeaulieu97/devsync/internal/providers/langver"
	"github.com/alexisbeaulieu97/devsync/internal/providers/mas"
	"github.com/alexisbeaulieu97/devsync/internal/providers/profile"
	"github.com/alexisbeaulieu97/devsync/internal/providers/release"
	"github.com/alexisbeaulieu97/devsync/internal/providers/repo"
	"github.com/alexisbeaulieu97/devsync/internal/providers/shellstep"
	"github.com/alexisbeaulieu97/devsync/internal/providers/symlink"
)

// NewRegistry returns a registry holding one provider per built-in category,
// all sharing res.
func NewRegistry(res provider.Resources, releaseOpts ...release.Option) *provider.Registry {
	return provider.NewRegistry().MustRegister(
		brew.NewFormula(res),
		brew.NewCask(res),
		brew.NewCaskAny(res),
		brew.NewTap(res),
		mas.New(res),
		langver.New(res),
		globalpkg.New(res),
		shellstep.New(res),
		profile.New(res),
		repo.New(res),
		release.New(res, releaseOpts...),
		symlink.New(res),
	)
}
