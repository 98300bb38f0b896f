// Package repo clones git repositories listed under extras.repos.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/alexisbeaulieu97/devsync/internal/config"
	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
)

// Provider manages git_repo items. The identifier is the destination path;
// params are "url", optional "branch", "depth" and "token_env".
type Provider struct {
	res provider.Resources
}

var _ provider.Provider = (*Provider)(nil)

// New creates a git repository provider.
func New(res provider.Resources) *Provider {
	return &Provider{res: res.WithDefaults()}
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategoryGitRepo
}

type repoConfig struct {
	URL         string
	Destination string
	Branch      string
	Depth       int
}

type repoState struct {
	Exists    bool
	IsGitRepo bool
	ActualURL string
	Head      string
	repo      *git.Repository
}

// IsSatisfied reports whether the destination is a clone of url on the
// requested branch.
func (p *Provider) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	cfg, err := loadRepoConfig(item)
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}

	state, err := inspect(cfg.Destination)
	if err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}

	if !state.Exists || !state.IsGitRepo {
		return false, nil
	}
	if state.ActualURL != "" && state.ActualURL != cfg.URL {
		return false, nil
	}
	if cfg.Branch != "" && state.Head != cfg.Branch {
		return false, nil
	}
	return true, nil
}

// Install clones the repository, or checks out the requested branch in an
// existing clone. A destination holding anything other than a clone of url is
// left untouched and reported as a failure.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	fail := func(err error) (model.Outcome, error) {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}

	cfg, err := loadRepoConfig(item)
	if err != nil {
		return fail(err)
	}

	state, err := inspect(cfg.Destination)
	if err != nil {
		return fail(err)
	}

	switch {
	case state.Exists && !state.IsGitRepo:
		return fail(fmt.Errorf("destination %s exists and is not a git repository", cfg.Destination))
	case state.IsGitRepo && state.ActualURL != "" && state.ActualURL != cfg.URL:
		return fail(fmt.Errorf("destination %s tracks %s (expected %s)", cfg.Destination, state.ActualURL, cfg.URL))
	case state.IsGitRepo:
		if err := checkoutBranch(ctx, state.repo, cfg.Branch, p.auth(item, cfg.URL)); err != nil {
			return fail(err)
		}
		return model.Installed("checked out " + cfg.Branch), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Destination), 0o755); err != nil {
		return fail(fmt.Errorf("failed to create destination directory: %w", err))
	}

	opts := &git.CloneOptions{URL: cfg.URL, Auth: p.auth(item, cfg.URL)}
	if cfg.Depth > 0 {
		opts.Depth = cfg.Depth
	}
	if cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, cfg.Destination, false, opts); err != nil {
		_ = os.RemoveAll(cfg.Destination)
		return fail(fmt.Errorf("failed to clone repository: %w", err))
	}
	return model.Installed("cloned " + cfg.URL), nil
}

// auth uses a token from the environment for https remotes. The variable name
// comes from the item, so private GitHub repositories work with the same token
// the GitHub CLI is authenticated with.
func (p *Provider) auth(item model.DesiredItem, url string) transport.AuthMethod {
	name := item.Param("token_env")
	if name == "" || !strings.HasPrefix(url, "https://") {
		return nil
	}
	token := strings.TrimSpace(p.res.Getenv(name))
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: token}
}

func inspect(dest string) (*repoState, error) {
	state := &repoState{}

	info, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, fmt.Errorf("cannot access destination: %w", err)
	}
	state.Exists = true
	if !info.IsDir() {
		return state, nil
	}

	repo, err := git.PlainOpen(dest)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return state, nil
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	state.IsGitRepo = true
	state.repo = repo

	if head, err := repo.Head(); err == nil {
		state.Head = head.Name().Short()
	}
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		state.ActualURL = remote.Config().URLs[0]
	}
	return state, nil
}

func checkoutBranch(ctx context.Context, repo *git.Repository, branch string, auth transport.AuthMethod) error {
	if branch == "" {
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	local := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(local, true); err == nil {
		return wt.Checkout(&git.CheckoutOptions{Branch: local})
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin", Auth: auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch origin: %w", err)
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("branch %s not found on origin: %w", branch, err)
	}
	return wt.Checkout(&git.CheckoutOptions{Branch: local, Hash: remoteRef.Hash(), Create: true})
}

func loadRepoConfig(item model.DesiredItem) (*repoConfig, error) {
	cfg := &repoConfig{
		URL:         strings.TrimSpace(item.Param("url")),
		Destination: strings.TrimSpace(item.Identifier),
		Branch:      strings.TrimSpace(item.Param("branch")),
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("repository url is required")
	}
	if cfg.Destination == "" {
		return nil, fmt.Errorf("repository destination is required")
	}
	cfg.Destination = config.ExpandHome(cfg.Destination)

	if raw := strings.TrimSpace(item.Param("depth")); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil || depth < 0 {
			return nil, fmt.Errorf("invalid depth %q: must be a non-negative integer", raw)
		}
		cfg.Depth = depth
	}
	return cfg, nil
}
