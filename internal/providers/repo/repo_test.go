package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
)

func repoItem(url, dest string, params map[string]string) model.DesiredItem {
	all := map[string]string{"url": url}
	for k, v := range params {
		all[k] = v
	}
	return model.DesiredItem{Group: "extras", Category: model.CategoryGitRepo, Identifier: dest, Params: all}
}

func TestCloneThenSatisfied(t *testing.T) {
	t.Parallel()

	source := initGitRepo(t)
	dest := filepath.Join(t.TempDir(), "src", "clone")
	p := New(provider.Resources{})
	item := repoItem(source, dest, nil)

	ok, err := p.IsSatisfied(context.Background(), item)
	require.NoError(t, err)
	require.False(t, ok)

	outcome, err := p.Install(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, model.StatusInstalled, outcome.Status())

	contents, err := os.ReadFile(filepath.Join(dest, "README.md"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "hello repo")

	ok, err = p.IsSatisfied(context.Background(), item)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckoutRequestedBranchInExistingClone(t *testing.T) {
	t.Parallel()

	source := initGitRepo(t)
	src, err := git.PlainOpen(source)
	require.NoError(t, err)
	head, err := src.Head()
	require.NoError(t, err)
	require.NoError(t, src.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("develop"), head.Hash())))

	dest := filepath.Join(t.TempDir(), "clone")
	p := New(provider.Resources{})

	_, err = p.Install(context.Background(), repoItem(source, dest, nil))
	require.NoError(t, err)

	item := repoItem(source, dest, map[string]string{"branch": "develop"})
	ok, err := p.IsSatisfied(context.Background(), item)
	require.NoError(t, err)
	require.False(t, ok)

	outcome, err := p.Install(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, "checked out develop", outcome.Detail())

	ok, err = p.IsSatisfied(context.Background(), item)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestExistingNonRepositoryIsNotTouched(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	keep := filepath.Join(dest, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("important"), 0o644))

	p := New(provider.Resources{})
	item := repoItem("https://example.com/acme/tools.git", dest, nil)

	ok, err := p.IsSatisfied(context.Background(), item)
	require.NoError(t, err)
	require.False(t, ok)

	outcome, err := p.Install(context.Background(), item)
	require.ErrorIs(t, err, &provider.InstallError{})
	require.Contains(t, outcome.Detail(), "not a git repository")
	_, err = os.Stat(keep)
	require.NoError(t, err)
}

func TestDifferentRemoteIsReported(t *testing.T) {
	t.Parallel()

	source := initGitRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")
	p := New(provider.Resources{})
	_, err := p.Install(context.Background(), repoItem(source, dest, nil))
	require.NoError(t, err)

	other := repoItem("https://example.com/other.git", dest, nil)
	ok, err := p.IsSatisfied(context.Background(), other)
	require.NoError(t, err)
	require.False(t, ok)

	outcome, err := p.Install(context.Background(), other)
	require.Error(t, err)
	require.Contains(t, outcome.Detail(), "expected https://example.com/other.git")
}

func TestLoadRepoConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := loadRepoConfig(repoItem("", "/tmp/x", nil))
	require.Error(t, err)

	_, err = loadRepoConfig(repoItem("https://example.com/x.git", "/tmp/x", map[string]string{"depth": "-1"}))
	require.Error(t, err)

	cfg, err := loadRepoConfig(repoItem("https://example.com/x.git", "/tmp/x", map[string]string{"depth": "1", "branch": "main"}))
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Depth)
	require.Equal(t, "main", cfg.Branch)
}

func TestAuthUsesTokenForHTTPS(t *testing.T) {
	t.Parallel()

	p := New(provider.Resources{Getenv: func(name string) string {
		if name == "GITHUB_TOKEN" {
			return "ghp_example"
		}
		return ""
	}})

	item := repoItem("https://github.com/acme/private.git", "/tmp/x", map[string]string{"token_env": "GITHUB_TOKEN"})
	auth, ok := p.auth(item, item.Param("url")).(*githttp.BasicAuth)
	require.True(t, ok)
	require.Equal(t, "ghp_example", auth.Password)

	require.Nil(t, p.auth(item, "git@github.com:acme/private.git"))
	require.Nil(t, p.auth(repoItem("https://github.com/acme/x.git", "/tmp/x", nil), "https://github.com/acme/x.git"))
}

func initGitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello repo"), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "devsync",
			Email: "devsync@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}
