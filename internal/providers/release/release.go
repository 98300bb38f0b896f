// Package release installs single binaries published as GitHub release assets.
package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/devsync/internal/config"
	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
)

// DefaultInstallDir receives binaries when the item names no "dir".
const DefaultInstallDir = "~/.local/bin"

// Provider manages release_binary items. The identifier is the binary name;
// params are "repo" (owner/name) and optional "tag", or a direct "url", plus
// optional "dir" and "token_env".
type Provider struct {
	res     provider.Resources
	client  *http.Client
	apiBase string
}

var _ provider.Provider = (*Provider)(nil)

// Option customises a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client used for the API and downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithAPIBase points release lookups at another GitHub-compatible endpoint.
func WithAPIBase(base string) Option {
	return func(p *Provider) { p.apiBase = strings.TrimRight(base, "/") }
}

// New creates a release binary provider.
func New(res provider.Resources, opts ...Option) *Provider {
	p := &Provider{
		res:     res.WithDefaults(),
		client:  &http.Client{Timeout: 5 * time.Minute},
		apiBase: DefaultAPIBase,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategoryReleaseBinary
}

// IsSatisfied reports whether an executable with the binary's name is already
// in the install directory.
func (p *Provider) IsSatisfied(_ context.Context, item model.DesiredItem) (bool, error) {
	info, err := os.Stat(p.target(item))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, provider.NewProbeError(item.Key(), err)
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0, nil
}

// Install downloads the asset, unpacks it when it is an archive and copies the
// binary into the install directory.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	detail, err := p.install(ctx, item)
	if err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}
	return model.Installed(detail), nil
}

func (p *Provider) install(ctx context.Context, item model.DesiredItem) (string, error) {
	name := strings.TrimSpace(item.Identifier)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid binary name %q", item.Identifier)
	}

	token := ""
	if env := item.Param("token_env"); env != "" {
		token = strings.TrimSpace(p.res.Getenv(env))
	}

	url, label := item.Param("url"), ""
	if url == "" {
		repo := item.Param("repo")
		if repo == "" {
			return "", fmt.Errorf("either url or repo is required")
		}
		a, tag, err := p.resolveAsset(ctx, repo, item.ParamOr("tag", "latest"), token)
		if err != nil {
			return "", err
		}
		url, label = a.URL, tag
	}

	work, err := os.MkdirTemp("", "devsync-release-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(work)

	download := filepath.Join(work, path.Base(strings.SplitN(url, "?", 2)[0]))
	if err := p.download(ctx, url, download); err != nil {
		return "", err
	}

	binary := download
	if isArchive(download) {
		unpacked := filepath.Join(work, "unpacked")
		if err := extractArchive(download, unpacked); err != nil {
			return "", fmt.Errorf("failed to extract archive: %w", err)
		}
		if binary, err = findExecutable(unpacked, name); err != nil {
			return "", err
		}
	}

	target := p.target(item)
	if err := installBinary(binary, target); err != nil {
		return "", err
	}

	if label != "" {
		return fmt.Sprintf("%s (%s)", target, label), nil
	}
	return target, nil
}

func (p *Provider) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: HTTP status %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("download %s: %w", url, err)
	}
	return out.Close()
}

func (p *Provider) target(item model.DesiredItem) string {
	dir := config.ExpandHome(item.ParamOr("dir", DefaultInstallDir))
	return filepath.Join(dir, strings.TrimSpace(item.Identifier))
}

// installBinary copies src to target with executable permissions, replacing any
// previous file atomically.
func installBinary(src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create install directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".devsync-bin-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o755); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
