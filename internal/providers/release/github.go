package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// DefaultAPIBase is the GitHub REST endpoint used to resolve release assets.
const DefaultAPIBase = "https://api.github.com"

type githubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

type asset struct {
	Name string
	URL  string
}

// platformPatterns lists asset name fragments for the running platform, most
// specific first.
func platformPatterns(goos, goarch string) ([]string, []string) {
	osNames := []string{goos}
	if goos == "darwin" {
		osNames = append(osNames, "macos", "apple-darwin", "osx", "mac")
	}

	archNames := []string{goarch}
	switch goarch {
	case "amd64":
		archNames = append(archNames, "x86_64", "x64", "64bit")
	case "arm64":
		archNames = append(archNames, "aarch64", "armv8")
	}
	return osNames, archNames
}

// pickAsset chooses the release asset for goos/goarch. Assets that name both the
// OS and the architecture win; an OS-only match (universal binaries) is the
// fallback.
func pickAsset(rel githubRelease, goos, goarch string) (asset, bool) {
	osNames, archNames := platformPatterns(goos, goarch)

	matches := func(name string, patterns []string) bool {
		for _, p := range patterns {
			if strings.Contains(name, p) {
				return true
			}
		}
		return false
	}

	var fallback *asset
	for _, a := range rel.Assets {
		lower := strings.ToLower(a.Name)
		if strings.HasSuffix(lower, ".sha256") || strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".sig") {
			continue
		}
		if !matches(lower, osNames) {
			continue
		}
		if matches(lower, archNames) {
			return asset{Name: a.Name, URL: a.BrowserDownloadURL}, true
		}
		if fallback == nil && strings.Contains(lower, "universal") {
			fallback = &asset{Name: a.Name, URL: a.BrowserDownloadURL}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return asset{}, false
}

// resolveAsset looks up the release for repo at tag ("" or "latest" for the
// newest release) and picks the asset for the running platform.
func (p *Provider) resolveAsset(ctx context.Context, repo, tag, token string) (asset, string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", p.apiBase, repo, tag)
	if tag == "" || tag == "latest" {
		url = fmt.Sprintf("%s/repos/%s/releases/latest", p.apiBase, repo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return asset{}, "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return asset{}, "", fmt.Errorf("fetch release %s@%s: %w", repo, tag, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return asset{}, "", fmt.Errorf("fetch release %s@%s: HTTP status %d", repo, tag, resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return asset{}, "", fmt.Errorf("decode release %s@%s: %w", repo, tag, err)
	}

	a, ok := pickAsset(rel, runtime.GOOS, runtime.GOARCH)
	if !ok {
		return asset{}, "", fmt.Errorf("no asset for %s/%s in release %s of %s", runtime.GOOS, runtime.GOARCH, rel.TagName, repo)
	}
	return a, rel.TagName, nil
}
