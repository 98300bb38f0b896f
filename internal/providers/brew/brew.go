// Package brew implements the Homebrew-backed providers: formulae, casks,
// cask fallback sets and taps, plus the bootstrap check every other provider
// relies on.
package brew

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
)

const binary = "brew"

// listInstalled returns the short names reported by `brew list --<kind> -1`.
func listInstalled(ctx context.Context, runner internalexec.Runner, kind string) (map[string]bool, error) {
	res, err := runner.Run(ctx, binary, "list", "--"+kind, "-1")
	if err != nil {
		return nil, fmt.Errorf("list installed %ss: %w", kind, err)
	}

	installed := make(map[string]bool)
	for _, line := range internalexec.Lines(res.Stdout) {
		installed[line] = true
		installed[shortName(line)] = true
	}
	return installed, nil
}

// shortName strips a tap prefix: "hashicorp/tap/terraform" -> "terraform".
func shortName(name string) string {
	return path.Base(strings.TrimSpace(name))
}

// installFlags splits the optional "flags" parameter into arguments.
func installFlags(raw string) []string {
	return strings.Fields(raw)
}

func newResources(res provider.Resources) provider.Resources {
	return res.WithDefaults()
}
