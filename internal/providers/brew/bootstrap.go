package brew

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/devsync/internal/provider"
	devsyncerrors "github.com/alexisbeaulieu97/devsync/pkg/errors"
)

// InstallScript is the official non-interactive Homebrew installer.
const InstallScript = `NONINTERACTIVE=1 /bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"`

const installHint = "install Homebrew from https://brew.sh or enable system.homebrew"

// Bootstrap makes sure the brew binary is available before any provider runs.
// When it is missing and install is true the official installer is run once.
// Failure is fatal for the whole run and reported as a DependencyMissingError.
func Bootstrap(ctx context.Context, res provider.Resources, install bool) error {
	res = res.WithDefaults()

	_, err := res.Runner.LookPath(binary)
	if err == nil {
		return nil
	}
	if !install {
		return devsyncerrors.NewDependencyMissingError(binary, installHint, err)
	}

	res.Logger.Info("Homebrew not found; running installer")
	if _, err := res.Runner.RunScript(ctx, InstallScript); err != nil {
		return devsyncerrors.NewDependencyMissingError(binary, installHint, fmt.Errorf("installer failed: %w", err))
	}

	if _, err := res.Runner.LookPath(binary); err != nil {
		return devsyncerrors.NewDependencyMissingError(binary,
			"add Homebrew to PATH (eval \"$(/opt/homebrew/bin/brew shellenv)\") and re-run", err)
	}
	return nil
}
