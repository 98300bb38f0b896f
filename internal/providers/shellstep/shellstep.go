// Package shellstep runs operator-defined check/run script pairs.
package shellstep

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
)

// Provider runs a custom step. The "check" script decides satisfaction (exit 0
// means satisfied); the "run" script performs the change. A step without a
// check always runs, so its run script must itself be idempotent.
type Provider struct {
	res provider.Resources
}

var _ provider.Provider = (*Provider)(nil)

// New creates a custom shell step provider.
func New(res provider.Resources) *Provider {
	return &Provider{res: res.WithDefaults()}
}

// Category implements provider.Provider.
func (p *Provider) Category() string {
	return model.CategoryShellStep
}

// Validate checks that both scripts parse. It lets invalid steps fail before
// anything on the machine is touched.
func Validate(item model.DesiredItem) error {
	if strings.TrimSpace(item.Param("run")) == "" {
		return fmt.Errorf("step %q has no run script", item.Identifier)
	}
	for _, key := range []string{"check", "run"} {
		script := item.Param(key)
		if strings.TrimSpace(script) == "" {
			continue
		}
		if _, err := internalexec.ParseScript(script); err != nil {
			return fmt.Errorf("%s script: %w", key, err)
		}
	}
	return nil
}

// IsSatisfied runs the check script. A non-zero exit means "not satisfied";
// only a script that cannot be run at all is a probe error.
func (p *Provider) IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error) {
	if err := Validate(item); err != nil {
		return false, provider.NewProbeError(item.Key(), err)
	}

	check := item.Param("check")
	if strings.TrimSpace(check) == "" {
		return false, nil
	}

	_, err := p.res.Runner.RunScript(ctx, check)
	switch {
	case err == nil:
		return true, nil
	case internalexec.IsExit(err):
		return false, nil
	default:
		return false, provider.NewProbeError(item.Key(), err)
	}
}

// Install runs the run script.
func (p *Provider) Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error) {
	if err := Validate(item); err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}

	res, err := p.res.Runner.RunScript(ctx, item.Param("run"))
	if err != nil {
		return model.Failed(err.Error()), provider.NewInstallError(item.Key(), err)
	}

	lines := internalexec.Lines(res.Stdout)
	if len(lines) == 0 {
		return model.Installed(""), nil
	}
	return model.Installed(lines[len(lines)-1]), nil
}
