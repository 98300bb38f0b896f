package provider

import (
	"context"
	"os"

	"github.com/alexisbeaulieu97/devsync/internal/logger"
	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
)

// Provider defines the contract every installer family must satisfy.
//
// Implementations should:
//   - Perform a strictly read-only probe in IsSatisfied
//   - Perform all mutation in Install
//   - Hold no per-run state; everything they need arrives through Resources
type Provider interface {
	// Category returns the DesiredItem category this provider handles.
	Category() string

	// IsSatisfied reports whether the item is already present on the machine.
	//
	// CRITICAL CONTRACT: this method MUST NOT mutate any system state and must
	// be safe to call repeatedly. A returned error is treated by the reconciler
	// as "not satisfied"; it never fails the run.
	IsSatisfied(ctx context.Context, item model.DesiredItem) (bool, error)

	// Install mutates the machine so the item becomes present. The underlying
	// tools are expected to be idempotent; providers add no locking.
	//
	// A returned error is recorded as a Failed outcome for this item only.
	Install(ctx context.Context, item model.DesiredItem) (model.Outcome, error)
}

// Previewer is implemented by providers that can describe the change Install
// would make without making it. Dry runs log the preview.
type Previewer interface {
	Preview(ctx context.Context, item model.DesiredItem) (string, error)
}

// Resources are the shared collaborators handed to every provider. They replace
// ambient globals such as the run log, the shell profile and the environment.
type Resources struct {
	Runner      internalexec.Runner
	Logger      *logger.Logger
	ProfilePath string

	// ProfileEncoding names the profile's character encoding; empty is UTF-8.
	ProfileEncoding string

	// Getenv resolves environment values, including those loaded from the
	// secrets file. Defaults to os.Getenv.
	Getenv func(string) string
}

// WithDefaults fills unset collaborators with process-backed implementations.
func (r Resources) WithDefaults() Resources {
	if r.Runner == nil {
		r.Runner = &internalexec.Command{}
	}
	if r.Getenv == nil {
		r.Getenv = os.Getenv
	}
	return r
}

// ItemLogger returns a logger carrying the item's identifying fields.
func (r Resources) ItemLogger(item model.DesiredItem) *logger.Logger {
	return r.Logger.WithFields(map[string]any{
		"category":   item.Category,
		"identifier": item.Identifier,
	})
}
