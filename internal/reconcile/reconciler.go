package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/devsync/internal/logger"
	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/report"
)

// Detail texts of outcomes the reconciler produces itself.
const (
	DetailWouldInstall = "would install"
	DetailCancelled    = "cancelled"
	DetailTimedOut     = "timed out"
)

// EventKind distinguishes observer notifications.
type EventKind int

const (
	// EventStarted is sent before an item is probed.
	EventStarted EventKind = iota
	// EventFinished is sent after the item's outcome is recorded.
	EventFinished
)

// Event describes progress on one planned item.
type Event struct {
	Kind    EventKind
	Index   int
	Total   int
	Item    model.DesiredItem
	Outcome model.Outcome
}

// Observer receives progress events. It is called synchronously from Apply.
type Observer func(Event)

// Options configures a Reconciler.
type Options struct {
	Logger *logger.Logger

	// RunID identifies the run in the report.
	RunID string

	// DryRun probes every item but never installs.
	DryRun bool

	// ItemTimeout bounds the probe and install of one item. Zero is unbounded.
	ItemTimeout time.Duration

	Observer Observer
}

// Reconciler drives planned items through their providers.
type Reconciler struct {
	registry *provider.Registry
	opts     Options
	log      *logger.Logger
	now      func() time.Time
}

// New creates a Reconciler dispatching through registry.
func New(registry *provider.Registry, opts Options) *Reconciler {
	if registry == nil {
		registry = provider.NewRegistry()
	}
	log := opts.Logger
	if opts.RunID != "" {
		log = log.WithFields(map[string]any{"run_id": opts.RunID})
	}
	return &Reconciler{registry: registry, opts: opts, log: log, now: time.Now}
}

// Apply processes items strictly in order, one at a time, and returns the
// finalized report. A failing item never stops the run. Once ctx is done the
// remaining items are recorded as skipped.
func (r *Reconciler) Apply(ctx context.Context, items []model.DesiredItem) *report.Report {
	if ctx == nil {
		ctx = context.Background()
	}

	rep := report.New(r.opts.RunID)
	total := len(items)
	r.log.Info(fmt.Sprintf("reconciling %d items", total))

	for i, item := range items {
		r.notify(Event{Kind: EventStarted, Index: i, Total: total, Item: item})

		var outcome model.Outcome
		if ctx.Err() != nil {
			outcome = model.NewOutcome(model.StatusSkipped, DetailCancelled).WithTiming(0, r.now())
		} else {
			outcome = r.applyItem(ctx, item)
		}

		// Record cannot fail: the report is finalized only below.
		_ = rep.Record(item, outcome)
		r.logOutcome(item, outcome)
		r.notify(Event{Kind: EventFinished, Index: i, Total: total, Item: item, Outcome: outcome})
	}

	rep.Finalize()
	s := rep.Summary()
	r.log.Info(fmt.Sprintf("reconciliation finished: %d installed, %d already satisfied, %d failed, %d skipped",
		s.Installed, s.AlreadySatisfied, s.Failed, s.Skipped))
	return rep
}

func (r *Reconciler) applyItem(ctx context.Context, item model.DesiredItem) model.Outcome {
	start := r.now()
	finish := func(o model.Outcome) model.Outcome {
		return o.WithTiming(r.now().Sub(start), r.now())
	}

	p, err := r.registry.Get(item.Category)
	if err != nil {
		return finish(model.Failed(fmt.Sprintf("no provider for category %q", item.Category)))
	}

	itemCtx := ctx
	if r.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, r.opts.ItemTimeout)
		defer cancel()
	}
	log := provider.Resources{Logger: r.log}.ItemLogger(item)

	satisfied, err := probe(itemCtx, p, item)
	if err != nil {
		if o, interrupted := interruption(ctx, itemCtx); interrupted {
			return finish(o)
		}
		log.WithFields(map[string]any{"error": err.Error()}).Warn("probe failed; treating item as not satisfied")
		satisfied = false
	}
	if satisfied {
		return finish(model.NewOutcome(model.StatusAlreadySatisfied, ""))
	}
	if r.opts.DryRun {
		if pv, ok := p.(provider.Previewer); ok {
			if text, err := preview(itemCtx, pv, item); err != nil {
				log.WithFields(map[string]any{"error": err.Error()}).Debug("preview unavailable")
			} else if text != "" {
				log.Info(item.Name() + " would change:\n" + strings.TrimRight(text, "\n"))
			}
		}
		return finish(model.NewOutcome(model.StatusSkipped, DetailWouldInstall))
	}

	outcome, err := install(itemCtx, p, item)
	if o, interrupted := interruption(ctx, itemCtx); interrupted && (err != nil || outcome.Status() == model.StatusFailed) {
		if o.Status() == model.StatusSkipped {
			// The install had started, so the item did not reach its state.
			o = model.Failed(DetailCancelled)
		}
		return finish(o)
	}
	if err != nil {
		detail := outcome.Detail()
		if detail == "" {
			detail = provider.Cause(err)
		}
		return finish(model.Failed(detail))
	}
	if !outcome.Status().IsValid() {
		outcome = model.Installed(outcome.Detail())
	}
	return finish(outcome)
}

// interruption maps a done context to the outcome it implies: the item's own
// deadline is a failure, cancellation of the run is a skip.
func interruption(runCtx, itemCtx context.Context) (model.Outcome, bool) {
	switch {
	case runCtx.Err() != nil:
		return model.NewOutcome(model.StatusSkipped, DetailCancelled), true
	case errors.Is(itemCtx.Err(), context.DeadlineExceeded):
		return model.Failed(DetailTimedOut), true
	}
	return model.Outcome{}, false
}

// probe and install convert provider panics into errors so one broken
// provider cannot end the run.
func probe(ctx context.Context, p provider.Provider, item model.DesiredItem) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok, err = false, provider.NewProbeError(item.Key(), fmt.Errorf("provider panic: %v", rec))
		}
	}()
	return p.IsSatisfied(ctx, item)
}

func preview(ctx context.Context, p provider.Previewer, item model.DesiredItem) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("provider panic: %v", rec)
		}
	}()
	return p.Preview(ctx, item)
}

func install(ctx context.Context, p provider.Provider, item model.DesiredItem) (outcome model.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = provider.NewInstallError(item.Key(), fmt.Errorf("provider panic: %v", rec))
			outcome = model.Failed(err.Error())
		}
	}()
	return p.Install(ctx, item)
}

func (r *Reconciler) logOutcome(item model.DesiredItem, outcome model.Outcome) {
	log := r.log.WithFields(map[string]any{
		"group":      item.Group,
		"category":   item.Category,
		"identifier": item.Identifier,
		"status":     string(outcome.Status()),
	})
	if d := outcome.Detail(); d != "" {
		log = log.WithFields(map[string]any{"detail": d})
	}
	if outcome.Status() == model.StatusFailed {
		log.Warn(item.Name() + " failed")
		return
	}
	log.Info(item.Name())
}

func (r *Reconciler) notify(ev Event) {
	if r.opts.Observer != nil {
		r.opts.Observer(ev)
	}
}
