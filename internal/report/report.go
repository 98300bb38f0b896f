// Package report accumulates per-item outcomes of one reconciliation run and
// renders them for operators and machines.
package report

import (
	"errors"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/devsync/internal/model"
)

// ErrFinalized is returned when recording into a report that is read-only.
var ErrFinalized = errors.New("report is finalized")

// Entry pairs a desired item with the outcome recorded for it.
type Entry struct {
	Item    model.DesiredItem
	Outcome model.Outcome
}

// Summary holds the outcome counts of a run.
type Summary struct {
	Total            int `json:"total"`
	AlreadySatisfied int `json:"already_satisfied"`
	Installed        int `json:"installed"`
	Failed           int `json:"failed"`
	Skipped          int `json:"skipped"`
}

// Report is the ordered, append-only ledger of a run. It is safe to read from
// another goroutine while the reconciler records into it.
type Report struct {
	mu        sync.RWMutex
	runID     string
	started   time.Time
	finished  time.Time
	entries   []Entry
	finalized bool
	now       func() time.Time
}

// New creates an empty report for the run identified by runID.
func New(runID string) *Report {
	r := &Report{runID: runID, now: time.Now}
	r.started = r.now()
	return r
}

// RunID returns the identifier of the run.
func (r *Report) RunID() string {
	return r.runID
}

// Started returns when the report was created.
func (r *Report) Started() time.Time {
	return r.started
}

// Finished returns when the report was finalized, or the zero time.
func (r *Report) Finished() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finished
}

// Record appends the outcome for item. Earlier entries are never overwritten,
// even when the same item is recorded twice.
func (r *Report) Record(item model.DesiredItem, outcome model.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return ErrFinalized
	}
	if outcome.Timestamp().IsZero() {
		outcome = outcome.WithTiming(outcome.Duration(), r.now())
	}
	r.entries = append(r.entries, Entry{Item: item, Outcome: outcome})
	return nil
}

// Finalize makes the report read-only. Calling it again has no effect.
func (r *Report) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.finalized = true
	r.finished = r.now()
}

// IsFinalized reports whether Finalize has been called.
func (r *Report) IsFinalized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finalized
}

// Entries returns a copy of the recorded entries in record order.
func (r *Report) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of recorded entries.
func (r *Report) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Summary counts the recorded outcomes by status.
func (r *Report) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{Total: len(r.entries)}
	for _, e := range r.entries {
		switch e.Outcome.Status() {
		case model.StatusAlreadySatisfied:
			s.AlreadySatisfied++
		case model.StatusInstalled:
			s.Installed++
		case model.StatusFailed:
			s.Failed++
		case model.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// Failed returns the entries whose outcome is Failed, in record order.
func (r *Report) Failed() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if e.Outcome.Status() == model.StatusFailed {
			out = append(out, e)
		}
	}
	return out
}

// ExitStatus is 0 when nothing failed and 1 otherwise. Whether the process
// actually exits with it is the caller's policy.
func (r *Report) ExitStatus() int {
	if r.Summary().Failed > 0 {
		return 1
	}
	return 0
}
