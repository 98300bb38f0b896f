package model

import "time"

// Status is the result class of attempting one DesiredItem.
type Status string

const (
	// StatusAlreadySatisfied means the probe found the item present; nothing ran.
	StatusAlreadySatisfied Status = "already_satisfied"
	// StatusInstalled means the provider's install action succeeded.
	StatusInstalled Status = "installed"
	// StatusFailed means the install action (or its timeout) failed.
	StatusFailed Status = "failed"
	// StatusSkipped means the item was intentionally not acted on (dry-run, cancellation).
	StatusSkipped Status = "skipped"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusAlreadySatisfied, StatusInstalled, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// Outcome is the immutable result of attempting one DesiredItem.
type Outcome struct {
	status    Status
	detail    string
	duration  time.Duration
	timestamp time.Time
}

// NewOutcome creates an Outcome with the given status and diagnostic detail.
func NewOutcome(status Status, detail string) Outcome {
	return Outcome{status: status, detail: detail}
}

// Installed is shorthand for a successful install outcome.
func Installed(detail string) Outcome {
	return NewOutcome(StatusInstalled, detail)
}

// Failed is shorthand for a failed outcome.
func Failed(detail string) Outcome {
	return NewOutcome(StatusFailed, detail)
}

// Status returns the outcome class.
func (o Outcome) Status() Status {
	return o.status
}

// Detail returns the free-text diagnostic.
func (o Outcome) Detail() string {
	return o.detail
}

// Duration returns how long the probe and install took.
func (o Outcome) Duration() time.Duration {
	return o.duration
}

// Timestamp returns when the outcome was produced.
func (o Outcome) Timestamp() time.Time {
	return o.timestamp
}

// WithTiming returns a copy stamped with the given duration and completion time.
func (o Outcome) WithTiming(d time.Duration, at time.Time) Outcome {
	o.duration = d
	o.timestamp = at
	return o
}
