package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering summaries.
type SummaryData struct {
	Total            int
	Completed        int
	Installed        int
	AlreadySatisfied int
	Failed           int
	Skipped          int
	FailedNames      []string
	Finished         bool
	Cancelled        bool
	DryRun           bool
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Items: %d/%d processed", s.data.Completed, s.data.Total))
	}
	if s.data.Completed > 0 {
		lines = append(lines, fmt.Sprintf("%d installed, %d already satisfied, %d failed, %d skipped",
			s.data.Installed, s.data.AlreadySatisfied, s.data.Failed, s.data.Skipped))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Run cancelled")
	case s.data.Finished && s.data.DryRun:
		lines = append(lines, "Dry run finished; nothing was installed")
	case s.data.Finished && s.data.Failed == 0:
		lines = append(lines, "Run finished successfully")
	case s.data.Finished:
		lines = append(lines, "Run finished with failures")
	}

	if len(s.data.FailedNames) > 0 {
		lines = append(lines, "Failed:")
		for _, name := range s.data.FailedNames {
			lines = append(lines, "  ✗ "+name)
		}
	}

	return strings.Join(lines, "\n")
}
