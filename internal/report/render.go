package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/devsync/internal/model"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	installedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	presentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type jsonEntry struct {
	Group      string    `json:"group,omitempty"`
	Category   string    `json:"category"`
	Identifier string    `json:"identifier"`
	Label      string    `json:"label,omitempty"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type jsonReport struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Entries    []jsonEntry `json:"entries"`
	Summary    Summary     `json:"summary"`
	ExitStatus int         `json:"exit_status"`
}

// MarshalJSON renders the machine-readable run summary.
func (r *Report) MarshalJSON() ([]byte, error) {
	entries := r.Entries()
	doc := jsonReport{
		RunID:      r.runID,
		StartedAt:  r.started,
		Entries:    make([]jsonEntry, 0, len(entries)),
		Summary:    r.Summary(),
		ExitStatus: r.ExitStatus(),
	}
	if finished := r.Finished(); !finished.IsZero() {
		doc.FinishedAt = &finished
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, jsonEntry{
			Group:      e.Item.Group,
			Category:   e.Item.Category,
			Identifier: e.Item.Identifier,
			Label:      e.Item.Label,
			Status:     string(e.Outcome.Status()),
			Detail:     e.Outcome.Detail(),
			DurationMS: e.Outcome.Duration().Milliseconds(),
			Timestamp:  e.Outcome.Timestamp(),
		})
	}
	return json.Marshal(doc)
}

// WriteJSON writes the indented JSON summary to w.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteFile writes the JSON summary to path, creating parent directories.
func (r *Report) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// StatusMark returns the glyph used for a status in text output.
func StatusMark(s model.Status) string {
	switch s {
	case model.StatusInstalled:
		return installedStyle.Render("✓")
	case model.StatusAlreadySatisfied:
		return presentStyle.Render("=")
	case model.StatusFailed:
		return failedStyle.Render("✗")
	default:
		return skippedStyle.Render("-")
	}
}

// Line renders one entry as it appears in the text report.
func Line(e Entry) string {
	text := fmt.Sprintf("%s %s (%s) %s", StatusMark(e.Outcome.Status()), e.Item.Name(), e.Item.Category, strings.ReplaceAll(string(e.Outcome.Status()), "_", " "))
	if detail := strings.TrimSpace(e.Outcome.Detail()); detail != "" {
		text += ": " + detail
	}
	return text
}

// Render returns the human-readable report: every entry, the counts and the
// failed items by name so they can be addressed before a re-run.
func (r *Report) Render() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("devsync run " + r.runID))
	b.WriteString("\n")
	for _, e := range r.Entries() {
		b.WriteString("  " + Line(e) + "\n")
	}

	s := r.Summary()
	fmt.Fprintf(&b, "\nSummary: %d total, %d installed, %d already satisfied, %d failed, %d skipped\n",
		s.Total, s.Installed, s.AlreadySatisfied, s.Failed, s.Skipped)

	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString(failedStyle.Render("Failed items:"))
		b.WriteString("\n")
		for _, e := range failed {
			fmt.Fprintf(&b, "  - %s (%s): %s\n", e.Item.Name(), e.Item.Key(), e.Outcome.Detail())
		}
	}
	return b.String()
}
