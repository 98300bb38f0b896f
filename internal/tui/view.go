package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render("devsync • "+m.title()))

	progress := components.NewProgress(m.list.Len()).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	rows, offset := m.list.Window(m.opts.Height)
	if len(rows) > 0 {
		sections = append(sections, sectionStyle.Render("Items"), renderRows(rows, offset, m.list.Len()))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:            m.list.Len(),
		Completed:        m.completed,
		Installed:        m.counts.Installed,
		AlreadySatisfied: m.counts.AlreadySatisfied,
		Failed:           m.counts.Failed,
		Skipped:          m.counts.Skipped,
		FailedNames:      m.failed,
		Finished:         m.finished,
		Cancelled:        m.cancelled,
		DryRun:           m.opts.DryRun,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}
	if m.cancelled && !m.finished {
		sections = append(sections, pendingStyle.Render("cancelling; waiting for the current item to stop…"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderRows(rows []components.ItemRow, offset, total int) string {
	var lines []string
	if offset > 0 {
		lines = append(lines, pendingStyle.Render(fmt.Sprintf("   … %d earlier", offset)))
	}
	for _, row := range rows {
		line := fmt.Sprintf(" %s %s %s", RowIcon(row), row.Item.Name(), pendingStyle.Render(row.Item.Category))
		if row.State == components.RowDone {
			if detail := strings.TrimSpace(row.Outcome.Detail()); detail != "" {
				line = fmt.Sprintf("%s: %s", line, detail)
			}
			if d := row.Outcome.Duration(); d > 0 {
				line = fmt.Sprintf("%s (%s)", line, d.Truncate(10*time.Millisecond))
			}
		}
		lines = append(lines, line)
	}
	if rest := total - offset - len(rows); rest > 0 {
		lines = append(lines, pendingStyle.Render(fmt.Sprintf("   … %d more", rest)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	if strings.TrimSpace(m.opts.Title) != "" {
		return m.opts.Title
	}
	return "Reconciliation"
}

// RowIcon returns the glyph representing a row's progress or outcome.
func RowIcon(row components.ItemRow) string {
	switch row.State {
	case components.RowRunning:
		return runningStyle.Render("⏳")
	case components.RowDone:
		return StatusIcon(row.Outcome.Status())
	default:
		return pendingStyle.Render("…")
	}
}

// StatusIcon returns the glyph representing an outcome status.
func StatusIcon(status model.Status) string {
	switch status {
	case model.StatusInstalled:
		return successStyle.Render("✓")
	case model.StatusAlreadySatisfied:
		return satisfiedStyle.Render("=")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	default:
		return pendingStyle.Render("…")
	}
}
