package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/report"
	"github.com/alexisbeaulieu97/devsync/internal/tui/components"
)

// ItemStartMsg indicates the reconciler started on the item at Index.
type ItemStartMsg struct {
	Index int
}

// ItemDoneMsg carries the outcome recorded for the item at Index.
type ItemDoneMsg struct {
	Index   int
	Outcome model.Outcome
}

// RunDoneMsg is sent once the report is finalized.
type RunDoneMsg struct {
	Summary report.Summary
}

// Options configures the progress view.
type Options struct {
	Title  string
	DryRun bool

	// Height caps the number of item rows shown; zero shows all of them.
	Height int

	// Input and Output are the terminal streams. A nil Input disables
	// keyboard handling.
	Input  io.Reader
	Output io.Writer

	// OnCancel is called when the operator presses ctrl+c. The view keeps
	// running until the reconciler reports the run as done.
	OnCancel func()
}

// Model contains the Bubbletea state for the reconciliation progress view.
type Model struct {
	opts      Options
	list      components.ItemList
	completed int
	counts    report.Summary
	failed    []string
	finished  bool
	cancelled bool
}

// NewModel constructs a progress view for the planned items.
func NewModel(items []model.DesiredItem, opts Options) Model {
	return Model{opts: opts, list: components.NewItemList(items)}
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return nil
}

// TotalItems returns the number of planned items.
func (m Model) TotalItems() int {
	return m.list.Len()
}

// CompletedItems returns the number of items with an outcome.
func (m Model) CompletedItems() int {
	return m.completed
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// IsCancelled reports whether the operator interrupted the run.
func (m Model) IsCancelled() bool {
	return m.cancelled
}

func (m *Model) count(item model.DesiredItem, outcome model.Outcome) {
	m.completed++
	m.counts.Total++
	switch outcome.Status() {
	case model.StatusInstalled:
		m.counts.Installed++
	case model.StatusAlreadySatisfied:
		m.counts.AlreadySatisfied++
	case model.StatusFailed:
		m.counts.Failed++
		m.failed = append(m.failed, item.Name())
	case model.StatusSkipped:
		m.counts.Skipped++
	}
}
