package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/devsync/internal/tui/components"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ItemStartMsg:
		m.list = m.list.Start(msg.Index)
		return m, nil
	case ItemDoneMsg:
		if msg.Index < 0 || msg.Index >= m.list.Len() || m.list.Row(msg.Index).State == components.RowDone {
			return m, nil
		}
		m.count(m.list.Row(msg.Index).Item, msg.Outcome)
		m.list = m.list.Finish(msg.Index, msg.Outcome)
		return m, nil
	case RunDoneMsg:
		m.finished = true
		m.counts = msg.Summary
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.cancelled {
			m.cancelled = true
			if m.opts.OnCancel != nil {
				m.opts.OnCancel()
			}
		}
		return m, nil
	}

	return m, nil
}
