package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/reconcile"
	"github.com/alexisbeaulieu97/devsync/internal/report"
)

// Observe converts reconciler events into progress messages for send.
func Observe(send func(tea.Msg)) reconcile.Observer {
	return func(ev reconcile.Event) {
		switch ev.Kind {
		case reconcile.EventStarted:
			send(ItemStartMsg{Index: ev.Index})
		case reconcile.EventFinished:
			send(ItemDoneMsg{Index: ev.Index, Outcome: ev.Outcome})
		}
	}
}

// Run shows the progress view while apply runs in the background, and returns
// the report apply produced. It always waits for apply to return, even when
// the view fails.
func Run(items []model.DesiredItem, opts Options, apply func(reconcile.Observer) *report.Report) (*report.Report, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	programOpts := []tea.ProgramOption{tea.WithOutput(out), tea.WithInput(opts.Input)}

	program := tea.NewProgram(NewModel(items, opts), programOpts...)
	done := make(chan *report.Report, 1)
	go func() {
		rep := apply(Observe(program.Send))
		program.Send(RunDoneMsg{Summary: rep.Summary()})
		done <- rep
	}()

	_, err := program.Run()
	rep := <-done
	return rep, err
}
