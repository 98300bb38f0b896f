package components

import "github.com/alexisbeaulieu97/devsync/internal/model"

// RowState is the progress of one planned item in the view.
type RowState int

const (
	RowPending RowState = iota
	RowRunning
	RowDone
)

// ItemRow is one planned item and, once done, its outcome.
type ItemRow struct {
	Item    model.DesiredItem
	State   RowState
	Outcome model.Outcome
}

// ItemList is the ordered set of rows shown by the progress view.
type ItemList struct {
	rows []ItemRow
}

// NewItemList creates a pending row for every planned item.
func NewItemList(items []model.DesiredItem) ItemList {
	rows := make([]ItemRow, len(items))
	for i, item := range items {
		rows[i] = ItemRow{Item: item}
	}
	return ItemList{rows: rows}
}

// Len returns the number of rows.
func (l ItemList) Len() int {
	return len(l.rows)
}

// Start marks row i as running. Out of range indexes are ignored.
func (l ItemList) Start(i int) ItemList {
	if i < 0 || i >= len(l.rows) {
		return l
	}
	l.rows = l.clone()
	l.rows[i].State = RowRunning
	return l
}

// Finish records the outcome of row i.
func (l ItemList) Finish(i int, outcome model.Outcome) ItemList {
	if i < 0 || i >= len(l.rows) {
		return l
	}
	l.rows = l.clone()
	l.rows[i].State = RowDone
	l.rows[i].Outcome = outcome
	return l
}

// Row returns row i.
func (l ItemList) Row(i int) ItemRow {
	return l.rows[i]
}

// Window returns at most height rows, scrolled so the first unfinished row
// stays visible, together with the index of the first returned row.
func (l ItemList) Window(height int) ([]ItemRow, int) {
	if height <= 0 || height >= len(l.rows) {
		return l.clone(), 0
	}

	focus := len(l.rows) - 1
	for i, row := range l.rows {
		if row.State != RowDone {
			focus = i
			break
		}
	}

	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(l.rows) {
		start = len(l.rows) - height
	}
	out := make([]ItemRow, height)
	copy(out, l.rows[start:start+height])
	return out, start
}

func (l ItemList) clone() []ItemRow {
	out := make([]ItemRow, len(l.rows))
	copy(out, l.rows)
	return out
}
