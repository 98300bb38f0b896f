package components

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     int
		completed int
		want      float64
	}{
		{name: "empty plan", total: 0, completed: 0, want: 0},
		{name: "partial", total: 4, completed: 1, want: 0.25},
		{name: "complete", total: 4, completed: 4, want: 1},
		{name: "overshoot is clamped", total: 4, completed: 9, want: 1},
		{name: "negative is clamped", total: 4, completed: -1, want: 0},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.InDelta(t, tt.want, NewProgress(tt.total).Ratio(tt.completed), 1e-9)
		})
	}
}

func TestProgressViewShowsCounts(t *testing.T) {
	t.Parallel()

	require.Contains(t, NewProgress(0).View(0), "0/0 items")
	require.Contains(t, NewProgress(12).View(5), "5/12 items")
}
