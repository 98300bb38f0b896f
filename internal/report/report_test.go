package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devsync/internal/model"
)

func item(category, id string) model.DesiredItem {
	return model.DesiredItem{Group: "test", Category: category, Identifier: id}
}

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func TestRecordAppendsInOrder(t *testing.T) {
	t.Parallel()

	r := New("run-1")
	require.NoError(t, r.Record(item(model.CategoryFormula, "jq"), model.Installed("")))
	require.NoError(t, r.Record(item(model.CategoryCask, "arc"), model.NewOutcome(model.StatusAlreadySatisfied, "")))
	require.NoError(t, r.Record(item(model.CategoryFormula, "jq"), model.Failed("again")))

	entries := r.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "jq", entries[0].Item.Identifier)
	require.Equal(t, model.StatusInstalled, entries[0].Outcome.Status())
	require.Equal(t, model.StatusFailed, entries[2].Outcome.Status(), "re-recording never overwrites")
	require.False(t, entries[0].Outcome.Timestamp().IsZero())
}

func TestEntriesReturnsCopy(t *testing.T) {
	t.Parallel()

	r := New("run")
	require.NoError(t, r.Record(item(model.CategoryFormula, "jq"), model.Installed("")))

	entries := r.Entries()
	entries[0].Item.Identifier = "mutated"
	require.Equal(t, "jq", r.Entries()[0].Item.Identifier)
}

func TestFinalizeMakesReportReadOnly(t *testing.T) {
	t.Parallel()

	r := New("run")
	r.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, r.Record(item(model.CategoryFormula, "jq"), model.Installed("")))

	r.Finalize()
	finished := r.Finished()
	require.True(t, r.IsFinalized())
	require.False(t, finished.IsZero())

	err := r.Record(item(model.CategoryFormula, "git"), model.Installed(""))
	require.ErrorIs(t, err, ErrFinalized)
	require.Equal(t, 1, r.Len())

	r.Finalize()
	require.Equal(t, finished, r.Finished(), "second Finalize must not move the finish time")
}

func TestSummaryAndExitStatus(t *testing.T) {
	t.Parallel()

	r := New("run")
	require.Equal(t, Summary{}, r.Summary())
	require.Equal(t, 0, r.ExitStatus())

	require.NoError(t, r.Record(item(model.CategoryFormula, "jq"), model.Installed("")))
	require.NoError(t, r.Record(item(model.CategoryFormula, "git"), model.NewOutcome(model.StatusAlreadySatisfied, "")))
	require.NoError(t, r.Record(item(model.CategoryCask, "zoom"), model.NewOutcome(model.StatusSkipped, "would install")))
	require.Equal(t, Summary{Total: 3, Installed: 1, AlreadySatisfied: 1, Skipped: 1}, r.Summary())
	require.Equal(t, 0, r.ExitStatus())

	require.NoError(t, r.Record(item(model.CategoryCask, "slack"), model.Failed("checksum mismatch")))
	require.Equal(t, 1, r.Summary().Failed)
	require.Equal(t, 1, r.ExitStatus())

	failed := r.Failed()
	require.Len(t, failed, 1)
	require.Equal(t, "slack", failed[0].Item.Identifier)
}

func TestConcurrentReadersDuringRecord(t *testing.T) {
	t.Parallel()

	r := New("run")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = r.Record(item(model.CategoryFormula, "jq"), model.Installed(""))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = r.Summary()
			_ = r.Entries()
		}
	}()
	wg.Wait()
	require.Equal(t, 100, r.Summary().Installed)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	r := New("3f1c")
	r.now = fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	jq := item(model.CategoryFormula, "jq")
	require.NoError(t, r.Record(jq, model.Installed("").WithTiming(1500*time.Millisecond, time.Time{})))
	require.NoError(t, r.Record(item(model.CategoryCaskAny, "arc"), model.Failed("all alternatives failed")))
	r.Finalize()

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded struct {
		RunID      string  `json:"run_id"`
		FinishedAt *string `json:"finished_at"`
		ExitStatus int     `json:"exit_status"`
		Summary    Summary `json:"summary"`
		Entries    []struct {
			Category   string `json:"category"`
			Identifier string `json:"identifier"`
			Status     string `json:"status"`
			Detail     string `json:"detail"`
			DurationMS int64  `json:"duration_ms"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "3f1c", decoded.RunID)
	require.NotNil(t, decoded.FinishedAt)
	require.Equal(t, 1, decoded.ExitStatus)
	require.Equal(t, Summary{Total: 2, Installed: 1, Failed: 1}, decoded.Summary)
	require.Len(t, decoded.Entries, 2)
	require.Equal(t, "installed", decoded.Entries[0].Status)
	require.Equal(t, int64(1500), decoded.Entries[0].DurationMS)
	require.Equal(t, "cask_any", decoded.Entries[1].Category)
	require.Equal(t, "all alternatives failed", decoded.Entries[1].Detail)
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	t.Parallel()

	r := New("run")
	path := filepath.Join(t.TempDir(), "reports", "last.json")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"run_id": "run"`)
	require.Contains(t, string(data), `"entries": []`)
}

func TestRenderListsFailuresByName(t *testing.T) {
	t.Parallel()

	r := New("run-7")
	require.NoError(t, r.Record(item(model.CategoryFormula, "jq"), model.Installed("")))
	arc := item(model.CategoryCaskAny, "arc")
	arc.Label = "Arc browser"
	require.NoError(t, r.Record(arc, model.Failed("all alternatives failed")))

	out := r.Render()
	require.Contains(t, out, "devsync run run-7")
	require.Contains(t, out, "jq (formula) installed")
	require.Contains(t, out, "Summary: 2 total, 1 installed, 0 already satisfied, 1 failed, 0 skipped")
	require.Contains(t, out, "Failed items:")
	require.Contains(t, out, "- Arc browser (cask_any/arc): all alternatives failed")
}

func TestRenderWithoutFailures(t *testing.T) {
	t.Parallel()

	r := New("run")
	require.NoError(t, r.Record(item(model.CategoryFormula, "git"), model.NewOutcome(model.StatusAlreadySatisfied, "")))
	out := r.Render()
	require.Contains(t, out, "git (formula) already satisfied")
	require.NotContains(t, out, "Failed items:")
}
