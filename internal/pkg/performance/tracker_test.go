package performance

import (
	"testing"
	"time"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

func TestTracker_RecordRun(t *testing.T) {
	tr := &Tracker{}
	tr.RecordRun(Run{RunID: "a", Type: models.DatasetClosing, Path: models.PathBackground, Records: 10, Parse: 3 * time.Millisecond, Store: time.Millisecond, Total: 5 * time.Millisecond, Success: true})
	tr.RecordRun(Run{RunID: "b", Type: models.DatasetOpening, Path: models.PathFallback, Records: 4, Warnings: 1, Parse: time.Millisecond, Store: 3 * time.Millisecond, Total: 5 * time.Millisecond, Success: true})
	tr.RecordRun(Run{RunID: "c", Type: models.DatasetOpening, Total: 2 * time.Millisecond, Error: "boom"})

	m := tr.GetMetrics()
	if m.Overall.TotalRuns != 3 || m.Overall.FailedRuns != 1 || m.Overall.FallbackRuns != 1 {
		t.Errorf("overall = %+v", m.Overall)
	}
	if m.Overall.TotalRecords != 14 || m.Overall.TotalWarnings != 1 {
		t.Errorf("records = %d warnings = %d", m.Overall.TotalRecords, m.Overall.TotalWarnings)
	}
	if m.Timing.ParsePercent != 50 || m.Timing.StorePercent != 50 {
		t.Errorf("percents = %v / %v", m.Timing.ParsePercent, m.Timing.StorePercent)
	}
	if len(m.RecentRuns) != 3 || m.RecentRuns[0].RunID != "c" {
		t.Errorf("recent runs not newest first: %+v", m.RecentRuns)
	}
}

func TestTracker_KeepsRecentRuns(t *testing.T) {
	tr := &Tracker{}
	for i := range maxRuns + 5 {
		tr.RecordRun(Run{Records: i, Success: true})
	}
	if len(tr.Runs) != maxRuns {
		t.Fatalf("runs kept = %d, want %d", len(tr.Runs), maxRuns)
	}
	if tr.Runs[0].Records != 5 {
		t.Errorf("oldest kept = %d, want 5", tr.Runs[0].Records)
	}

	tr.Reset()
	if tr.TotalRuns != 0 || len(tr.Runs) != 0 {
		t.Error("Reset() left data")
	}
}
