package performance

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// keep at most this many recent runs
const maxRuns = 100

// Tracker tracks ingest runs
type Tracker struct {
	mu sync.RWMutex

	// Overall metrics
	TotalRuns     int
	FailedRuns    int
	FallbackRuns  int
	TotalRecords  int
	TotalBytes    int64
	TotalWarnings int

	// Timing metrics
	TotalDuration time.Duration
	ParseDuration time.Duration
	StoreDuration time.Duration

	// Recent runs, oldest first
	Runs []Run
}

// Run is one ingest call
type Run struct {
	RunID    string
	Type     models.DatasetType
	Path     models.ExecutionPath
	Bytes    int
	Records  int
	Warnings int
	Parse    time.Duration
	Store    time.Duration
	Total    time.Duration
	Success  bool
	Error    string
	At       time.Time
}

var globalTracker = &Tracker{
	Runs: make([]Run, 0, maxRuns),
}

// GetTracker returns the global performance tracker
func GetTracker() *Tracker {
	return globalTracker
}

// Reset resets all metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalRuns = 0
	t.FailedRuns = 0
	t.FallbackRuns = 0
	t.TotalRecords = 0
	t.TotalBytes = 0
	t.TotalWarnings = 0
	t.TotalDuration = 0
	t.ParseDuration = 0
	t.StoreDuration = 0
	t.Runs = t.Runs[:0]
}

// RecordRun records a finished ingest call, successful or not
func (t *Tracker) RecordRun(run Run) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if run.At.IsZero() {
		run.At = time.Now()
	}

	t.TotalRuns++
	t.TotalBytes += int64(run.Bytes)
	t.TotalDuration += run.Total
	if !run.Success {
		t.FailedRuns++
	} else {
		t.TotalRecords += run.Records
		t.TotalWarnings += run.Warnings
		t.ParseDuration += run.Parse
		t.StoreDuration += run.Store
		if run.Path == models.PathFallback {
			t.FallbackRuns++
		}
	}

	if len(t.Runs) == maxRuns {
		copy(t.Runs, t.Runs[1:])
		t.Runs = t.Runs[:maxRuns-1]
	}
	t.Runs = append(t.Runs, run)
}

// PrintSummary logs a performance summary
func (t *Tracker) PrintSummary() {
	m := t.GetMetrics()
	if m.Overall.TotalRuns == 0 {
		slog.Info("No performance data collected yet")
		return
	}

	slog.Info("Ingest statistics",
		"total_runs", m.Overall.TotalRuns,
		"failed_runs", m.Overall.FailedRuns,
		"fallback_runs", m.Overall.FallbackRuns,
		"total_records", m.Overall.TotalRecords,
		"total_warnings", m.Overall.TotalWarnings)

	slog.Info("Timing breakdown (average per successful run)",
		"total", m.Timing.AvgTotal,
		"parse", m.Timing.AvgParse, "parse_percent", m.Timing.ParsePercent,
		"store", m.Timing.AvgStore, "store_percent", m.Timing.StorePercent)
}

// MetricsResponse represents the JSON response structure for /metrics endpoint
type MetricsResponse struct {
	Overall struct {
		TotalRuns     int   `json:"total_runs"`
		FailedRuns    int   `json:"failed_runs"`
		FallbackRuns  int   `json:"fallback_runs"`
		TotalRecords  int   `json:"total_records"`
		TotalBytes    int64 `json:"total_bytes"`
		TotalWarnings int   `json:"total_warnings"`
	} `json:"overall"`

	Timing struct {
		AvgTotal     string  `json:"avg_total"`
		AvgParse     string  `json:"avg_parse"`
		AvgStore     string  `json:"avg_store"`
		ParsePercent float64 `json:"parse_percent"`
		StorePercent float64 `json:"store_percent"`
	} `json:"timing"`

	RecentRuns []RunResponse `json:"recent_runs"`
}

// RunResponse is one entry of MetricsResponse.RecentRuns
type RunResponse struct {
	RunID    string `json:"run_id"`
	Type     string `json:"type"`
	Path     string `json:"path,omitempty"`
	Records  int    `json:"records"`
	Warnings int    `json:"warnings"`
	Duration string `json:"duration"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	At       string `json:"at"`
}

// GetMetrics returns structured metrics for JSON API
func (t *Tracker) GetMetrics() MetricsResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var resp MetricsResponse

	resp.Overall.TotalRuns = t.TotalRuns
	resp.Overall.FailedRuns = t.FailedRuns
	resp.Overall.FallbackRuns = t.FallbackRuns
	resp.Overall.TotalRecords = t.TotalRecords
	resp.Overall.TotalBytes = t.TotalBytes
	resp.Overall.TotalWarnings = t.TotalWarnings

	if ok := t.TotalRuns - t.FailedRuns; ok > 0 {
		resp.Timing.AvgTotal = (t.TotalDuration / time.Duration(t.TotalRuns)).String()
		resp.Timing.AvgParse = (t.ParseDuration / time.Duration(ok)).String()
		resp.Timing.AvgStore = (t.StoreDuration / time.Duration(ok)).String()
		if busy := t.ParseDuration + t.StoreDuration; busy > 0 {
			resp.Timing.ParsePercent = float64(t.ParseDuration) / float64(busy) * 100
			resp.Timing.StorePercent = float64(t.StoreDuration) / float64(busy) * 100
		}
	}

	// newest first
	resp.RecentRuns = make([]RunResponse, 0, len(t.Runs))
	for i := len(t.Runs) - 1; i >= 0; i-- {
		r := t.Runs[i]
		resp.RecentRuns = append(resp.RecentRuns, RunResponse{
			RunID:    r.RunID,
			Type:     string(r.Type),
			Path:     string(r.Path),
			Records:  r.Records,
			Warnings: r.Warnings,
			Duration: r.Total.String(),
			Success:  r.Success,
			Error:    r.Error,
			At:       r.At.UTC().Format(time.RFC3339),
		})
	}

	return resp
}
