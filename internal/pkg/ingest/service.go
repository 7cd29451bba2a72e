// Package ingest is the entry point for loading, reading and clearing odds
// datasets. It wires the executor, chunk store and dataset registry together.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/oddsarchive/internal/pkg/chunkstore"
	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/dataset"
	"github.com/Vodeneev/oddsarchive/internal/pkg/executor"
	"github.com/Vodeneev/oddsarchive/internal/pkg/listing"
	"github.com/Vodeneev/oddsarchive/internal/pkg/mapping"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/performance"
	"github.com/Vodeneev/oddsarchive/internal/pkg/sheet"
	"github.com/Vodeneev/oddsarchive/internal/pkg/storage"
	"github.com/Vodeneev/oddsarchive/internal/pkg/validation"
)

// ErrIncompleteSelection is returned for a listing tuple without both teams.
var ErrIncompleteSelection = errors.New("selection needs both teams")

// EventType names a service event.
type EventType string

const (
	EventIngestStarted   EventType = "ingest_started"
	EventIngestCompleted EventType = "ingest_completed"
	EventIngestFailed    EventType = "ingest_failed"
	EventDatasetsCleared EventType = "datasets_cleared"
)

// Event is published to listeners as ingests progress.
type Event struct {
	Type    EventType            `json:"type"`
	RunID   string               `json:"run_id,omitempty"`
	Dataset models.DatasetType   `json:"dataset,omitempty"`
	Count   int                  `json:"count"`
	Path    models.ExecutionPath `json:"path,omitempty"`
	Error   string               `json:"error,omitempty"`
	At      time.Time            `json:"at"`
}

// Listener receives events synchronously; it must not block.
type Listener func(Event)

// Service exposes the dataset operations.
type Service struct {
	chunks    *chunkstore.Store
	registry  *dataset.Registry
	exec      *executor.Executor
	validator *validation.Validator
	tracker   *performance.Tracker

	mu        sync.RWMutex
	listeners []Listener
}

// Option configures a Service.
type Option func(*Service)

// WithTracker records runs on t instead of the global tracker.
func WithTracker(t *performance.Tracker) Option {
	return func(s *Service) {
		s.tracker = t
	}
}

// New builds a service on kv using the ingest and storage settings of cfg.
func New(cfg *config.Config, kv storage.KV, opts ...Option) (*Service, error) {
	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid column layout: %w", err)
	}
	chunks := chunkstore.New(kv,
		chunkstore.WithChunkSize(cfg.Ingest.ChunkSize),
		chunkstore.WithCompression(cfg.Storage.Compress),
	)
	registry := dataset.New(chunks)

	pipeline := &executor.SheetPipeline{
		Chunks:  chunks,
		Options: sheet.Options{Charset: cfg.Ingest.Charset},
	}
	exec, err := executor.New(pipeline, &cfg.Ingest, executor.WithRestore(registry.Restore))
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	s := &Service{
		chunks:    chunks,
		registry:  registry,
		exec:      exec,
		validator: validation.NewValidator(),
		tracker:   performance.GetTracker(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Subscribe adds a listener for service events.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Service) publish(e Event) {
	e.At = time.Now().UTC()
	s.mu.RLock()
	ls := s.listeners
	s.mu.RUnlock()
	for _, l := range ls {
		l(e)
	}
}

// Ingest parses data as dataset dt, replaces the stored dataset and restores
// the registry. A sheet without usable rows succeeds with Count 0.
func (s *Service) Ingest(ctx context.Context, data []byte, dt models.DatasetType) (models.IngestResult, error) {
	if !dt.Valid() {
		return models.IngestResult{}, fmt.Errorf("%w: %q", models.ErrUnknownDatasetType, dt)
	}

	runID := uuid.NewString()
	start := time.Now()
	logger := slog.With("run_id", runID, "dataset", dt)
	logger.Info("Ingest started", "bytes", len(data), "chunk_size", s.chunks.ChunkSize())
	s.publish(Event{Type: EventIngestStarted, RunID: runID, Dataset: dt})

	res, err := s.exec.Run(ctx, executor.NewPayload(data), dt)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("Ingest failed", "error", err, "duration", elapsed)
		s.tracker.RecordRun(performance.Run{RunID: runID, Type: dt, Bytes: len(data), Total: elapsed, Error: err.Error()})
		s.publish(Event{Type: EventIngestFailed, RunID: runID, Dataset: dt, Error: err.Error()})
		return models.IngestResult{}, fmt.Errorf("ingest %s: %w", dt, err)
	}

	report := s.validator.Validate(res.Records)
	if report.Invalid > 0 {
		for _, issue := range report.Issues[:min(5, len(report.Issues))] {
			logger.Warn("Record failed validation", "id", issue.ID, "reason", issue.Reason)
		}
	}

	out := models.IngestResult{
		RunID:    runID,
		Type:     dt,
		Count:    len(res.Records),
		Path:     res.Path,
		Warnings: report.Invalid,
		Duration: elapsed,
	}

	s.tracker.RecordRun(performance.Run{
		RunID:    runID,
		Type:     dt,
		Path:     res.Path,
		Bytes:    len(data),
		Records:  out.Count,
		Warnings: out.Warnings,
		Parse:    res.Phases.Parse,
		Store:    res.Phases.Store,
		Total:    elapsed,
		Success:  true,
	})
	logger.Info("Ingest completed", "count", out.Count, "path", out.Path, "warnings", out.Warnings, "duration", elapsed)
	s.publish(Event{Type: EventIngestCompleted, RunID: runID, Dataset: dt, Count: out.Count, Path: out.Path})
	return out, nil
}

// Restore reloads both datasets from storage.
func (s *Service) Restore(ctx context.Context) bool {
	return s.registry.Restore(ctx)
}

// SelfCheck verifies both execution paths agree on the sample workbook.
func (s *Service) SelfCheck(ctx context.Context) error {
	return s.exec.SelfCheck(ctx)
}

// GetActiveDataset returns the records of the active dataset, shared with
// the registry.
func (s *Service) GetActiveDataset() []models.Record {
	return s.registry.Active()
}

// Dataset returns the records held for dt.
func (s *Service) Dataset(dt models.DatasetType) []models.Record {
	return s.registry.Dataset(dt)
}

func (s *Service) SetActiveDataset(dt models.DatasetType) error {
	return s.registry.SetActive(dt)
}

// ClearAll wipes both datasets and everything else in storage.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.registry.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear datasets: %w", err)
	}
	s.publish(Event{Type: EventDatasetsCleared})
	return nil
}

// DeleteDataset removes one stored dataset and reloads the registry. The
// other dataset is left alone.
func (s *Service) DeleteDataset(ctx context.Context, dt models.DatasetType) error {
	if !dt.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownDatasetType, dt)
	}
	if err := s.chunks.Delete(ctx, dt.Key(), dt); err != nil {
		return fmt.Errorf("failed to delete %s dataset: %w", dt, err)
	}
	if !s.registry.Restore(ctx) {
		slog.Warn("Restore after delete failed", "dataset", dt)
	}
	s.publish(Event{Type: EventDatasetsCleared, Dataset: dt})
	return nil
}

func (s *Service) DatasetSummary() models.Summary {
	return s.registry.Summary()
}

// SaveSelection stores one listing row as the single-record program dataset.
func (s *Service) SaveSelection(ctx context.Context, t listing.Tuple) (models.Record, error) {
	rec, ok := listing.FromTuple(t)
	if !ok {
		return models.Record{}, ErrIncompleteSelection
	}
	if err := s.chunks.Write(ctx, models.KeyLegacyProgram, []models.Record{rec}, ""); err != nil {
		return models.Record{}, fmt.Errorf("failed to save selection: %w", err)
	}
	slog.Info("Selection saved", "home", rec.HomeTeam, "away", rec.AwayTeam, "date", rec.Date)
	return rec, nil
}

// Selection returns the stored program dataset.
func (s *Service) Selection(ctx context.Context) ([]models.Record, error) {
	return s.chunks.Read(ctx, models.KeyLegacyProgram)
}
