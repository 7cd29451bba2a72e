// Package executor runs the ingestion pipeline on a background worker and
// falls back to the caller's goroutine when the worker cannot start, fails,
// panics or times out.
//
// The protocol has two states per call:
//
//	attempt background -> success
//	                   -> fallback local -> success | error
//
// The fallback reuses the caller's bytes, so it is only available while the
// payload was shared rather than transferred.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

var (
	errBackgroundDisabled = errors.New("background execution disabled")
	errNoWorkerSlot       = errors.New("no free background worker")
	errWorkerPanic        = errors.New("background worker panicked")
	errWorkerTimeout      = errors.New("background worker timed out")
)

// Phases holds the time spent in each pipeline step.
type Phases struct {
	Parse time.Duration
	Store time.Duration
}

// Result is the outcome of one successful Run.
type Result struct {
	Records []models.Record
	Path    models.ExecutionPath
	Phases  Phases
	// BackgroundErr is why the background attempt was abandoned, nil on the background path.
	BackgroundErr error
}

// Executor serializes ingest calls and dispatches each to a worker.
type Executor struct {
	mu sync.Mutex

	pipeline   Pipeline
	sem        *semaphore.Weighted
	background bool
	handoff    Handoff
	timeout    time.Duration
	restore    func(context.Context) bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithRestore sets the hook run after every successful write, typically the
// dataset registry's Restore.
func WithRestore(fn func(context.Context) bool) Option {
	return func(e *Executor) {
		e.restore = fn
	}
}

func New(p Pipeline, cfg *config.IngestConfig, opts ...Option) (*Executor, error) {
	h, err := ParseHandoff(cfg.Handoff)
	if err != nil {
		return nil, err
	}
	workers := int64(cfg.MaxWorkers)
	if workers <= 0 {
		workers = 1
	}
	e := &Executor{
		pipeline:   p,
		sem:        semaphore.NewWeighted(workers),
		background: !cfg.DisableBackground,
		handoff:    h,
		timeout:    cfg.WorkerTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

type outcome struct {
	records []models.Record
	phases  Phases
	err     error
}

// job is what a worker runs against the bytes it was handed.
type job func(ctx context.Context, data []byte) outcome

// launch starts j on a worker goroutine. A nil channel with an error means
// the worker never started and the payload was not touched.
func (e *Executor) launch(ctx context.Context, p *Payload, j job) (<-chan outcome, error) {
	if !e.background {
		return nil, errBackgroundDisabled
	}
	if !e.sem.TryAcquire(1) {
		return nil, errNoWorkerSlot
	}
	data, err := p.Take(e.handoff)
	if err != nil {
		e.sem.Release(1)
		return nil, err
	}

	ch := make(chan outcome, 1)
	go func() {
		defer e.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("%w: %v", errWorkerPanic, r)}
			}
		}()
		ch <- j(ctx, data)
	}()
	return ch, nil
}

// attempt runs j in the background and waits, bounded by the configured
// timeout. started is false when no worker was launched. The worker's context
// is cancelled on return so a hung worker can wind down.
func (e *Executor) attempt(ctx context.Context, p *Payload, j job) (outcome, bool) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := e.launch(wctx, p, j)
	if err != nil {
		return outcome{err: err}, false
	}

	var timeout <-chan time.Time
	if e.timeout > 0 {
		t := time.NewTimer(e.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case out := <-ch:
		return out, true
	case <-timeout:
		return outcome{err: fmt.Errorf("%w after %s", errWorkerTimeout, e.timeout)}, true
	case <-ctx.Done():
		return outcome{err: ctx.Err()}, true
	}
}

func (e *Executor) runPipeline(ctx context.Context, data []byte, dt models.DatasetType) outcome {
	var out outcome
	start := time.Now()
	recs, err := e.pipeline.Parse(ctx, data, dt)
	out.phases.Parse = time.Since(start)
	if err != nil {
		out.err = fmt.Errorf("parse: %w", err)
		return out
	}

	start = time.Now()
	if err := e.pipeline.Store(ctx, recs, dt); err != nil {
		out.err = fmt.Errorf("store: %w", err)
		return out
	}
	out.phases.Store = time.Since(start)
	out.records = recs
	return out
}

// Run ingests the payload as dataset dt. On success the restore hook runs
// before Run returns. Calls are serialized per Executor.
func (e *Executor) Run(ctx context.Context, p *Payload, dt models.DatasetType) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, started := e.attempt(ctx, p, func(wctx context.Context, data []byte) outcome {
		return e.runPipeline(wctx, data, dt)
	})

	res := Result{Path: models.PathBackground}
	if out.err != nil {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		data, err := p.Bytes()
		if err != nil {
			return Result{}, fmt.Errorf("%w (background error: %v)", err, out.err)
		}

		slog.Warn("Background ingest unavailable, running locally",
			"dataset", dt, "bytes", p.Len(), "started", started, "error", out.err)
		res.Path = models.PathFallback
		res.BackgroundErr = out.err

		out = e.runPipeline(ctx, data, dt)
		if out.err != nil {
			return Result{}, fmt.Errorf("local ingest of %s: %w", dt, out.err)
		}
	}

	res.Records = out.records
	res.Phases = out.phases

	if e.restore != nil && !e.restore(ctx) {
		slog.Warn("Restore after ingest failed", "dataset", dt)
	}
	return res, nil
}
