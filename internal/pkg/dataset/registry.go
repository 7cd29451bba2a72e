// Package dataset holds the in-memory copies of the closing and opening
// datasets and the selector for which one analysis views read. The chunk
// store is the source of truth; the registry is a cache rebuilt by Restore.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Vodeneev/oddsarchive/internal/pkg/chunkstore"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// Registry owns two dataset slots and the active selector.
type Registry struct {
	store *chunkstore.Store

	mu     sync.RWMutex
	slots  map[models.DatasetType][]models.Record
	active models.DatasetType
}

func New(store *chunkstore.Store) *Registry {
	return &Registry{
		store:  store,
		slots:  make(map[models.DatasetType][]models.Record, len(models.DatasetTypes)),
		active: models.DatasetClosing,
	}
}

// Restore re-reads both datasets from the store and replaces the slots.
// Failures are logged and reported through the return value; on failure the
// previous contents are kept.
func (r *Registry) Restore(ctx context.Context) bool {
	loaded := make([][]models.Record, len(models.DatasetTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, dt := range models.DatasetTypes {
		g.Go(func() error {
			recs, err := r.read(gctx, dt)
			if err != nil {
				return fmt.Errorf("restore %s: %w", dt, err)
			}
			loaded[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("Failed to restore datasets", "error", err)
		return false
	}

	r.mu.Lock()
	for i, dt := range models.DatasetTypes {
		r.slots[dt] = loaded[i]
	}
	closing, opening := len(r.slots[models.DatasetClosing]), len(r.slots[models.DatasetOpening])
	r.mu.Unlock()

	slog.Info("Datasets restored", "closing", closing, "opening", opening)
	return true
}

// read loads one dataset. Closing data written before the two-dataset layout
// lives under the legacy archive key. A loaded flag without meta means the
// dataset was only partly written or removed and fails the read.
func (r *Registry) read(ctx context.Context, dt models.DatasetType) ([]models.Record, error) {
	has, err := r.store.Has(ctx, dt.Key())
	if err != nil {
		return nil, err
	}
	if has {
		return r.store.Read(ctx, dt.Key())
	}

	if dt == models.DatasetClosing {
		legacy, err := r.store.Read(ctx, models.KeyLegacyArchive)
		if err != nil {
			return nil, err
		}
		if len(legacy) > 0 {
			slog.Info("Using legacy archive for closing dataset", "count", len(legacy))
			return legacy, nil
		}
	}

	flagged, err := r.store.Loaded(ctx, dt)
	if err != nil {
		return nil, err
	}
	if flagged {
		return nil, fmt.Errorf("%s is flagged loaded but has no meta: %w", dt, chunkstore.ErrChunkMissing)
	}
	return r.store.Read(ctx, dt.Key())
}

// SetActive selects which dataset Active returns. Stored data is not touched.
func (r *Registry) SetActive(dt models.DatasetType) error {
	if !dt.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownDatasetType, dt)
	}
	r.mu.Lock()
	r.active = dt
	r.mu.Unlock()
	return nil
}

// ActiveType returns the selector.
func (r *Registry) ActiveType() models.DatasetType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Active returns the records of the active dataset. The slice is shared with
// the registry and must not be modified.
func (r *Registry) Active() []models.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots[r.active]
}

// Dataset returns the records held for dt, shared like Active.
func (r *Registry) Dataset(dt models.DatasetType) []models.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots[dt]
}

// Loaded reports whether either slot holds records.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, recs := range r.slots {
		if len(recs) > 0 {
			return true
		}
	}
	return false
}

// Clear empties both slots and wipes the whole store.
func (r *Registry) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	clear(r.slots)
	r.mu.Unlock()
	slog.Info("Datasets cleared")
	return nil
}

func (r *Registry) Summary() models.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := models.Summary{
		ClosingCount: len(r.slots[models.DatasetClosing]),
		OpeningCount: len(r.slots[models.DatasetOpening]),
		Active:       r.active,
	}
	s.HasClosing = s.ClosingCount > 0
	s.HasOpening = s.OpeningCount > 0
	s.Loaded = s.HasClosing || s.HasOpening
	return s
}
