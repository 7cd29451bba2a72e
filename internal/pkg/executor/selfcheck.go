package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/sheet"
)

// ErrPathMismatch means the background and local paths produced different
// records for the same bytes.
var ErrPathMismatch = errors.New("background and local ingest disagree")

// SelfCheck parses the built-in sample workbook for every dataset type on a
// background worker and on the caller's goroutine and compares the records.
// Nothing is written to the store.
func (e *Executor) SelfCheck(ctx context.Context) error {
	sample, err := sheet.SampleWorkbook()
	if err != nil {
		return fmt.Errorf("failed to build sample workbook: %w", err)
	}
	return e.Compare(ctx, sample)
}

// Compare runs Parse on data through both paths for every dataset type.
func (e *Executor) Compare(ctx context.Context, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, dt := range models.DatasetTypes {
		out, started := e.attempt(ctx, NewPayload(data), func(wctx context.Context, b []byte) outcome {
			recs, err := e.pipeline.Parse(wctx, b, dt)
			return outcome{records: recs, err: err}
		})
		if !started {
			slog.Info("Self-check skipped, no background worker", "reason", out.err)
			return nil
		}
		if out.err != nil {
			return fmt.Errorf("background parse of %s sample: %w", dt, out.err)
		}

		local, err := e.pipeline.Parse(ctx, data, dt)
		if err != nil {
			return fmt.Errorf("local parse of %s sample: %w", dt, err)
		}

		if !reflect.DeepEqual(out.records, local) {
			return fmt.Errorf("%w: %s dataset, background %d records, local %d records",
				ErrPathMismatch, dt, len(out.records), len(local))
		}
		slog.Debug("Self-check passed", "dataset", dt, "records", len(local))
	}
	return nil
}
