package executor

import (
	"context"
	"fmt"

	"github.com/Vodeneev/oddsarchive/internal/pkg/chunkstore"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/sheet"
)

// Pipeline is the work both execution paths run: parse the bytes, then
// persist the records. Implementations must be deterministic for equal input.
type Pipeline interface {
	Parse(ctx context.Context, data []byte, dt models.DatasetType) ([]models.Record, error)
	Store(ctx context.Context, records []models.Record, dt models.DatasetType) error
}

// SheetPipeline parses spreadsheet bytes with the sheet scanner and writes
// the result to a chunk store under the dataset's key.
type SheetPipeline struct {
	Chunks  *chunkstore.Store
	Options sheet.Options
}

var _ Pipeline = (*SheetPipeline)(nil)

func (p *SheetPipeline) Parse(ctx context.Context, data []byte, dt models.DatasetType) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := sheet.Open(data, p.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	return sheet.Scan(s, dt), nil
}

func (p *SheetPipeline) Store(ctx context.Context, records []models.Record, dt models.DatasetType) error {
	return p.Chunks.Write(ctx, dt.Key(), records, dt)
}
