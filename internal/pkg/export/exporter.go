package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Vodeneev/oddsarchive/internal/pkg/mapping"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// Export is the JSON document written for one dataset.
type Export struct {
	Timestamp    string             `json:"timestamp"`
	Type         models.DatasetType `json:"type"`
	TableVersion int                `json:"table_version"`
	TotalRecords int                `json:"total_records"`
	Records      []models.Record    `json:"records"`
}

// Exporter handles the export formats
type Exporter struct {
	now func() time.Time
}

func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// ExportRecords wraps a dataset in the export envelope.
func (e *Exporter) ExportRecords(dt models.DatasetType, records []models.Record) *Export {
	if records == nil {
		records = []models.Record{}
	}
	return &Export{
		Timestamp:    e.now().UTC().Format(time.RFC3339),
		Type:         dt,
		TableVersion: mapping.TableVersion,
		TotalRecords: len(records),
		Records:      records,
	}
}

func (e *Exporter) ExportToJSON(dt models.DatasetType, records []models.Record) ([]byte, error) {
	data, err := json.MarshalIndent(e.ExportRecords(dt, records), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// Header returns the CSV header for dt: the id followed by every mapped
// field in column order.
func Header(dt models.DatasetType) []string {
	cols := mapping.Table(dt)
	header := make([]string, 0, len(cols)+1)
	header = append(header, "id")
	for _, c := range cols {
		header = append(header, string(c.Field))
	}
	return header
}

// WriteCSV writes records as one row per match with columns from the
// dataset's mapping table. Absent fields are empty cells.
func (e *Exporter) WriteCSV(w io.Writer, dt models.DatasetType, records []models.Record) error {
	cols := mapping.Table(dt)
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(dt)); err != nil {
		return err
	}

	row := make([]string, len(cols)+1)
	for i := range records {
		rec := &records[i]
		row[0] = strconv.Itoa(rec.ID)
		for j, c := range cols {
			row[j+1] = rec.Get(c.Field)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("record %d: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
