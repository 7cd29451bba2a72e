package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/listing"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/performance"
	"github.com/Vodeneev/oddsarchive/internal/pkg/sheet"
	"github.com/Vodeneev/oddsarchive/internal/pkg/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []EventType
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Type)
}

func newService(t *testing.T) (*Service, *performance.Tracker) {
	t.Helper()
	cfg := config.Default()
	cfg.Ingest.ChunkSize = 2
	tr := &performance.Tracker{}
	s, err := New(cfg, storage.NewMemory(), WithTracker(tr))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, tr
}

func sample(t *testing.T) []byte {
	t.Helper()
	b, err := sheet.SampleWorkbook()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestIngest_LoadsBothDatasets(t *testing.T) {
	ctx := context.Background()
	s, tr := newService(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	res, err := s.Ingest(ctx, sample(t), models.DatasetClosing)
	if err != nil {
		t.Fatalf("Ingest(closing) error = %v", err)
	}
	if res.Count != 3 || res.Path != models.PathBackground || res.RunID == "" {
		t.Errorf("result = %+v", res)
	}
	if _, err := s.Ingest(ctx, sample(t), models.DatasetOpening); err != nil {
		t.Fatalf("Ingest(opening) error = %v", err)
	}

	sum := s.DatasetSummary()
	if !sum.HasClosing || !sum.HasOpening || sum.ClosingCount != 3 || sum.OpeningCount != 3 {
		t.Errorf("summary = %+v", sum)
	}

	active := s.GetActiveDataset()
	if active[0].Get(models.FieldDC1X) != "1.20" {
		t.Errorf("closing cs_1x = %q", active[0].Get(models.FieldDC1X))
	}
	if err := s.SetActiveDataset(models.DatasetOpening); err != nil {
		t.Fatal(err)
	}
	if got := s.GetActiveDataset()[0].Get(models.FieldHandicap1); got != "1.20" {
		t.Errorf("opening handicap_1 = %q", got)
	}

	want := []EventType{EventIngestStarted, EventIngestCompleted, EventIngestStarted, EventIngestCompleted}
	if fmt.Sprint(rec.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
	if m := tr.GetMetrics(); m.Overall.TotalRuns != 2 || m.Overall.TotalRecords != 6 {
		t.Errorf("tracker = %+v", m.Overall)
	}
}

func TestIngest_SequentialIDs(t *testing.T) {
	const n = 7
	rows := [][]any{{"Tarih", "Lig", "Ev Sahibi"}}
	for i := range n {
		rows = append(rows, []any{"01.01.23", "Lig", fmt.Sprintf("Home %d", i), "Away"})
	}
	rows = append(rows, []any{"02.01.23", "Lig"})
	data, err := sheet.BuildWorkbook(rows)
	if err != nil {
		t.Fatal(err)
	}

	s, _ := newService(t)
	res, err := s.Ingest(context.Background(), data, models.DatasetClosing)
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != n {
		t.Fatalf("count = %d, want %d", res.Count, n)
	}
	for i, r := range s.GetActiveDataset() {
		if r.ID != i+1 {
			t.Errorf("record %d has id %d", i, r.ID)
		}
	}
}

func TestIngest_ZeroRecordsIsNotFailure(t *testing.T) {
	data, err := sheet.BuildWorkbook([][]any{{"Tarih", "Lig"}})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := newService(t)
	res, err := s.Ingest(context.Background(), data, models.DatasetOpening)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Count != 0 {
		t.Errorf("count = %d", res.Count)
	}
}

func TestIngest_Failure(t *testing.T) {
	s, tr := newService(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	_, err := s.Ingest(context.Background(), []byte("PK\x03\x04broken"), models.DatasetClosing)
	if err == nil {
		t.Fatal("expected error for a broken workbook")
	}
	if len(rec.events) != 2 || rec.events[1] != EventIngestFailed {
		t.Errorf("events = %v", rec.events)
	}
	if tr.GetMetrics().Overall.FailedRuns != 1 {
		t.Error("failed run not tracked")
	}

	if _, err := s.Ingest(context.Background(), nil, "live"); !errors.Is(err, models.ErrUnknownDatasetType) {
		t.Errorf("unknown type: err = %v", err)
	}
}

func TestIngest_UnsupportedFormatKeepsDataset(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	if _, err := s.Ingest(ctx, sample(t), models.DatasetClosing); err != nil {
		t.Fatal(err)
	}

	inputs := map[string][]byte{
		"legacy xls": []byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1Tarih,Lig,Ev,Dep\n12,Süper,Fener,Besiktas\n"),
		"png":        []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"),
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Ingest(ctx, data, models.DatasetClosing); !errors.Is(err, sheet.ErrUnsupportedFormat) {
				t.Fatalf("Ingest() error = %v, want ErrUnsupportedFormat", err)
			}
			if got := len(s.Dataset(models.DatasetClosing)); got != 3 {
				t.Errorf("closing in memory = %d, want 3", got)
			}
			recs, err := s.chunks.Read(ctx, models.KeyClosing)
			if err != nil || len(recs) != 3 || recs[0].HomeTeam != "Galatasaray" {
				t.Errorf("stored closing = %d records, %v", len(recs), err)
			}
		})
	}
}

func TestIngest_ReplacesPreviousDataset(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	if _, err := s.Ingest(ctx, sample(t), models.DatasetClosing); err != nil {
		t.Fatal(err)
	}
	one, err := sheet.BuildWorkbook([][]any{{"03.01.23", "Lig", "Solo", "Away"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Ingest(ctx, one, models.DatasetClosing); err != nil {
		t.Fatal(err)
	}
	if got := s.DatasetSummary().ClosingCount; got != 1 {
		t.Errorf("closing count = %d, want 1", got)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	rec := &recorder{}
	if _, err := s.Ingest(ctx, sample(t), models.DatasetClosing); err != nil {
		t.Fatal(err)
	}
	s.Subscribe(rec.listen)

	if err := s.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if s.DatasetSummary().Loaded {
		t.Error("still loaded after ClearAll")
	}
	if !s.Restore(ctx) || s.DatasetSummary().Loaded {
		t.Error("restore after clear should be empty")
	}
	if len(rec.events) != 1 || rec.events[0] != EventDatasetsCleared {
		t.Errorf("events = %v", rec.events)
	}
}

func TestDeleteDataset_KeepsOther(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	for _, dt := range models.DatasetTypes {
		if _, err := s.Ingest(ctx, sample(t), dt); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.DeleteDataset(ctx, models.DatasetOpening); err != nil {
		t.Fatalf("DeleteDataset() error = %v", err)
	}
	sum := s.DatasetSummary()
	if sum.HasOpening || sum.ClosingCount != 3 {
		t.Errorf("summary = %+v", sum)
	}
	if loaded, err := s.chunks.Loaded(ctx, models.DatasetOpening); err != nil || loaded {
		t.Errorf("opening loaded flag = %v, %v", loaded, err)
	}
	if err := s.DeleteDataset(ctx, "live"); !errors.Is(err, models.ErrUnknownDatasetType) {
		t.Errorf("DeleteDataset(live) error = %v", err)
	}
}

func TestSaveSelection(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	tuple := make(listing.Tuple, 27)
	tuple[listing.IdxHome] = "Arsenal"
	tuple[listing.IdxAway] = "Chelsea"
	tuple[listing.IdxMS1] = "2,05"

	rec, err := s.SaveSelection(ctx, tuple)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != 1 || rec.Get(models.FieldMS1) != "2.05" {
		t.Errorf("record = %+v", rec)
	}

	stored, err := s.Selection(ctx)
	if err != nil || len(stored) != 1 || stored[0].HomeTeam != "Arsenal" {
		t.Errorf("Selection() = %+v, %v", stored, err)
	}
	if s.DatasetSummary().Loaded {
		t.Error("a selection must not count as a loaded dataset")
	}

	tuple[listing.IdxAway] = nil
	if _, err := s.SaveSelection(ctx, tuple); !errors.Is(err, ErrIncompleteSelection) {
		t.Errorf("err = %v", err)
	}
}

func TestSelfCheck(t *testing.T) {
	s, _ := newService(t)
	if err := s.SelfCheck(context.Background()); err != nil {
		t.Errorf("SelfCheck() error = %v", err)
	}
}
