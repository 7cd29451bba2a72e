package mapping

import (
	"testing"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestMap_CommonPrefix(t *testing.T) {
	row := Row{
		0: "15.03.23", 1: "Süper Lig", 2: "Galatasaray", 3: "Fenerbahçe",
		4: "1-0", 5: "2-1", 6: 1.85, 7: "3.40", 8: "4.10",
		12: "1.70", 13: "2.05",
	}

	for _, dt := range models.DatasetTypes {
		t.Run(string(dt), func(t *testing.T) {
			rec := Map(row, dt)
			if rec.Date != "15.03.23" || rec.League != "Süper Lig" {
				t.Errorf("date/league = %q/%q", rec.Date, rec.League)
			}
			if rec.HomeTeam != "Galatasaray" || rec.AwayTeam != "Fenerbahçe" {
				t.Errorf("teams = %q vs %q", rec.HomeTeam, rec.AwayTeam)
			}
			if rec.ScoreHT != "1-0" || rec.Score != "2-1" {
				t.Errorf("scores = %q / %q", rec.ScoreHT, rec.Score)
			}
			if got := rec.Odds[models.FieldMS1]; got != "1.85" {
				t.Errorf("ms1 = %q, want 1.85", got)
			}
			if got := rec.Odds[models.FieldBTTSNo]; got != "2.05" {
				t.Errorf("kg_yok = %q, want 2.05", got)
			}
			if rec.ID != 0 {
				t.Errorf("Map must not assign ids, got %d", rec.ID)
			}
		})
	}
}

func TestMap_BranchesByDatasetType(t *testing.T) {
	row := Row{0: "01.01.24", 2: "A", 3: "B"}
	for i := 14; i <= 35; i++ {
		row[i] = float64(i)
	}

	tests := []struct {
		dt     models.DatasetType
		offset int
		field  models.Field
	}{
		{models.DatasetClosing, 14, models.FieldDC1X},
		{models.DatasetClosing, 16, models.FieldDC2X},
		{models.DatasetClosing, 19, models.FieldFT15Under},
		{models.DatasetClosing, 24, models.FieldFT35Over},
		{models.DatasetClosing, 28, models.FieldGoals6Plus},
		{models.DatasetOpening, 14, models.FieldHandicap1},
		{models.DatasetOpening, 15, models.FieldHandicap0},
		{models.DatasetOpening, 16, models.FieldHandicap2},
		{models.DatasetOpening, 19, models.FieldFT25Under},
		{models.DatasetOpening, 26, models.FieldGoals6Plus},
		{models.DatasetOpening, 27, models.FieldHTFT11},
		{models.DatasetOpening, 28, models.FieldHTFT10},
		{models.DatasetOpening, 35, models.FieldHTFT22},
	}

	for _, tt := range tests {
		rec := Map(row, tt.dt)
		want := Stringify(float64(tt.offset))
		if got := rec.Odds[tt.field]; got != want {
			t.Errorf("%s offset %d: %s = %q, want %q", tt.dt, tt.offset, tt.field, got, want)
		}
	}

	closing := Map(row, models.DatasetClosing)
	if _, ok := closing.Odds[models.FieldHandicap1]; ok {
		t.Error("closing record must not carry handicap fields")
	}
	if _, ok := closing.Odds[models.FieldHTFT11]; ok {
		t.Error("closing layout ends at offset 28")
	}
	opening := Map(row, models.DatasetOpening)
	if _, ok := opening.Odds[models.FieldDC1X]; ok {
		t.Error("opening record must not carry double-chance fields")
	}
	if _, ok := opening.Odds[models.FieldFT15Under]; ok {
		t.Error("opening layout has no full-time 1.5 line")
	}
}

func TestMap_EmptyRowHasNilOdds(t *testing.T) {
	rec := Map(Row{2: "Home"}, models.DatasetClosing)
	if rec.Odds != nil {
		t.Errorf("Odds = %v, want nil", rec.Odds)
	}
	if rec.HomeTeam != "Home" {
		t.Errorf("HomeTeam = %q", rec.HomeTeam)
	}
}

func TestMap_ZeroCellsAreEmpty(t *testing.T) {
	row := Row{
		2: "Home", 3: "Away",
		4: 0.0, 6: 0.0, 7: "0", 8: 0, 9: false, 10: int64(0), 11: 2.5,
	}
	rec := Map(row, models.DatasetClosing)

	if rec.ScoreHT != "" {
		t.Errorf("score_ht = %q, want empty for numeric 0", rec.ScoreHT)
	}
	for _, f := range []models.Field{models.FieldMS1, models.FieldMS2, models.FieldIY1, models.FieldIY0} {
		if v, ok := rec.Odds[f]; ok {
			t.Errorf("%s = %q, want absent", f, v)
		}
	}
	if got := rec.Odds[models.FieldMS0]; got != "0" {
		t.Errorf("ms0 = %q, text \"0\" must be kept", got)
	}
	if got := rec.Odds[models.FieldIY2]; got != "2.5" {
		t.Errorf("iy2 = %q, want 2.5", got)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{1.85, "1.85"},
		{2.0, "2"},
		{7, "7"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
