package sheet

import (
	"errors"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

func TestSampleWorkbook_Scan(t *testing.T) {
	data, err := SampleWorkbook()
	if err != nil {
		t.Fatalf("SampleWorkbook() error = %v", err)
	}
	if got := Detect(data); got != FormatXLSX {
		t.Fatalf("Detect() = %q, want xlsx", got)
	}

	s, err := Open(data, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	recs := Scan(s, models.DatasetClosing)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(recs), recs)
	}

	first := recs[0]
	if first.ID != 1 || first.Date != "15.03.23" {
		t.Errorf("first id/date = %d/%q", first.ID, first.Date)
	}
	if first.HomeTeam != "Galatasaray" || first.AwayTeam != "Fenerbahçe" {
		t.Errorf("teams = %q vs %q", first.HomeTeam, first.AwayTeam)
	}
	if got := first.Odds[models.FieldMS1]; got != "1.85" {
		t.Errorf("ms1 = %q, want 1.85", got)
	}
	if got := first.Odds[models.FieldMS2]; got != "4.1" {
		t.Errorf("numeric ms2 = %q, want 4.1", got)
	}

	if recs[1].Date != "16.03.2023" || recs[1].HomeTeam != "Arsenal" {
		t.Errorf("second = %+v", recs[1])
	}
	if recs[2].ID != 3 || recs[2].HomeTeam != "Roma" {
		t.Errorf("third = %+v", recs[2])
	}
}

func TestSampleWorkbook_OpeningLayout(t *testing.T) {
	data, err := SampleWorkbook()
	if err != nil {
		t.Fatal(err)
	}
	s, err := OpenXLSX(data)
	if err != nil {
		t.Fatal(err)
	}
	recs := Scan(s, models.DatasetOpening)
	if len(recs) != 3 {
		t.Fatalf("got %d records", len(recs))
	}
	if got := recs[0].Odds[models.FieldHandicap1]; got != "1.20" {
		t.Errorf("handicap_1 = %q, want 1.20", got)
	}
	if got := recs[0].Odds[models.FieldHTFT22]; got != "30.00" {
		t.Errorf("htft_22 = %q, want 30.00", got)
	}
}

func TestOpenXLSX_Garbage(t *testing.T) {
	if _, err := OpenXLSX([]byte("PK\x03\x04not a zip")); err == nil {
		t.Error("expected error for corrupt workbook")
	}
}

func TestBuildWorkbook_Empty(t *testing.T) {
	data, err := BuildWorkbook(nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := OpenXLSX(data)
	if err != nil {
		t.Fatal(err)
	}
	if recs := Scan(s, models.DatasetClosing); len(recs) != 0 {
		t.Errorf("empty workbook produced %d records", len(recs))
	}
}

func TestOpenCSV_Semicolon(t *testing.T) {
	data := []byte("\xEF\xBB\xBFTarih;Lig;Ev;Dep;IY;MS;MS1\n15.03.2023;Süper Lig;Galatasaray;Fenerbahçe;1-0;2-1;1,85\n;;;;;;\n")
	s, err := Open(data, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	recs := Scan(s, models.DatasetClosing)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Date != "15.03.2023" || recs[0].Odds[models.FieldMS1] != "1.85" {
		t.Errorf("record = %+v", recs[0])
	}
}

func TestOpenCSV_Windows1254(t *testing.T) {
	utf := "Tarih,Lig,Ev,Dep\n01.01.24,Süper Lig,Beşiktaş,Göztepe\n"
	encoded, err := charmap.Windows1254.NewEncoder().String(utf)
	if err != nil {
		t.Fatal(err)
	}

	s, err := OpenCSV([]byte(encoded), "")
	if err != nil {
		t.Fatalf("OpenCSV() error = %v", err)
	}
	recs := Scan(s, models.DatasetClosing)
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].HomeTeam != "Beşiktaş" || recs[0].AwayTeam != "Göztepe" {
		t.Errorf("teams = %q vs %q", recs[0].HomeTeam, recs[0].AwayTeam)
	}
}

func TestOpenCSV_MixedEncoding(t *testing.T) {
	legacy, err := charmap.Windows1254.NewEncoder().String("02.01.24,Süper Lig,Beşiktaş,Göztepe\n")
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("Tarih,Lig,Ev,Dep\n01.01.24,Süper Lig,Fenerbahçe,Kasımpaşa\n" + legacy)

	s, err := OpenCSV(data, "")
	if err != nil {
		t.Fatalf("OpenCSV() error = %v", err)
	}
	recs := Scan(s, models.DatasetClosing)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].League != "Süper Lig" || recs[0].HomeTeam != "Fenerbahçe" || recs[0].AwayTeam != "Kasımpaşa" {
		t.Errorf("utf-8 line = %+v", recs[0])
	}
	if recs[1].League != "Süper Lig" || recs[1].HomeTeam != "Beşiktaş" {
		t.Errorf("windows-1254 line = %+v", recs[1])
	}
}

func TestOpen_RejectsBinary(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"legacy xls", append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, "Tarih,Lig,Ev,Dep\n12,Süper,Fener,Besiktas\n"...)},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x01\x00")},
		{"nul bytes", []byte("Tarih,Lig\n01.01.24,\x00\x00Lig,Home,Away\n")},
		{"forced csv", []byte("\x00\x01\x02\x03")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{}
			if tt.name == "forced csv" {
				opts.Format = FormatCSV
			}
			if _, err := Open(tt.data, opts); !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Open() error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

func TestOpenCSV_UnknownCharset(t *testing.T) {
	if _, err := OpenCSV([]byte{0xff, 0xfe, 'a'}, "klingon"); err == nil {
		t.Error("expected error for unknown charset")
	}
}

func TestOpen_UnknownFormat(t *testing.T) {
	if _, err := Open([]byte("x"), Options{Format: "ods"}); err == nil {
		t.Error("expected error for unregistered format")
	}
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		dim    string
		want   Range
		wantOK bool
	}{
		{"B2:AC120", Range{StartRow: 1, StartCol: 1, EndRow: 119, EndCol: 28}, true},
		{"A1:AK40", Range{StartRow: 0, StartCol: 0, EndRow: 39, EndCol: 36}, true},
		{"AC120:B2", Range{StartRow: 1, StartCol: 1, EndRow: 119, EndCol: 28}, true},
		{"A1", Range{}, true},
		{" C3 ", Range{StartRow: 2, StartCol: 2, EndRow: 2, EndCol: 2}, true},
		{"", Range{}, false},
		{"A1:", Range{}, false},
		{"1A:B2", Range{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.dim, func(t *testing.T) {
			got, ok := parseDimension(tt.dim)
			if ok != tt.wantOK {
				t.Fatalf("parseDimension(%q) ok = %v, want %v", tt.dim, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseDimension(%q) = %+v, want %+v", tt.dim, got, tt.want)
			}
		})
	}
}
