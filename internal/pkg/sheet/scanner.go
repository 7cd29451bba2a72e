package sheet

import (
	"github.com/Vodeneev/oddsarchive/internal/pkg/mapping"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// Rows walks the declared range top to bottom, left to right, and returns
// every row that produced at least one value. Values are normalized: a
// numeric column 0 becomes a DD.MM.YY date and decimal commas become periods.
func Rows(s Sheet) []mapping.Row {
	bounds, ok := s.Bounds()
	if !ok {
		return nil
	}

	var out []mapping.Row
	for r := bounds.StartRow; r <= bounds.EndRow; r++ {
		var row mapping.Row
		for c := bounds.StartCol; c <= bounds.EndCol; c++ {
			cell, ok := s.Cell(r, c)
			if !ok {
				continue
			}
			v := resolve(cell)
			if v == nil {
				continue
			}
			if row == nil {
				row = make(mapping.Row)
			}
			row[c] = normalize(c, v)
		}
		if row != nil {
			out = append(out, row)
		}
	}
	return out
}

// resolve picks the typed value, falling back to the display text.
// It returns nil for cells that hold nothing.
func resolve(c Cell) any {
	v := c.Value
	if v == nil {
		v = c.Text
	}
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

func normalize(col int, v any) any {
	if col == 0 {
		if f, ok := v.(float64); ok {
			return SerialToDate(f)
		}
	}
	if s, ok := v.(string); ok {
		return FixDecimalComma(s)
	}
	return v
}

// Scan maps every data row of s with the layout for dt, drops header rows and
// rows without a home team, and numbers the survivors 1..N.
func Scan(s Sheet, dt models.DatasetType) []models.Record {
	rows := Rows(s)
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec := mapping.Map(row, dt)
		if rejected(row, rec) {
			continue
		}
		rec.ID = len(out) + 1
		out = append(out, rec)
	}
	return out
}

func rejected(row mapping.Row, rec models.Record) bool {
	if isHeader(row.Text(0)) {
		return true
	}
	return rec.HomeTeam == "" && row.Text(2) == ""
}
