// Package sheet reads tabular odds exports and scans them into records.
package sheet

// Range is a rectangular block of cells, 0-based and inclusive on both ends.
type Range struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Cell is one present cell. Value holds the typed value (string, float64 or
// bool) when the source knows it; Text is the formatted display text.
type Cell struct {
	Value any
	Text  string
}

// Sheet is a parsed rectangular sheet.
type Sheet interface {
	// Bounds returns the declared cell range; ok is false when the sheet has no usable range.
	Bounds() (r Range, ok bool)
	// Cell returns the cell at row/col, ok is false when no cell exists there.
	Cell(row, col int) (c Cell, ok bool)
}

// Grid is an in-memory Sheet backed by a row-major cell slice.
type Grid struct {
	rows   [][]*Cell
	bounds Range
	ok     bool
}

// NewGrid builds a grid from rows. A nil cell means "no cell".
// The bounds are the smallest range covering every present cell.
func NewGrid(rows [][]*Cell) *Grid {
	g := &Grid{rows: rows}
	for r, row := range rows {
		for c, cell := range row {
			if cell == nil {
				continue
			}
			if !g.ok {
				g.bounds = Range{StartRow: r, StartCol: c, EndRow: r, EndCol: c}
				g.ok = true
				continue
			}
			g.bounds.StartRow = min(g.bounds.StartRow, r)
			g.bounds.StartCol = min(g.bounds.StartCol, c)
			g.bounds.EndRow = max(g.bounds.EndRow, r)
			g.bounds.EndCol = max(g.bounds.EndCol, c)
		}
	}
	return g
}

// Cover widens the range to include a declared one. Workbooks written by
// some tools carry a stale declared dimension, so the computed extent is kept.
func (g *Grid) Cover(r Range) *Grid {
	if r.StartRow < 0 || r.StartCol < 0 || r.EndRow < r.StartRow || r.EndCol < r.StartCol {
		return g
	}
	if !g.ok {
		g.bounds, g.ok = r, true
		return g
	}
	g.bounds.StartRow = min(g.bounds.StartRow, r.StartRow)
	g.bounds.StartCol = min(g.bounds.StartCol, r.StartCol)
	g.bounds.EndRow = max(g.bounds.EndRow, r.EndRow)
	g.bounds.EndCol = max(g.bounds.EndCol, r.EndCol)
	return g
}

func (g *Grid) Bounds() (Range, bool) {
	return g.bounds, g.ok
}

func (g *Grid) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= len(g.rows) {
		return Cell{}, false
	}
	r := g.rows[row]
	if col < 0 || col >= len(r) || r[col] == nil {
		return Cell{}, false
	}
	return *r[col], true
}
