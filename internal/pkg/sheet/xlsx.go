package sheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FormatXLSX is the Office Open XML workbook format.
const FormatXLSX = "xlsx"

func init() {
	Register(FormatXLSX, func(data []byte, _ Options) (Sheet, error) {
		return OpenXLSX(data)
	})
}

// OpenXLSX reads the first worksheet of an xlsx workbook into memory. Numeric
// cells keep their float value so column-0 date serials can be recognised.
func OpenXLSX(data []byte) (*Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return NewGrid(nil), nil
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", name, err)
	}

	rows := make([][]*Cell, len(raw))
	for r, cols := range raw {
		row := make([]*Cell, len(cols))
		for c, v := range cols {
			if v == "" {
				continue
			}
			cell, err := typedCell(f, name, r, c, v)
			if err != nil {
				return nil, err
			}
			row[c] = cell
		}
		rows[r] = row
	}

	g := NewGrid(rows)
	if dim, err := f.GetSheetDimension(name); err == nil {
		if declared, ok := parseDimension(dim); ok {
			g.Cover(declared)
		}
	}
	return g, nil
}

func typedCell(f *excelize.File, sheet string, row, col int, raw string) (*Cell, error) {
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return &Cell{Value: raw, Text: raw}, nil
	}

	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return nil, err
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return nil, fmt.Errorf("cell type of %s: %w", ref, err)
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return &Cell{Value: num, Text: raw}, nil
	case excelize.CellTypeBool:
		return &Cell{Value: num != 0, Text: raw}, nil
	}
	return &Cell{Value: raw, Text: raw}, nil
}

// parseDimension turns an "A1:AC120" reference into a 0-based range.
func parseDimension(dim string) (Range, bool) {
	dim = strings.TrimSpace(dim)
	if dim == "" {
		return Range{}, false
	}
	first, last, found := strings.Cut(dim, ":")
	if !found {
		last = first
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return Range{}, false
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return Range{}, false
	}
	return Range{
		StartRow: min(startRow, endRow) - 1,
		StartCol: min(startCol, endCol) - 1,
		EndRow:   max(startRow, endRow) - 1,
		EndCol:   max(startCol, endCol) - 1,
	}, true
}
