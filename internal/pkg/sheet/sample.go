package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sampleRows is a small export covering every normalization path: a header
// row, a date serial, decimal commas, plain numbers, a blank row and a row
// without teams.
var sampleRows = [][]any{
	{"Tarih", "Lig", "Ev Sahibi", "Deplasman", "İY", "MS", "MS1", "MS0", "MS2"},
	{45000.0, "Süper Lig", "Galatasaray", "Fenerbahçe", "1-0", "2-1", "1,85", "3,40", 4.1,
		"2,10", "2,05", "4,50", 1.7, "2,05", "1,20", "1,25", "1,95", "1,33", "3,10",
		"3,90", "1,22", "1,90", "1,80", "1,45", "2,60", "3,30", "2,00", "4,00", "12,00",
		"5,50", "15,00", "29,00", "8,00", "5,20", "11,00", "30,00", "16,00"},
	nil,
	{"16.03.2023", "Premier League", "Arsenal", "Chelsea", "0-0", "1-1", 2.2, "3,30", "3,20"},
	{45001.0, "La Liga", nil, nil, nil, nil, "1,50"},
	{"17.03.23", "Serie A", "Roma", "Lazio", "1-1", "2-2", "2,45", "3,10", "2,90",
		nil, nil, nil, "1,75", "2,00", "1,40"},
}

// SampleWorkbook builds the fixed xlsx used for the startup path check and tests.
func SampleWorkbook() ([]byte, error) {
	return BuildWorkbook(sampleRows)
}

// BuildWorkbook writes rows into the first sheet of a fresh workbook. Strings
// are stored as text cells, float64 as numbers, nil leaves the cell out.
func BuildWorkbook(rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			switch x := v.(type) {
			case string:
				err = f.SetCellStr(name, ref, x)
			default:
				err = f.SetCellValue(name, ref, x)
			}
			if err != nil {
				return nil, fmt.Errorf("set %s: %w", ref, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
