// Package mapping turns sparse positional sheet rows into named records.
//
// The offset tables below are the persisted meaning of every stored dataset.
// Any edit to them must bump TableVersion.
package mapping

import (
	"fmt"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// TableVersion identifies the current column layout.
//
// Version 2 is the layout the background worker of the legacy loader used.
// Version 1 (main-thread fallback of the same loader) shifted every opening
// column from 14 on by one and is not supported.
const TableVersion = 2

// Column binds one absolute sheet column to a record field.
type Column struct {
	Offset int
	Field  models.Field
}

var commonColumns = []Column{
	{0, models.FieldDate},
	{1, models.FieldLeague},
	{2, models.FieldHomeTeam},
	{3, models.FieldAwayTeam},
	{4, models.FieldScoreHT},
	{5, models.FieldScore},
	{6, models.FieldMS1},
	{7, models.FieldMS0},
	{8, models.FieldMS2},
	{9, models.FieldIY1},
	{10, models.FieldIY0},
	{11, models.FieldIY2},
	{12, models.FieldBTTSYes},
	{13, models.FieldBTTSNo},
}

var closingColumns = []Column{
	{14, models.FieldDC1X},
	{15, models.FieldDC12},
	{16, models.FieldDC2X},
	{17, models.FieldHT15Under},
	{18, models.FieldHT15Over},
	{19, models.FieldFT15Under},
	{20, models.FieldFT15Over},
	{21, models.FieldFT25Under},
	{22, models.FieldFT25Over},
	{23, models.FieldFT35Under},
	{24, models.FieldFT35Over},
	{25, models.FieldGoals01},
	{26, models.FieldGoals23},
	{27, models.FieldGoals45},
	{28, models.FieldGoals6Plus},
}

var openingColumns = []Column{
	{14, models.FieldHandicap1},
	{15, models.FieldHandicap0},
	{16, models.FieldHandicap2},
	{17, models.FieldHT15Under},
	{18, models.FieldHT15Over},
	{19, models.FieldFT25Under},
	{20, models.FieldFT25Over},
	{21, models.FieldFT35Under},
	{22, models.FieldFT35Over},
	{23, models.FieldGoals01},
	{24, models.FieldGoals23},
	{25, models.FieldGoals45},
	{26, models.FieldGoals6Plus},
	{27, models.FieldHTFT11},
	{28, models.FieldHTFT10},
	{29, models.FieldHTFT12},
	{30, models.FieldHTFT01},
	{31, models.FieldHTFT00},
	{32, models.FieldHTFT02},
	{33, models.FieldHTFT21},
	{34, models.FieldHTFT20},
	{35, models.FieldHTFT22},
}

var tables = map[models.DatasetType][]Column{
	models.DatasetClosing: concat(commonColumns, closingColumns),
	models.DatasetOpening: concat(commonColumns, openingColumns),
}

func concat(a, b []Column) []Column {
	out := make([]Column, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Table returns the full column layout for dt. Unknown types get the closing layout.
func Table(dt models.DatasetType) []Column {
	if t, ok := tables[dt]; ok {
		return t
	}
	return tables[models.DatasetClosing]
}

// Validate checks that every layout maps each offset and each field at most
// once, and that all layouts agree on the common prefix.
func Validate() error {
	for dt, cols := range tables {
		offsets := make(map[int]models.Field, len(cols))
		fields := make(map[models.Field]int, len(cols))
		for _, c := range cols {
			if c.Offset < 0 {
				return fmt.Errorf("%s layout: negative offset for %s", dt, c.Field)
			}
			if prev, ok := offsets[c.Offset]; ok {
				return fmt.Errorf("%s layout: offset %d mapped to both %s and %s", dt, c.Offset, prev, c.Field)
			}
			if prev, ok := fields[c.Field]; ok {
				return fmt.Errorf("%s layout: field %s mapped from both %d and %d", dt, c.Field, prev, c.Offset)
			}
			offsets[c.Offset] = c.Field
			fields[c.Field] = c.Offset
		}
		for _, c := range commonColumns {
			if offsets[c.Offset] != c.Field {
				return fmt.Errorf("%s layout: common offset %d is %s, want %s", dt, c.Offset, offsets[c.Offset], c.Field)
			}
		}
	}
	return nil
}
