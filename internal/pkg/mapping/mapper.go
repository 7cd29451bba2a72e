package mapping

import (
	"math"
	"strconv"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// Row is one sparse sheet row keyed by absolute column index. Values are
// string, float64, int or bool; absent columns have no key.
type Row map[int]any

// Text renders the value at col as stored text, "" when absent.
func (r Row) Text(col int) string {
	return Stringify(r[col])
}

// Stringify renders a cell value the way it is persisted.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// Map converts row into a record using the layout for dt. Cells holding a
// numeric zero or false are treated as empty. The returned record has no ID;
// ids are assigned once the final row set is known.
func Map(row Row, dt models.DatasetType) models.Record {
	var rec models.Record
	for _, c := range Table(dt) {
		v := row[c.Offset]
		if blank(v) {
			continue
		}
		rec.Set(c.Field, Stringify(v))
	}
	return rec
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0 || math.IsNaN(x)
	case int:
		return x == 0
	case int64:
		return x == 0
	case bool:
		return !x
	}
	return false
}
