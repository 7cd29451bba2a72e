package sheet

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Spreadsheet serials count days from 1900-01-01 as day 1 and include the
// non-existent 1900-02-29, hence the two-day correction.
var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

const serialCorrection = 2

// SerialToDate renders a spreadsheet date serial as DD.MM.YY.
func SerialToDate(serial float64) string {
	days := serial - serialCorrection
	whole := math.Floor(days)
	t := serialEpoch.AddDate(0, 0, int(whole))
	if frac := days - whole; frac > 0 {
		t = t.Add(time.Duration(frac * float64(24*time.Hour)))
	}
	return t.Format("02.01.06")
}

var decimalComma = regexp.MustCompile(`^\d+,\d+$`)

// FixDecimalComma rewrites "1,85" to "1.85". Anything else is returned unchanged.
func FixDecimalComma(s string) string {
	if !decimalComma.MatchString(s) {
		return s
	}
	return strings.Replace(s, ",", ".", 1)
}

// headerMarkers identify the title row of an export by its first column.
var headerMarkers = []string{"Tarih", "TARİH"}

func isHeader(first string) bool {
	for _, m := range headerMarkers {
		if strings.Contains(first, m) {
			return true
		}
	}
	return false
}
