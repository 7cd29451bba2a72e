// Package listing converts scoreboard listing tuples into records. Each tuple
// is a positional array; only a handful of positions are used.
package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Vodeneev/oddsarchive/internal/pkg/mapping"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/sheet"
)

// ErrNoMatches is returned when a payload has no "m" array.
var ErrNoMatches = errors.New("listing payload has no match array")

// Tuple positions.
const (
	IdxHome   = 1
	IdxAway   = 3
	IdxTime   = 6
	IdxDate   = 7
	IdxMS1    = 16
	IdxMS0    = 17
	IdxMS2    = 18
	IdxLeague = 26
)

// SelectionID is the id every stored selection gets.
const SelectionID = 1

// Tuple is one listing row.
type Tuple []any

func (t Tuple) text(i int) string {
	if i < 0 || i >= len(t) {
		return ""
	}
	return mapping.Stringify(t[i])
}

type response struct {
	M []Tuple `json:"m"`
}

// DecodeResponse reads a scoreboard payload of the form {"m": [[...], ...]}.
func DecodeResponse(r io.Reader) ([]Tuple, error) {
	var resp response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	if resp.M == nil {
		return nil, ErrNoMatches
	}
	return resp.M, nil
}

// FromTuple builds the record for one listing row. ok is false when either
// team is missing.
func FromTuple(t Tuple) (rec models.Record, ok bool) {
	home, away := t.text(IdxHome), t.text(IdxAway)
	if home == "" || away == "" {
		return models.Record{}, false
	}

	rec = models.Record{ID: SelectionID}
	rec.Set(models.FieldDate, t.text(IdxDate))
	rec.Set(models.FieldLeague, t.text(IdxLeague))
	rec.Set(models.FieldHomeTeam, home)
	rec.Set(models.FieldAwayTeam, away)
	rec.Set(models.FieldMS1, sheet.FixDecimalComma(t.text(IdxMS1)))
	rec.Set(models.FieldMS0, sheet.FixDecimalComma(t.text(IdxMS0)))
	rec.Set(models.FieldMS2, sheet.FixDecimalComma(t.text(IdxMS2)))
	return rec, true
}

// Records converts every usable tuple, numbering them 1..N.
func Records(tuples []Tuple) []models.Record {
	out := make([]models.Record, 0, len(tuples))
	for _, t := range tuples {
		rec, ok := FromTuple(t)
		if !ok {
			continue
		}
		rec.ID = len(out) + 1
		out = append(out, rec)
	}
	return out
}
