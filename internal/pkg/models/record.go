package models

// Field is the stored name of one record attribute. The names are part of the
// persisted format: renaming one orphans the value in every stored chunk.
type Field string

// Common fields, identical for both dataset types.
const (
	FieldDate     Field = "date"
	FieldLeague   Field = "league"
	FieldHomeTeam Field = "homeTeam"
	FieldAwayTeam Field = "awayTeam"
	FieldScoreHT  Field = "score_ht"
	FieldScore    Field = "score"

	// Match result 1/X/2
	FieldMS1 Field = "ms1"
	FieldMS0 Field = "ms0"
	FieldMS2 Field = "ms2"

	// Half-time result 1/X/2
	FieldIY1 Field = "iy1"
	FieldIY0 Field = "iy0"
	FieldIY2 Field = "iy2"

	// Both teams to score
	FieldBTTSYes Field = "kg_var"
	FieldBTTSNo  Field = "kg_yok"
)

// Odds fields whose offsets differ between closing and opening exports.
const (
	FieldDC1X Field = "cs_1x"
	FieldDC12 Field = "cs_12"
	FieldDC2X Field = "cs_2x"

	FieldHandicap1 Field = "handicap_1"
	FieldHandicap0 Field = "handicap_0"
	FieldHandicap2 Field = "handicap_2"

	FieldHT15Under Field = "iy15_alt"
	FieldHT15Over  Field = "iy15_ust"
	FieldFT15Under Field = "ms15_alt"
	FieldFT15Over  Field = "ms15_ust"
	FieldFT25Under Field = "ms25_alt"
	FieldFT25Over  Field = "ms25_ust"
	FieldFT35Under Field = "ms35_alt"
	FieldFT35Over  Field = "ms35_ust"

	FieldGoals01    Field = "tg_01"
	FieldGoals23    Field = "tg_23"
	FieldGoals45    Field = "tg_45"
	FieldGoals6Plus Field = "tg_6plus"

	FieldHTFT11 Field = "htft_11"
	FieldHTFT10 Field = "htft_10"
	FieldHTFT12 Field = "htft_12"
	FieldHTFT01 Field = "htft_01"
	FieldHTFT00 Field = "htft_00"
	FieldHTFT02 Field = "htft_02"
	FieldHTFT21 Field = "htft_21"
	FieldHTFT20 Field = "htft_20"
	FieldHTFT22 Field = "htft_22"
)

// Record is one parsed match row of a historical odds export.
// Odds is nil when the row carried no odds at all.
type Record struct {
	ID       int              `json:"id"`
	Date     string           `json:"date,omitempty"`
	League   string           `json:"league,omitempty"`
	HomeTeam string           `json:"homeTeam,omitempty"`
	AwayTeam string           `json:"awayTeam,omitempty"`
	ScoreHT  string           `json:"score_ht,omitempty"`
	Score    string           `json:"score,omitempty"`
	Odds     map[Field]string `json:"odds,omitempty"`
}

// Set assigns value to the named field. Empty values are ignored and a field
// that already holds a value is never overwritten.
func (r *Record) Set(f Field, value string) {
	if value == "" {
		return
	}
	var dst *string
	switch f {
	case FieldDate:
		dst = &r.Date
	case FieldLeague:
		dst = &r.League
	case FieldHomeTeam:
		dst = &r.HomeTeam
	case FieldAwayTeam:
		dst = &r.AwayTeam
	case FieldScoreHT:
		dst = &r.ScoreHT
	case FieldScore:
		dst = &r.Score
	default:
		if _, ok := r.Odds[f]; ok {
			return
		}
		if r.Odds == nil {
			r.Odds = make(map[Field]string)
		}
		r.Odds[f] = value
		return
	}
	if *dst == "" {
		*dst = value
	}
}

// Get returns the value stored for f, or "" when absent.
func (r *Record) Get(f Field) string {
	switch f {
	case FieldDate:
		return r.Date
	case FieldLeague:
		return r.League
	case FieldHomeTeam:
		return r.HomeTeam
	case FieldAwayTeam:
		return r.AwayTeam
	case FieldScoreHT:
		return r.ScoreHT
	case FieldScore:
		return r.Score
	}
	return r.Odds[f]
}

// HasTeams reports whether the record carries a date and both team names.
func (r *Record) HasTeams() bool {
	return r.Date != "" && r.HomeTeam != "" && r.AwayTeam != ""
}
