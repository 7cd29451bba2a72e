package validation

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// Issues beyond this many are counted but not kept.
const maxIssues = 50

var (
	dateRe  = regexp.MustCompile(`^\d{2}\.\d{2}\.(\d{2}|\d{4})$`)
	scoreRe = regexp.MustCompile(`^\d+\s*[-:]\s*\d+$`)

	minOdds = decimal.RequireFromString("1.01")
	maxOdds = decimal.RequireFromString("1000")
)

// Issue describes one record that failed validation.
type Issue struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// Report summarizes a validated dataset. Invalid records stay in the dataset;
// the report only surfaces them.
type Report struct {
	Checked int     `json:"checked"`
	Invalid int     `json:"invalid"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Validator implements record validation
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRecord checks one mapped record.
func (v *Validator) ValidateRecord(rec *models.Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	if rec.ID <= 0 {
		return fmt.Errorf("record ID must be positive: %d", rec.ID)
	}

	if rec.HomeTeam == "" {
		return fmt.Errorf("home team cannot be empty")
	}

	if rec.Date != "" && !dateRe.MatchString(rec.Date) {
		return fmt.Errorf("invalid date format: %s", rec.Date)
	}

	if rec.Score != "" && !scoreRe.MatchString(rec.Score) {
		return fmt.Errorf("invalid score: %s", rec.Score)
	}
	if rec.ScoreHT != "" && !scoreRe.MatchString(rec.ScoreHT) {
		return fmt.Errorf("invalid half-time score: %s", rec.ScoreHT)
	}

	for field, raw := range rec.Odds {
		if err := v.ValidateOdds(raw); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	return nil
}

// ValidateOdds checks that raw is a decimal price within a sane range.
func (v *Validator) ValidateOdds(raw string) error {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("odds not numeric: %q", raw)
	}

	if d.LessThan(minOdds) {
		return fmt.Errorf("odds below %s: %s", minOdds, raw)
	}

	if d.GreaterThan(maxOdds) {
		return fmt.Errorf("odds too high (suspicious): %s", raw)
	}

	return nil
}

// Validate checks every record and builds a report.
func (v *Validator) Validate(records []models.Record) Report {
	r := Report{Checked: len(records)}
	for i := range records {
		if err := v.ValidateRecord(&records[i]); err != nil {
			r.Invalid++
			if len(r.Issues) < maxIssues {
				r.Issues = append(r.Issues, Issue{ID: records[i].ID, Reason: err.Error()})
			}
		}
	}
	return r
}
