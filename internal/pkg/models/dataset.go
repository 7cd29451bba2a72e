package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownDatasetType is returned when a dataset type tag is neither closing nor opening.
var ErrUnknownDatasetType = errors.New("unknown dataset type")

// DatasetType selects which odds schema a sheet uses.
type DatasetType string

const (
	// DatasetClosing holds odds at kick-off.
	DatasetClosing DatasetType = "closing"
	// DatasetOpening holds odds at the moment betting opened.
	DatasetOpening DatasetType = "opening"
)

// DatasetTypes lists both types in restore order.
var DatasetTypes = []DatasetType{DatasetClosing, DatasetOpening}

// ParseDatasetType accepts "closing"/"opening" case-insensitively. An empty tag means closing.
func ParseDatasetType(s string) (DatasetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DatasetClosing):
		return DatasetClosing, nil
	case string(DatasetOpening):
		return DatasetOpening, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDatasetType, s)
}

// Valid reports whether t is one of the two known types.
func (t DatasetType) Valid() bool {
	return t == DatasetClosing || t == DatasetOpening
}

// Key returns the storage key base of the dataset.
func (t DatasetType) Key() string {
	if t == DatasetOpening {
		return KeyOpening
	}
	return KeyClosing
}

// Storage key bases.
const (
	KeyClosing = "matches_closing"
	KeyOpening = "matches_opening"

	// Single-schema key space written by older releases.
	KeyLegacyArchive = "matches"
	KeyLegacyProgram = "program_matches"
)

// DatasetMeta is stored under <key>_meta next to the chunks of a dataset.
type DatasetMeta struct {
	Total     int         `json:"total"`
	Chunks    int         `json:"chunks"`
	Type      DatasetType `json:"type,omitempty"`
	ChunkSize int         `json:"chunk_size,omitempty"`
	Encoding  string      `json:"encoding,omitempty"`
	WrittenAt time.Time   `json:"written_at,omitempty"`
}

// Summary describes what the dataset registry currently holds.
type Summary struct {
	HasClosing   bool        `json:"hasClosing"`
	HasOpening   bool        `json:"hasOpening"`
	ClosingCount int         `json:"closingCount"`
	OpeningCount int         `json:"openingCount"`
	Active       DatasetType `json:"active"`
	Loaded       bool        `json:"loaded"`
}

// ExecutionPath names where an ingestion pipeline actually ran.
type ExecutionPath string

const (
	PathBackground ExecutionPath = "background"
	PathFallback   ExecutionPath = "fallback"
)

// IngestResult is returned by a successful ingestion. Count may be zero: an
// empty or header-only sheet is not a failure.
type IngestResult struct {
	RunID    string        `json:"run_id"`
	Type     DatasetType   `json:"type"`
	Count    int           `json:"count"`
	Path     ExecutionPath `json:"path"`
	Warnings int           `json:"warnings"`
	Duration time.Duration `json:"duration"`
}
