// Package dataset defines the structured output shared by the real
// extraction path and the fallback simulator. Both paths build their
// result through New so the two stay structurally identical.
package dataset

import (
	"fmt"
	"strings"
	"time"
)

// Origin records which path produced a dataset.
type Origin string

const (
	OriginServer    Origin = "server"
	OriginSimulated Origin = "simulated"
)

// Condition is the categorical traffic state.
type Condition string

const (
	ConditionGood      Condition = "good"
	ConditionModerate  Condition = "moderate"
	ConditionCongested Condition = "congested"
)

// ConditionFromLabel normalizes free-form condition text ("Heavy",
// "Light", "clear"...) to a Condition. The bool reports whether the
// label mapped to anything.
func ConditionFromLabel(label string) (Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "good", "light", "clear", "free":
		return ConditionGood, true
	case "moderate", "medium":
		return ConditionModerate, true
	case "congested", "heavy", "slow", "jammed":
		return ConditionCongested, true
	}
	return "", false
}

// DocumentKind classifies an input document.
type DocumentKind string

const (
	KindTrafficMap DocumentKind = "traffic_map"
	KindSpeedChart DocumentKind = "speed_chart"
	KindDataTable  DocumentKind = "data_table"
	KindScreenshot DocumentKind = "screenshot"
	KindUnknown    DocumentKind = "unknown"
)

// Outcome is the per-file extraction outcome.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// TrafficRecord is one extracted (or synthesized) traffic observation.
// Field values never contain commas; the CSV exporter depends on that.
type TrafficRecord struct {
	SourceFile string    `json:"source_file"`
	Location   string    `json:"location"`
	SpeedKmh   float64   `json:"speed_kmh"`
	Condition  Condition `json:"condition"`
	Volume     int       `json:"volume"`
}

// ExtractionResult is the per-file outcome of a submitted batch.
type ExtractionResult struct {
	Filename     string       `json:"filename"`
	Outcome      Outcome      `json:"outcome"`
	DocumentKind DocumentKind `json:"document_kind"`
	RecordCount  int          `json:"record_count"`
	ErrorDetail  string       `json:"error_detail,omitempty"`
	CompletedAt  time.Time    `json:"completed_at"`
}

// ProcessedDataset is the unit handed to export and visualization.
// Read-only once built.
type ProcessedDataset struct {
	GeneratedAt    time.Time          `json:"generated_at"`
	Origin         Origin             `json:"origin"`
	Records        []TrafficRecord    `json:"records"`
	PerFileResults []ExtractionResult `json:"per_file_results"`
}

// New validates and assembles a ProcessedDataset. Invariants enforced
// here catch structural drift between the server path and the
// simulator: records must be present whenever at least one per-file
// result succeeded with records, record fields must be well formed,
// and every record must reference a file from the batch.
func New(origin Origin, records []TrafficRecord, results []ExtractionResult) (*ProcessedDataset, error) {
	if origin != OriginServer && origin != OriginSimulated {
		return nil, fmt.Errorf("invalid origin %q", origin)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("dataset requires at least one per-file result")
	}

	byFile := make(map[string]struct{}, len(results))
	successRecords := 0
	for _, r := range results {
		if r.Outcome != OutcomeSuccess && r.Outcome != OutcomeError {
			return nil, fmt.Errorf("result %q: invalid outcome %q", r.Filename, r.Outcome)
		}
		byFile[r.Filename] = struct{}{}
		if r.Outcome == OutcomeSuccess {
			successRecords += r.RecordCount
		}
	}
	if successRecords > 0 && len(records) == 0 {
		return nil, fmt.Errorf("successful results report %d records but none were assembled", successRecords)
	}

	for i, rec := range records {
		if rec.Location == "" {
			return nil, fmt.Errorf("record %d: missing location", i)
		}
		if strings.ContainsRune(rec.Location, ',') || strings.ContainsRune(rec.SourceFile, ',') {
			return nil, fmt.Errorf("record %d: comma in field value", i)
		}
		switch rec.Condition {
		case ConditionGood, ConditionModerate, ConditionCongested:
		default:
			return nil, fmt.Errorf("record %d: invalid condition %q", i, rec.Condition)
		}
		if _, ok := byFile[rec.SourceFile]; !ok {
			return nil, fmt.Errorf("record %d: unknown source file %q", i, rec.SourceFile)
		}
	}

	ds := &ProcessedDataset{
		GeneratedAt:    time.Now().UTC(),
		Origin:         origin,
		Records:        append([]TrafficRecord(nil), records...),
		PerFileResults: append([]ExtractionResult(nil), results...),
	}
	return ds, nil
}

// SuccessCount reports how many per-file results succeeded.
func (d *ProcessedDataset) SuccessCount() int {
	n := 0
	for _, r := range d.PerFileResults {
		if r.Outcome == OutcomeSuccess {
			n++
		}
	}
	return n
}
