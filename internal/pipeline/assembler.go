package pipeline

import (
	"github.com/JustHarshit/Citypulse/internal/dataset"
)

// Assemble flattens per-file record slices into the batch-level
// sequence, preserving file order, and builds the dataset through the
// shared constructor. The constructor's invariant checks are what keep
// this path and the fallback simulator structurally identical.
func Assemble(origin dataset.Origin, results []dataset.ExtractionResult, perFile [][]dataset.TrafficRecord) (*dataset.ProcessedDataset, error) {
	var records []dataset.TrafficRecord
	for _, recs := range perFile {
		records = append(records, recs...)
	}
	return dataset.New(origin, records, results)
}
