// Package pipeline is the server-side document-to-data conversion:
// Classifier -> Recognizer -> Parser -> Assembler. Each file runs the
// stages independently; a failure in any stage is confined to that
// file's ExtractionResult and never aborts its siblings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JustHarshit/Citypulse/internal/common"
	"github.com/JustHarshit/Citypulse/internal/dataset"
	"github.com/JustHarshit/Citypulse/internal/intake"
)

// stageFns bundles the recognizer and parser for one document kind.
// Adding a kind means adding a map entry, not a type hierarchy.
type stageFns struct {
	recognize func(name string, data []byte) (Recognition, error)
	parse     func(rec Recognition, source string) []dataset.TrafficRecord
}

var stagesFor = map[dataset.DocumentKind]stageFns{
	dataset.KindTrafficMap: {recognize: recognizeVisual, parse: parseTrafficMap},
	dataset.KindSpeedChart: {recognize: recognizeText, parse: parseSpeedChart},
	dataset.KindDataTable:  {recognize: recognizeText, parse: parseTable},
	dataset.KindScreenshot: {recognize: recognizeVisual, parse: parseScreenshot},
	dataset.KindUnknown:    {recognize: recognizeText, parse: parseGeneric},
}

var errEmptyDocument = errors.New("empty document")

// Processor runs the four extraction stages per file.
type Processor struct {
	Logger *slog.Logger
	now    func() time.Time
}

func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, now: time.Now}
}

// ProcessFile classifies, recognizes and parses one document. A stage
// panic or error becomes an error-outcome result for this file only.
func (p *Processor) ProcessFile(ctx context.Context, name string, data []byte) (result dataset.ExtractionResult, records []dataset.TrafficRecord) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("pipeline.file.panic", "file", name, "panic", r)
			result = dataset.ExtractionResult{
				Filename:     name,
				Outcome:      dataset.OutcomeError,
				DocumentKind: dataset.KindUnknown,
				ErrorDetail:  fmt.Sprintf("processing failed: %v", r),
				CompletedAt:  p.now().UTC(),
			}
			records = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return p.errorResult(name, err), nil
	}
	if len(data) == 0 {
		return p.errorResult(name, errEmptyDocument), nil
	}

	kind := Classify(name, data)
	stages, ok := stagesFor[kind]
	if !ok {
		stages = stagesFor[dataset.KindUnknown]
	}

	rec, err := stages.recognize(name, data)
	if err != nil {
		p.Logger.Warn("pipeline.recognize.failed", "file", name, "kind", kind, "err", err)
		res := p.errorResult(name, err)
		res.DocumentKind = kind
		return res, nil
	}

	// Zero parsed records is still a success, not an error.
	records = stages.parse(rec, name)
	p.Logger.Info("pipeline.file.ok", "file", name, "kind", kind, "records", len(records))
	return dataset.ExtractionResult{
		Filename:     name,
		Outcome:      dataset.OutcomeSuccess,
		DocumentKind: kind,
		RecordCount:  len(records),
		CompletedAt:  p.now().UTC(),
	}, records
}

// ProcessBatch runs every file through the stages and assembles the
// batch-level dataset. Per-file errors are a normal part of the
// response; the only error returned here is an assembly invariant
// violation.
func (p *Processor) ProcessBatch(ctx context.Context, files []intake.FileCandidate) (*dataset.ProcessedDataset, error) {
	results := make([]dataset.ExtractionResult, 0, len(files))
	perFile := make([][]dataset.TrafficRecord, 0, len(files))
	for _, f := range files {
		res, recs := p.ProcessFile(ctx, f.Name, f.Data)
		results = append(results, res)
		perFile = append(perFile, recs)
	}
	ds, err := Assemble(dataset.OriginServer, results, perFile)
	if err != nil {
		return nil, common.NewAppError("ASSEMBLY_FAILED", "assembling batch dataset", errors.Join(common.ErrInternal, err))
	}
	return ds, nil
}

func (p *Processor) errorResult(name string, err error) dataset.ExtractionResult {
	return dataset.ExtractionResult{
		Filename:     name,
		Outcome:      dataset.OutcomeError,
		DocumentKind: dataset.KindUnknown,
		ErrorDetail:  err.Error(),
		CompletedAt:  p.now().UTC(),
	}
}
