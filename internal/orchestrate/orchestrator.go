// Package orchestrate owns the single outstanding batch transfer: it
// drives the remote extraction call, reports progress checkpoints,
// and substitutes the fallback simulator's dataset when the pipeline
// fails. Once past its preconditions, Process always yields a dataset.
package orchestrate

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JustHarshit/Citypulse/internal/common"
	"github.com/JustHarshit/Citypulse/internal/dataset"
	"github.com/JustHarshit/Citypulse/internal/intake"
	"github.com/JustHarshit/Citypulse/internal/transport"
)

// PipelineClient is the remote extraction pipeline boundary. ack, when
// non-nil, is invoked once the server has acknowledged receipt of the
// request, before its response is decoded or validated.
type PipelineClient interface {
	Upload(ctx context.Context, files []intake.FileCandidate, ack func()) (*transport.UploadResponse, error)
}

// Fallback produces a synthetic dataset when the pipeline fails.
type Fallback interface {
	Simulate(ctx context.Context, files []intake.FileCandidate, progress common.ProgressFunc) *dataset.ProcessedDataset
}

// Orchestrator drives one transfer at a time.
type Orchestrator struct {
	Client   PipelineClient
	Fallback Fallback
	Grace    time.Duration
	Logger   *slog.Logger
	Progress common.ProgressFunc

	busy atomic.Bool
}

func New(client PipelineClient, fallback Fallback, grace time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if grace <= 0 {
		grace = 1500 * time.Millisecond
	}
	return &Orchestrator{Client: client, Fallback: fallback, Grace: grace, Logger: logger}
}

// Process submits the batch to the extraction pipeline and returns its
// dataset, or the simulator's when the pipeline fails. The only error
// paths are the preconditions: an empty batch (ErrEmptyBatch) and a
// second call while one is outstanding (ErrBusy).
func (o *Orchestrator) Process(ctx context.Context, batch *intake.Batch) (*dataset.ProcessedDataset, error) {
	if batch == nil || batch.Len() == 0 {
		return nil, common.NewAppError("EMPTY_BATCH", "no files to process", common.ErrEmptyBatch)
	}
	if !o.busy.CompareAndSwap(false, true) {
		return nil, common.NewAppError("BUSY", "a transfer is already in flight", common.ErrBusy)
	}
	defer o.busy.Store(false)

	// Snapshot so intake mutations after submit cannot shear the
	// in-flight view.
	files := batch.Items()
	progress := o.monotone()
	reqID := uuid.New().String()
	ctx = common.WithRequestID(ctx, reqID)

	progress(20, "uploading batch")
	resp, err := o.Client.Upload(ctx, files, func() {
		progress(60, "server acknowledged")
	})
	if err != nil {
		return o.fallBack(ctx, files, progress, err), nil
	}

	ds, err := o.datasetFromResponse(files, resp)
	if err != nil {
		return o.fallBack(ctx, files, progress, err), nil
	}
	progress(100, "complete")
	o.Logger.Info("orchestrate.transfer.ok",
		"req_id", reqID,
		"files", len(files),
		"records", len(ds.Records),
		"successes", ds.SuccessCount(),
	)
	return ds, nil
}

// fallBack absorbs a pipeline failure: it is logged, never surfaced.
// After the grace interval the simulator's dataset stands in.
func (o *Orchestrator) fallBack(ctx context.Context, files []intake.FileCandidate, progress common.ProgressFunc, cause error) *dataset.ProcessedDataset {
	o.Logger.Warn("orchestrate.transfer.failed", "err", cause, "files", len(files))
	select {
	case <-ctx.Done():
	case <-time.After(o.Grace):
	}
	ds := o.Fallback.Simulate(ctx, files, progress)
	o.Logger.Info("orchestrate.fallback.ok", "files", len(files), "records", len(ds.Records))
	return ds
}

// datasetFromResponse maps the wire envelope onto a ProcessedDataset.
// Anything that does not line up with the submitted batch counts as a
// malformed response.
func (o *Orchestrator) datasetFromResponse(files []intake.FileCandidate, resp *transport.UploadResponse) (*dataset.ProcessedDataset, error) {
	if !resp.Success {
		return nil, common.NewAppError("PIPELINE_FAILED", resp.Error, common.ErrTransport)
	}
	if len(resp.Results) != len(files) {
		return nil, common.NewAppError("MALFORMED_RESPONSE", "result count does not match batch", common.ErrTransport)
	}

	results := make([]dataset.ExtractionResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		res := dataset.ExtractionResult{
			Filename:     r.Filename,
			Outcome:      dataset.OutcomeSuccess,
			DocumentKind: dataset.DocumentKind(r.DocumentKind),
			RecordCount:  r.RecordCount,
			CompletedAt:  time.Now().UTC(),
		}
		if res.DocumentKind == "" {
			res.DocumentKind = dataset.KindUnknown
		}
		if r.Error != "" {
			res.Outcome = dataset.OutcomeError
			res.ErrorDetail = r.Error
			res.RecordCount = 0
		}
		if r.ProcessedAt != "" {
			if ts, err := time.Parse(time.RFC3339, r.ProcessedAt); err == nil {
				res.CompletedAt = ts
			}
		}
		results = append(results, res)
	}

	// Records are kept only for files whose result succeeded.
	failed := make(map[string]bool)
	for _, r := range results {
		if r.Outcome == dataset.OutcomeError {
			failed[r.Filename] = true
		}
	}
	records := make([]dataset.TrafficRecord, 0, len(resp.Records))
	for _, rec := range resp.Records {
		if !failed[rec.SourceFile] {
			records = append(records, rec)
		}
	}

	ds, err := dataset.New(dataset.OriginServer, records, results)
	if err != nil {
		return nil, common.NewAppError("MALFORMED_RESPONSE", "response violates dataset invariants", errors.Join(common.ErrTransport, err))
	}
	return ds, nil
}

// monotone wraps the progress callback so reported percentages never
// decrease within one submission, even when the fallback narrative
// restarts its own scale.
func (o *Orchestrator) monotone() common.ProgressFunc {
	maxSeen := 0
	return func(percent int, label string) {
		if percent < maxSeen {
			percent = maxSeen
		} else {
			maxSeen = percent
		}
		if percent > 100 {
			percent = 100
		}
		if o.Progress != nil {
			o.Progress(percent, label)
		}
	}
}
