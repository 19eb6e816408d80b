package orchestrate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustHarshit/Citypulse/internal/common"
	"github.com/JustHarshit/Citypulse/internal/dataset"
	"github.com/JustHarshit/Citypulse/internal/intake"
	"github.com/JustHarshit/Citypulse/internal/simulate"
	"github.com/JustHarshit/Citypulse/internal/transport"
)

type stubClient struct {
	resp    *transport.UploadResponse
	err     error
	release chan struct{} // when set, Upload blocks until closed
	started chan struct{} // closed when Upload is first entered
	once    sync.Once
}

func (s *stubClient) Upload(ctx context.Context, files []intake.FileCandidate, ack func()) (*transport.UploadResponse, error) {
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.release != nil {
		<-s.release
	}
	if s.err == nil && ack != nil {
		ack()
	}
	return s.resp, s.err
}

func newBatch(t *testing.T, names ...string) *intake.Batch {
	t.Helper()
	batch := intake.NewBatch()
	v := intake.NewValidator(0, nil)
	files := make([]intake.RawFile, 0, len(names))
	for i, n := range names {
		files = append(files, intake.RawFile{Name: n, Size: int64(100 + i), Data: []byte("x")})
	}
	accepted, rejected := v.Submit(batch, files)
	require.Len(t, accepted, len(names))
	require.Empty(t, rejected)
	return batch
}

func newOrchestrator(client PipelineClient) *Orchestrator {
	return New(client, simulate.NewSimulator(time.Millisecond, nil), time.Millisecond, nil)
}

func TestProcessEmptyBatchFails(t *testing.T) {
	o := newOrchestrator(&stubClient{})
	_, err := o.Process(context.Background(), intake.NewBatch())
	assert.ErrorIs(t, err, common.ErrEmptyBatch)
}

func TestProcessSecondCallWhileInFlightIsBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	o := newOrchestrator(&stubClient{
		resp:    okResponse("a.png"),
		release: release,
		started: started,
	})
	batch := newBatch(t, "a.png")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.Process(context.Background(), batch)
		assert.NoError(t, err)
	}()

	// Wait for the first call to take the latch and enter Upload.
	<-started

	_, err := o.Process(context.Background(), batch)
	assert.ErrorIs(t, err, common.ErrBusy)

	close(release)
	wg.Wait()

	// Latch released: a new call succeeds again.
	_, err = o.Process(context.Background(), batch)
	assert.NoError(t, err)
}

func TestProcessTransportFailureFallsBackToSimulated(t *testing.T) {
	o := newOrchestrator(&stubClient{err: common.NewAppError("UNREACHABLE", "down", common.ErrTransport)})

	var mu sync.Mutex
	var percents []int
	o.Progress = func(p int, _ string) {
		mu.Lock()
		percents = append(percents, p)
		mu.Unlock()
	}

	batch := newBatch(t, "a.png", "b.png", "c.pdf")
	ds, err := o.Process(context.Background(), batch)

	require.NoError(t, err, "process must resolve, never reject, on pipeline failure")
	assert.Equal(t, dataset.OriginSimulated, ds.Origin)
	assert.Len(t, ds.PerFileResults, batch.Len())
	for _, r := range ds.PerFileResults {
		assert.Equal(t, dataset.OutcomeSuccess, r.Outcome)
		assert.GreaterOrEqual(t, r.RecordCount, 1)
	}
	assert.NotEmpty(t, ds.Records)

	// Checkpoints are non-decreasing and end at 100 even though the
	// narrative restarts its own percentage scale.
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, percents)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestProcessReportsAcknowledgmentCheckpoint(t *testing.T) {
	o := newOrchestrator(&stubClient{resp: okResponse("a.png")})

	var percents []int
	o.Progress = func(p int, _ string) { percents = append(percents, p) }

	_, err := o.Process(context.Background(), newBatch(t, "a.png"))
	require.NoError(t, err)

	// Upload start, server acknowledgment, completion.
	assert.Equal(t, []int{20, 60, 100}, percents)
}

func TestProcessFallbackAfterAcknowledgmentStaysMonotone(t *testing.T) {
	// The server answers (ack fires at 60) but the envelope is a
	// rejection, so the simulator takes over. Its narrative restarts
	// at a low percentage; the clamp must hold the bar at 60.
	o := newOrchestrator(&stubClient{resp: &transport.UploadResponse{Success: false, Error: "overloaded", Results: []transport.FileResult{}}})

	var percents []int
	o.Progress = func(p int, _ string) { percents = append(percents, p) }

	ds, err := o.Process(context.Background(), newBatch(t, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, dataset.OriginSimulated, ds.Origin)

	require.NotEmpty(t, percents)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Contains(t, percents, 60)
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestProcessStampsRequestIDIntoContext(t *testing.T) {
	var gotReqID string
	client := &captureClient{onUpload: func(ctx context.Context) {
		gotReqID = common.RequestIDFromContext(ctx)
	}}
	o := newOrchestrator(client)

	_, err := o.Process(context.Background(), newBatch(t, "a.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, gotReqID)
}

type captureClient struct {
	onUpload func(ctx context.Context)
}

func (c *captureClient) Upload(ctx context.Context, files []intake.FileCandidate, ack func()) (*transport.UploadResponse, error) {
	c.onUpload(ctx)
	if ack != nil {
		ack()
	}
	return okResponse("a.png"), nil
}

func TestProcessServerRejectionFallsBack(t *testing.T) {
	o := newOrchestrator(&stubClient{resp: &transport.UploadResponse{Success: false, Error: "overloaded", Results: []transport.FileResult{}}})
	ds, err := o.Process(context.Background(), newBatch(t, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, dataset.OriginSimulated, ds.Origin)
}

func TestProcessResultCountMismatchFallsBack(t *testing.T) {
	o := newOrchestrator(&stubClient{resp: okResponse("a.png")})
	ds, err := o.Process(context.Background(), newBatch(t, "a.png", "b.png"))
	require.NoError(t, err)
	assert.Equal(t, dataset.OriginSimulated, ds.Origin)
}

func TestProcessSuccessMapsEnvelope(t *testing.T) {
	resp := &transport.UploadResponse{
		Success:        true,
		ProcessedCount: 3,
		Results: []transport.FileResult{
			{Filename: "a.png", DocumentKind: "traffic_map", RecordCount: 1},
			{Filename: "b.png", Error: "processing failed: bad image"},
			{Filename: "c.pdf", DocumentKind: "data_table", RecordCount: 1},
		},
		Records: []dataset.TrafficRecord{
			{SourceFile: "a.png", Location: "Downtown", SpeedKmh: 45, Condition: dataset.ConditionGood},
			{SourceFile: "b.png", Location: "Ghost", SpeedKmh: 1, Condition: dataset.ConditionGood},
			{SourceFile: "c.pdf", Location: "Harbor", SpeedKmh: 20, Condition: dataset.ConditionCongested, Volume: 900},
		},
	}
	o := newOrchestrator(&stubClient{resp: resp})

	ds, err := o.Process(context.Background(), newBatch(t, "a.png", "b.png", "c.pdf"))
	require.NoError(t, err)

	assert.Equal(t, dataset.OriginServer, ds.Origin)
	require.Len(t, ds.PerFileResults, 3)

	errCount := 0
	for _, r := range ds.PerFileResults {
		if r.Outcome == dataset.OutcomeError {
			errCount++
			assert.Equal(t, "b.png", r.Filename)
			assert.NotEmpty(t, r.ErrorDetail)
		}
	}
	assert.Equal(t, 1, errCount)

	// Records from the errored file are discarded.
	require.Len(t, ds.Records, 2)
	for _, rec := range ds.Records {
		assert.NotEqual(t, "b.png", rec.SourceFile)
	}
}

func okResponse(names ...string) *transport.UploadResponse {
	resp := &transport.UploadResponse{Success: true, ProcessedCount: len(names)}
	for _, n := range names {
		resp.Results = append(resp.Results, transport.FileResult{Filename: n, DocumentKind: "unknown", RecordCount: 0})
	}
	return resp
}
