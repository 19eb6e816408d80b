package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustHarshit/Citypulse/internal/common"
	"github.com/JustHarshit/Citypulse/internal/dataset"
	"github.com/JustHarshit/Citypulse/internal/intake"
)

var mapDoc = []byte("traffic map route\nDowntown 45 km/h\nRiverside 30 km/h")

func TestProcessFileSuccess(t *testing.T) {
	p := NewProcessor(nil)

	res, recs := p.ProcessFile(context.Background(), "map.png", mapDoc)

	assert.Equal(t, dataset.OutcomeSuccess, res.Outcome)
	assert.Equal(t, dataset.KindTrafficMap, res.DocumentKind)
	assert.Equal(t, len(recs), res.RecordCount)
	assert.NotEmpty(t, recs)
	assert.False(t, res.CompletedAt.IsZero())
}

func TestProcessFileZeroRecordsIsStillSuccess(t *testing.T) {
	p := NewProcessor(nil)

	res, recs := p.ProcessFile(context.Background(), "blank.png", []byte("lorem ipsum dolor"))

	assert.Equal(t, dataset.OutcomeSuccess, res.Outcome)
	assert.Equal(t, dataset.KindUnknown, res.DocumentKind)
	assert.Equal(t, 0, res.RecordCount)
	assert.Empty(t, recs)
}

func TestProcessFileEmptyDocumentIsError(t *testing.T) {
	p := NewProcessor(nil)

	res, recs := p.ProcessFile(context.Background(), "empty.pdf", nil)

	assert.Equal(t, dataset.OutcomeError, res.Outcome)
	assert.NotEmpty(t, res.ErrorDetail)
	assert.Empty(t, recs)
}

func TestProcessBatchIsolatesPerFileErrors(t *testing.T) {
	p := NewProcessor(nil)
	files := []intake.FileCandidate{
		{Name: "a.png", Data: mapDoc},
		{Name: "broken.pdf", Data: nil},
		{Name: "b.png", Data: mapDoc},
	}

	ds, err := p.ProcessBatch(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, ds.PerFileResults, 3)
	errCount := 0
	for _, r := range ds.PerFileResults {
		if r.Outcome == dataset.OutcomeError {
			errCount++
			assert.Equal(t, "broken.pdf", r.Filename)
		}
	}
	assert.Equal(t, 1, errCount)

	// Records only from the two successes.
	assert.NotEmpty(t, ds.Records)
	for _, rec := range ds.Records {
		assert.NotEqual(t, "broken.pdf", rec.SourceFile)
	}
	assert.Equal(t, dataset.OriginServer, ds.Origin)
}

func TestProcessBatchWithNoFilesIsInternalError(t *testing.T) {
	p := NewProcessor(nil)

	_, err := p.ProcessBatch(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestDominantCondition(t *testing.T) {
	assert.Equal(t, dataset.ConditionGood, dominantCondition(nil))
	assert.Equal(t, dataset.ConditionCongested, dominantCondition(map[dataset.Condition]int{
		dataset.ConditionCongested: 5, dataset.ConditionGood: 1,
	}))
	assert.Equal(t, dataset.ConditionModerate, dominantCondition(map[dataset.Condition]int{
		dataset.ConditionModerate: 5, dataset.ConditionGood: 1,
	}))
}
