package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JustHarshit/Citypulse/internal/dataset"
)

func sampleDataset(t *testing.T) *dataset.ProcessedDataset {
	t.Helper()
	ds, err := dataset.New(dataset.OriginServer,
		[]dataset.TrafficRecord{
			{SourceFile: "a.png", Location: "Downtown", SpeedKmh: 45.5, Condition: dataset.ConditionGood, Volume: 1200},
			{SourceFile: "a.png", Location: "Harbor", SpeedKmh: 20, Condition: dataset.ConditionCongested, Volume: 3400},
			{SourceFile: "b.pdf", Location: "Downtown", SpeedKmh: 30.5, Condition: dataset.ConditionModerate, Volume: 900},
		},
		[]dataset.ExtractionResult{
			{Filename: "a.png", Outcome: dataset.OutcomeSuccess, DocumentKind: dataset.KindTrafficMap, RecordCount: 2, CompletedAt: time.Now()},
			{Filename: "b.pdf", Outcome: dataset.OutcomeSuccess, DocumentKind: dataset.KindDataTable, RecordCount: 1, CompletedAt: time.Now()},
		},
	)
	require.NoError(t, err)
	return ds
}

func TestExportCSV(t *testing.T) {
	svc := NewService(nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	ds := sampleDataset(t)

	content, filename, mime, err := svc.Export(ds, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "traffic_data_20260831.csv", filename)
	assert.Equal(t, "text/csv", mime)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, len(ds.Records)+1)
	assert.Equal(t, "source_file,location,speed_kmh,condition,volume", lines[0])
	assert.Equal(t, "a.png,Downtown,45.5,good,1200", lines[1])
}

func TestExportJSONRoundTrips(t *testing.T) {
	svc := NewService(nil)
	ds := sampleDataset(t)

	content, filename, mime, err := svc.Export(ds, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", mime)
	assert.True(t, strings.HasSuffix(filename, ".json"))

	var decoded dataset.ProcessedDataset
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Len(t, decoded.Records, len(ds.Records))
	assert.Len(t, decoded.PerFileResults, len(ds.PerFileResults))
	assert.Equal(t, ds.Origin, decoded.Origin)
}

func TestExportXLSX(t *testing.T) {
	svc := NewService(nil)
	ds := sampleDataset(t)

	content, filename, _, err := svc.Export(ds, FormatXLSX)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	header, err := f.GetCellValue("Traffic", "A1")
	require.NoError(t, err)
	assert.Equal(t, "source_file", header)
	loc, err := f.GetCellValue("Traffic", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Downtown", loc)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := NewService(nil)
	_, _, _, err := svc.Export(sampleDataset(t), Format("pdf"))
	assert.Error(t, err)
}

func TestBuildVisualizationPayload(t *testing.T) {
	p := BuildVisualizationPayload(sampleDataset(t))

	// Distinct locations in first-occurrence order.
	require.Equal(t, []string{"Downtown", "Harbor"}, p.Categories)

	// Downtown appears twice: mean of 45.5 and 30.5.
	assert.InDelta(t, 38.0, p.Values[0], 0.001)
	assert.InDelta(t, 20.0, p.Values[1], 0.001)

	// Downtown's worst observed condition is moderate.
	assert.Equal(t, []string{"#FFA500", "#FF0000"}, p.Colors)

	assert.Equal(t, "Extracted Traffic Data", p.Title)
	assert.Equal(t, "Speed (km/h)", p.AxisLabels.Y)
}

func TestBuildVisualizationPayloadEmptyDataset(t *testing.T) {
	ds, err := dataset.New(dataset.OriginSimulated, nil, []dataset.ExtractionResult{
		{Filename: "a.png", Outcome: dataset.OutcomeError, DocumentKind: dataset.KindUnknown, ErrorDetail: "x"},
	})
	require.NoError(t, err)

	p := BuildVisualizationPayload(ds)
	assert.Empty(t, p.Categories)
	assert.Empty(t, p.Values)
	assert.Empty(t, p.Colors)
}
