// Package export serializes a ProcessedDataset to downloadable
// formats and builds the chart-ready visualization payload.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JustHarshit/Citypulse/internal/dataset"
)

// Format selects the download serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// csvHeader is the fixed TrafficRecord field order for tabular output.
var csvHeader = []string{"source_file", "location", "speed_kmh", "condition", "volume"}

// Service produces export artifacts. It holds no state beyond its
// logger and clock.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// Export serializes the dataset. The filename embeds the current date.
func (s *Service) Export(ds *dataset.ProcessedDataset, format Format) (content []byte, filename string, mimeType string, err error) {
	stamp := s.now().UTC().Format("20060102")
	switch format {
	case FormatCSV:
		content, err = s.exportCSV(ds)
		filename = fmt.Sprintf("traffic_data_%s.csv", stamp)
		mimeType = "text/csv"
	case FormatJSON:
		content, err = json.MarshalIndent(ds, "", "  ")
		filename = fmt.Sprintf("traffic_data_%s.json", stamp)
		mimeType = "application/json"
	case FormatXLSX:
		content, err = s.exportXLSX(ds)
		filename = fmt.Sprintf("traffic_data_%s.xlsx", stamp)
		mimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, "", "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, "", "", err
	}
	s.logger.Info("export.ok", "format", format, "rows", len(ds.Records), "bytes", len(content))
	return content, filename, mimeType, nil
}

func (s *Service) exportCSV(ds *dataset.ProcessedDataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range ds.Records {
		row := []string{
			r.SourceFile,
			r.Location,
			strconv.FormatFloat(r.SpeedKmh, 'f', 1, 64),
			string(r.Condition),
			strconv.Itoa(r.Volume),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *Service) exportXLSX(ds *dataset.ProcessedDataset) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Traffic"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	row := 2
	for _, r := range ds.Records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.SourceFile)
		write(2, r.Location)
		write(3, r.SpeedKmh)
		write(4, string(r.Condition))
		write(5, r.Volume)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // source file
	_ = f.SetColWidth(sheet, "B", "B", 24) // location
	_ = f.SetColWidth(sheet, "C", "E", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
