package pipeline

import (
	"strings"

	"github.com/JustHarshit/Citypulse/internal/dataset"
)

// keyword groups driving classification, checked against the
// document's recognized text.
var (
	trafficWords    = []string{"speed", "km/h", "kph", "mph", "traffic", "congestion"}
	mapWords        = []string{"map", "route", "navigation", "street"}
	chartWords      = []string{"chart", "graph", "data", "time"}
	screenshotWords = []string{"camera", "live", "current"}
)

// Classify inspects a document and assigns its kind. Unknown is a
// valid, non-error outcome.
func Classify(name string, data []byte) dataset.DocumentKind {
	text := strings.ToLower(strings.Join(textRuns(data), " "))

	if containsAny(text, trafficWords) {
		switch {
		case containsAny(text, mapWords):
			return dataset.KindTrafficMap
		case containsAny(text, chartWords):
			return dataset.KindSpeedChart
		case containsAny(text, screenshotWords):
			return dataset.KindScreenshot
		}
	}
	if looksTabular(textLines(data)) {
		return dataset.KindDataTable
	}
	return dataset.KindUnknown
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// looksTabular reports whether at least two lines split into two or
// more cells, the minimal shape of a data table.
func looksTabular(lines []string) bool {
	rows := 0
	for _, line := range lines {
		if len(splitCells(line)) >= 2 {
			rows++
			if rows >= 2 {
				return true
			}
		}
	}
	return false
}
