package export

import (
	"github.com/JustHarshit/Citypulse/internal/dataset"
)

// condition colors matching the dashboard palette.
var conditionColors = map[dataset.Condition]string{
	dataset.ConditionGood:      "#00FF00",
	dataset.ConditionModerate:  "#FFA500",
	dataset.ConditionCongested: "#FF0000",
}

// AxisLabels names the two chart axes.
type AxisLabels struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// VisualizationPayload is the chart-ready structure handed to the
// rendering collaborator.
type VisualizationPayload struct {
	Title      string     `json:"title"`
	Categories []string   `json:"categories"`
	Values     []float64  `json:"values"`
	Colors     []string   `json:"colors"`
	AxisLabels AxisLabels `json:"axis_labels"`
}

// BuildVisualizationPayload derives the chart payload from a dataset:
// one category per distinct location in first-occurrence order, the
// mean speed per location as its value, and the color of the worst
// condition observed there. Pure function, no side effects.
func BuildVisualizationPayload(ds *dataset.ProcessedDataset) VisualizationPayload {
	type acc struct {
		sum   float64
		count int
		worst dataset.Condition
	}
	var order []string
	byLoc := make(map[string]*acc)
	for _, r := range ds.Records {
		a, ok := byLoc[r.Location]
		if !ok {
			a = &acc{worst: r.Condition}
			byLoc[r.Location] = a
			order = append(order, r.Location)
		}
		a.sum += r.SpeedKmh
		a.count++
		if severity(r.Condition) > severity(a.worst) {
			a.worst = r.Condition
		}
	}

	p := VisualizationPayload{
		Title:      "Extracted Traffic Data",
		Categories: make([]string, 0, len(order)),
		Values:     make([]float64, 0, len(order)),
		Colors:     make([]string, 0, len(order)),
		AxisLabels: AxisLabels{X: "Location", Y: "Speed (km/h)"},
	}
	for _, loc := range order {
		a := byLoc[loc]
		p.Categories = append(p.Categories, loc)
		p.Values = append(p.Values, a.sum/float64(a.count))
		p.Colors = append(p.Colors, conditionColors[a.worst])
	}
	return p
}

func severity(c dataset.Condition) int {
	switch c {
	case dataset.ConditionCongested:
		return 2
	case dataset.ConditionModerate:
		return 1
	default:
		return 0
	}
}
