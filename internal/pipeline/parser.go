package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JustHarshit/Citypulse/internal/dataset"
)

var (
	reSpeed    = regexp.MustCompile(`(?i)(\d{1,3})\s*(?:km/?h|kph|mph)`)
	reLocation = regexp.MustCompile(`[A-Z][a-z]+(?: [A-Z][a-z]+)*`)
	reVolume   = regexp.MustCompile(`(?i)(\d{2,6})\s*(?:vehicles|veh|cars)`)
	reNumber   = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// maxLocations bounds how many records one document may yield.
const maxLocations = 5

// words that appear in extracted text but are never location names.
var locationStop = map[string]bool{
	"Speed": true, "Traffic": true, "Congestion": true, "Route": true,
	"Map": true, "Navigation": true, "Street": true, "Chart": true,
	"Graph": true, "Data": true, "Time": true, "Camera": true,
	"Live": true, "Current": true, "Hour": true,
}

// parseTrafficMap pairs recognized location names with speed tokens
// and the color-derived condition. A location without a matching
// speed token is dropped rather than invented.
func parseTrafficMap(rec Recognition, source string) []dataset.TrafficRecord {
	locations := parseLocations(rec.Text)
	speeds := parseSpeeds(rec.Text)
	condition := dominantCondition(rec.ColorVotes)
	volume := parseVolume(rec.Text)

	var out []dataset.TrafficRecord
	for i, loc := range locations {
		if i >= len(speeds) {
			break
		}
		out = append(out, dataset.TrafficRecord{
			SourceFile: source,
			Location:   loc,
			SpeedKmh:   speeds[i],
			Condition:  condition,
			Volume:     volume,
		})
	}
	return out
}

// parseSpeedChart treats each plotted value as an hourly speed
// sample, capped at 24 points.
func parseSpeedChart(rec Recognition, source string) []dataset.TrafficRecord {
	var out []dataset.TrafficRecord
	for i, m := range reNumber.FindAllString(rec.Text, -1) {
		if i >= 24 {
			break
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v <= 0 || v > 200 {
			continue
		}
		out = append(out, dataset.TrafficRecord{
			SourceFile: source,
			Location:   "Hour " + strconv.Itoa(len(out)+1),
			SpeedKmh:   v,
			Condition:  conditionForSpeed(v),
		})
	}
	return out
}

// parseTable converts tabular cell candidates into records. Rows
// missing a parseable location or speed are discarded.
func parseTable(rec Recognition, source string) []dataset.TrafficRecord {
	var out []dataset.TrafficRecord
	for _, line := range rec.Lines {
		cells := splitCells(line)
		if len(cells) < 2 {
			continue
		}
		r := dataset.TrafficRecord{SourceFile: source, SpeedKmh: -1, Volume: 0}
		numerics := 0
		for _, cell := range cells {
			if v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
				switch numerics {
				case 0:
					r.SpeedKmh = v
				case 1:
					r.Volume = int(v)
				}
				numerics++
				continue
			}
			if c, ok := dataset.ConditionFromLabel(cell); ok {
				r.Condition = c
				continue
			}
			if r.Location == "" && !strings.ContainsRune(cell, ',') {
				r.Location = strings.TrimSpace(cell)
			}
		}
		if r.Location == "" || r.SpeedKmh < 0 {
			continue
		}
		if r.Condition == "" {
			r.Condition = conditionForSpeed(r.SpeedKmh)
		}
		out = append(out, r)
	}
	return out
}

// parseScreenshot extracts a single current-route observation from an
// app screenshot, when the text carries enough signal.
func parseScreenshot(rec Recognition, source string) []dataset.TrafficRecord {
	speeds := parseSpeeds(rec.Text)
	if len(speeds) == 0 {
		return nil
	}
	location := "Current Route"
	if locs := parseLocations(rec.Text); len(locs) > 0 {
		location = locs[0]
	}
	condition := dominantCondition(rec.ColorVotes)
	if c, ok := conditionFromText(rec.Text); ok {
		condition = c
	}
	return []dataset.TrafficRecord{{
		SourceFile: source,
		Location:   location,
		SpeedKmh:   speeds[0],
		Condition:  condition,
		Volume:     parseVolume(rec.Text),
	}}
}

// parseGeneric is the fallback for unknown documents: only explicit
// unit-tagged speeds paired with location names survive.
func parseGeneric(rec Recognition, source string) []dataset.TrafficRecord {
	locations := parseLocations(rec.Text)
	speeds := parseSpeeds(rec.Text)
	var out []dataset.TrafficRecord
	for i, loc := range locations {
		if i >= len(speeds) {
			break
		}
		out = append(out, dataset.TrafficRecord{
			SourceFile: source,
			Location:   loc,
			SpeedKmh:   speeds[i],
			Condition:  conditionForSpeed(speeds[i]),
		})
	}
	return out
}

func parseSpeeds(text string) []float64 {
	var speeds []float64
	for _, m := range reSpeed.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			speeds = append(speeds, v)
		}
	}
	return speeds
}

func parseLocations(text string) []string {
	var out []string
outer:
	for _, m := range reLocation.FindAllString(text, -1) {
		if len(m) < 4 {
			continue
		}
		for _, w := range strings.Fields(m) {
			if locationStop[w] {
				continue outer
			}
		}
		out = append(out, m)
		if len(out) == maxLocations {
			break
		}
	}
	return out
}

func parseVolume(text string) int {
	m := reVolume.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return v
}

func conditionFromText(text string) (dataset.Condition, bool) {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if c, ok := dataset.ConditionFromLabel(w); ok {
			return c, true
		}
	}
	return "", false
}

// conditionForSpeed maps a speed to the band the demo generator uses:
// under 25 congested, under 45 moderate, otherwise good.
func conditionForSpeed(v float64) dataset.Condition {
	switch {
	case v < 25:
		return dataset.ConditionCongested
	case v < 45:
		return dataset.ConditionModerate
	default:
		return dataset.ConditionGood
	}
}
