package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"regexp"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/JustHarshit/Citypulse/internal/dataset"
)

// Recognition holds the raw tokens extracted from one document:
// text runs, tabular lines, and color votes for the traffic
// condition palette.
type Recognition struct {
	Text       string
	Lines      []string
	ColorVotes map[dataset.Condition]int
}

var printableRun = regexp.MustCompile(`[\x20-\x7e]{3,}`)

// textRuns pulls printable ASCII runs out of arbitrary document
// bytes. This works on PDF content streams and on text embedded in
// image metadata alike; garbage runs are discarded later by the
// parser, which only keeps tokens that type-check.
func textRuns(data []byte) []string {
	var runs []string
	for _, m := range printableRun.FindAll(data, -1) {
		s := strings.TrimSpace(string(m))
		if s != "" {
			runs = append(runs, s)
		}
	}
	return runs
}

func textLines(data []byte) []string {
	var lines []string
	for _, chunk := range bytes.Split(data, []byte{'\n'}) {
		for _, run := range textRuns(chunk) {
			lines = append(lines, run)
		}
	}
	return lines
}

// splitCells splits a table line on tabs or runs of two+ spaces.
var cellSep = regexp.MustCompile(`\t|\s{2,}`)

func splitCells(line string) []string {
	var cells []string
	for _, c := range cellSep.Split(strings.TrimSpace(line), -1) {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// recognizeVisual extracts text plus the color histogram used for
// condition detection on rendered documents (maps, screenshots).
func recognizeVisual(name string, data []byte) (Recognition, error) {
	rec := Recognition{
		Text:  strings.Join(textRuns(data), "\n"),
		Lines: textLines(data),
	}
	votes, err := scanConditionColors(data)
	if err == nil {
		rec.ColorVotes = votes
	}
	// An undecodable image still carries its text runs.
	return rec, nil
}

// recognizeText extracts text runs only.
func recognizeText(name string, data []byte) (Recognition, error) {
	return Recognition{
		Text:  strings.Join(textRuns(data), "\n"),
		Lines: textLines(data),
	}, nil
}

// scanConditionColors decodes a raster image and samples its pixels,
// voting green/amber/red pixels into good/moderate/congested.
func scanConditionColors(data []byte) (map[dataset.Condition]int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	votes := map[dataset.Condition]int{}
	b := img.Bounds()
	step := max(b.Dx(), b.Dy()) / 64
	if step < 1 {
		step = 1
	}
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r, g, bl := int(r16>>8), int(g16>>8), int(b16>>8)
			switch {
			case r > 150 && g < 100 && bl < 100:
				votes[dataset.ConditionCongested]++
			case r > 150 && g >= 100 && g < 200 && bl < 100:
				votes[dataset.ConditionModerate]++
			case g > 150 && r < 100 && bl < 100:
				votes[dataset.ConditionGood]++
			}
		}
	}
	return votes, nil
}

// dominantCondition picks the condition with the most color votes.
// No votes, or a tie, resolves to good.
func dominantCondition(votes map[dataset.Condition]int) dataset.Condition {
	if votes[dataset.ConditionCongested] > votes[dataset.ConditionGood] &&
		votes[dataset.ConditionCongested] > votes[dataset.ConditionModerate] {
		return dataset.ConditionCongested
	}
	if votes[dataset.ConditionModerate] > votes[dataset.ConditionGood] {
		return dataset.ConditionModerate
	}
	return dataset.ConditionGood
}
