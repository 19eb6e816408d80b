package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JustHarshit/Citypulse/internal/dataset"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		data string
		want dataset.DocumentKind
	}{
		{
			"map keywords",
			"traffic map route\nDowntown 45 km/h",
			dataset.KindTrafficMap,
		},
		{
			"chart keywords",
			"traffic speed chart over time\n45 50 30",
			dataset.KindSpeedChart,
		},
		{
			"screenshot keywords",
			"live camera traffic 25 km/h",
			dataset.KindScreenshot,
		},
		{
			"tabular structure",
			"Zone        Value       Count\nDowntown    42.5        1200\nHarbor      55.0        800",
			dataset.KindDataTable,
		},
		{
			"nothing recognizable",
			"lorem ipsum dolor",
			dataset.KindUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify("doc.png", []byte(tt.data)))
		})
	}
}

func TestLooksTabular(t *testing.T) {
	assert.True(t, looksTabular([]string{"a  b", "c  d"}))
	assert.False(t, looksTabular([]string{"a  b", "single"}))
	assert.False(t, looksTabular(nil))
}
