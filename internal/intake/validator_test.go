package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustHarshit/Citypulse/internal/common"
)

func raw(name string, size int64) RawFile {
	return RawFile{Name: name, Size: size, Data: make([]byte, 0)}
}

func TestSubmitRejectsUnsupportedType(t *testing.T) {
	batch := NewBatch()
	v := NewValidator(0, nil)

	accepted, rejected := v.Submit(batch, []RawFile{raw("notes.txt", 100)})

	assert.Empty(t, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonUnsupportedType, rejected[0].Reason)
	assert.ErrorIs(t, rejected[0].Err, common.ErrUnsupportedType)
	assert.Equal(t, 0, batch.Len())
}

func TestSubmitRejectsTooLarge(t *testing.T) {
	batch := NewBatch()
	v := NewValidator(0, nil)

	accepted, rejected := v.Submit(batch, []RawFile{raw("huge.pdf", MaxFileBytes+1)})

	assert.Empty(t, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonTooLarge, rejected[0].Reason)
	assert.ErrorIs(t, rejected[0].Err, common.ErrTooLarge)
	assert.Equal(t, 0, batch.Len())
}

func TestSubmitDropsDuplicatesSilently(t *testing.T) {
	batch := NewBatch()
	v := NewValidator(0, nil)

	first, rej := v.Submit(batch, []RawFile{raw("map.png", 512)})
	require.Len(t, first, 1)
	require.Empty(t, rej)

	// Same (name, size) identity again: neither accepted nor rejected.
	second, rej := v.Submit(batch, []RawFile{raw("map.png", 512)})
	assert.Empty(t, second)
	assert.Empty(t, rej)
	assert.Equal(t, 1, batch.Len())

	// Same name, different size is a new identity.
	third, _ := v.Submit(batch, []RawFile{raw("map.png", 1024)})
	assert.Len(t, third, 1)
	assert.Equal(t, 2, batch.Len())
}

func TestSubmitMixedScenario(t *testing.T) {
	batch := NewBatch()
	v := NewValidator(0, nil)

	files := []RawFile{
		raw("a.jpg", 100),
		raw("b.jpg", 200),
		raw("c.jpg", 300),
		raw("report.pdf", MaxFileBytes+5),
		raw("a.jpg", 100), // duplicate of the first
	}
	accepted, rejected := v.Submit(batch, files)

	assert.Len(t, accepted, 3)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonTooLarge, rejected[0].Reason)
	assert.Equal(t, 3, batch.Len())
}

func TestSubmitPreservesArrivalOrder(t *testing.T) {
	batch := NewBatch()
	v := NewValidator(0, nil)

	v.Submit(batch, []RawFile{raw("z.png", 1), raw("a.tiff", 2), raw("m.bmp", 3)})

	items := batch.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "z.png", items[0].Name)
	assert.Equal(t, "a.tiff", items[1].Name)
	assert.Equal(t, "m.bmp", items[2].Name)
	assert.Equal(t, MediaTIFF, items[1].MediaType)
}

func TestClearResetsBatch(t *testing.T) {
	batch := NewBatch()
	v := NewValidator(0, nil)

	v.Submit(batch, []RawFile{raw("map.png", 512)})
	require.Equal(t, 1, batch.Len())

	v.Clear(batch)
	assert.Equal(t, 0, batch.Len())

	// A cleared identity may be submitted again.
	accepted, _ := v.Submit(batch, []RawFile{raw("map.png", 512)})
	assert.Len(t, accepted, 1)
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name string
		want MediaType
	}{
		{"photo.JPG", MediaJPEG},
		{"photo.jpeg", MediaJPEG},
		{"scan.tif", MediaTIFF},
		{"report.pdf", MediaPDF},
		{"archive.zip", MediaOther},
		{"noext", MediaOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMediaType(tt.name))
		})
	}
}
