package intake

import (
	"path/filepath"
	"strings"
	"time"
)

// MediaType is the detected document media type.
type MediaType string

const (
	MediaJPEG  MediaType = "jpeg"
	MediaPNG   MediaType = "png"
	MediaBMP   MediaType = "bmp"
	MediaTIFF  MediaType = "tiff"
	MediaPDF   MediaType = "pdf"
	MediaOther MediaType = "other"
)

// DetectMediaType maps a filename extension to a MediaType.
func DetectMediaType(name string) MediaType {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "jpg", "jpeg":
		return MediaJPEG
	case "png":
		return MediaPNG
	case "bmp":
		return MediaBMP
	case "tif", "tiff":
		return MediaTIFF
	case "pdf":
		return MediaPDF
	}
	return MediaOther
}

// RawFile is an unvalidated upload candidate as received from the
// caller. Data may be nil when only metadata is being staged.
type RawFile struct {
	Name string
	Size int64
	Data []byte
}

// FileCandidate is an accepted file. Immutable once in a Batch.
type FileCandidate struct {
	Name      string
	ByteSize  int64
	MediaType MediaType
	AddedAt   time.Time
	Data      []byte
}

// identity is the dedup key for a candidate.
type identity struct {
	name string
	size int64
}

func (c FileCandidate) identity() identity {
	return identity{name: c.Name, size: c.ByteSize}
}
