package intake

import (
	"log/slog"
	"time"

	"github.com/JustHarshit/Citypulse/internal/common"
)

// MaxFileBytes is the default per-file size cap (10 MiB).
const MaxFileBytes = 10 * 1024 * 1024

// RejectReason explains why a candidate was refused.
type RejectReason string

const (
	ReasonUnsupportedType RejectReason = "unsupported_type"
	ReasonTooLarge        RejectReason = "too_large"
)

// Rejection pairs a refused raw descriptor with its reason. Err wraps
// the matching sentinel (common.ErrUnsupportedType or
// common.ErrTooLarge) so callers can branch with errors.Is. Rejections
// for one submission are returned together so the caller can report
// them in a single notification.
type Rejection struct {
	Name   string
	Size   int64
	Reason RejectReason
	Err    error
}

// Validator applies the intake policy and appends accepted files to
// the session batch.
type Validator struct {
	MaxBytes int64
	Logger   *slog.Logger
	now      func() time.Time
}

func NewValidator(maxBytes int64, logger *slog.Logger) *Validator {
	if maxBytes <= 0 {
		maxBytes = MaxFileBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{MaxBytes: maxBytes, Logger: logger, now: time.Now}
}

// Submit validates candidates in input order. Accepted files are
// appended to batch; rejected ones never touch it. A candidate whose
// (name, size) identity already exists in the batch is silently
// dropped: deduplication, not rejection, so it appears in neither
// return value.
func (v *Validator) Submit(batch *Batch, files []RawFile) (accepted []FileCandidate, rejected []Rejection) {
	for _, f := range files {
		mt := DetectMediaType(f.Name)
		if mt == MediaOther {
			rejected = append(rejected, Rejection{
				Name:   f.Name,
				Size:   f.Size,
				Reason: ReasonUnsupportedType,
				Err:    common.WrapError(common.ErrUnsupportedType, f.Name),
			})
			continue
		}
		if f.Size > v.MaxBytes {
			rejected = append(rejected, Rejection{
				Name:   f.Name,
				Size:   f.Size,
				Reason: ReasonTooLarge,
				Err:    common.WrapError(common.ErrTooLarge, f.Name),
			})
			continue
		}
		c := FileCandidate{
			Name:      f.Name,
			ByteSize:  f.Size,
			MediaType: mt,
			AddedAt:   v.now().UTC(),
			Data:      f.Data,
		}
		if batch.contains(c.identity()) {
			v.Logger.Debug("intake.duplicate.skipped", "name", f.Name, "size", f.Size)
			continue
		}
		batch.append(c)
		accepted = append(accepted, c)
	}
	if len(rejected) > 0 {
		v.Logger.Info("intake.submit.rejections", "count", len(rejected))
	}
	v.Logger.Info("intake.submit.ok",
		"accepted", len(accepted),
		"rejected", len(rejected),
		"batch_len", batch.Len(),
	)
	return accepted, rejected
}

// Clear empties the batch.
func (v *Validator) Clear(batch *Batch) {
	batch.Clear()
	v.Logger.Info("intake.batch.cleared")
}
