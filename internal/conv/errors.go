package conv

import "github.com/pkg/errors"

// Error kinds. Every error returned by this package wraps exactly one of
// them; use errors.Is or IsKind to classify.
var (
	ErrConfiguration     = errors.New("conv: invalid configuration")
	ErrAllocation        = errors.New("conv: allocation failed")
	ErrDimensionMismatch = errors.New("conv: dimension mismatch")
	ErrIndexOutOfRange   = errors.New("conv: index out of range")
	ErrSerialization     = errors.New("conv: malformed stream")
)

// IsKind reports whether err was caused by kind.
func IsKind(err, kind error) bool {
	return err != nil && errors.Cause(err) == kind
}
