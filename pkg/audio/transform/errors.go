package transform

import "fmt"

// Stretch ratio bounds. Outside this range artifacts from the phase
// vocoder are severe enough that the operation is refused.
const (
	MinStretchRatio = 0.5
	MaxStretchRatio = 2.0
)

// StretchRatioError reports a time-stretch request outside the
// supported ratio range.
type StretchRatioError struct {
	Ratio float64 `json:"ratio"`
}

func (e *StretchRatioError) Error() string {
	return fmt.Sprintf("unsupported stretch ratio %.3f: must be within [%.1f, %.1f]",
		e.Ratio, MinStretchRatio, MaxStretchRatio)
}

// NewStretchRatioError creates a new stretch ratio error
func NewStretchRatioError(ratio float64) *StretchRatioError {
	return &StretchRatioError{Ratio: ratio}
}
