package rd

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned when an axis range has max <= min or a
// non-finite bound.
var ErrInvalidRange = errors.New("invalid axis range")

// AxisRange is a closed interval used to normalize one axis to [0, 1].
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewAxisRange validates and returns a range. Normalizing over a zero-width
// range would divide by zero, so it is rejected here.
func NewAxisRange(min, max float64) (AxisRange, error) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return AxisRange{}, fmt.Errorf("%w: non-finite bound [%v, %v]", ErrInvalidRange, min, max)
	}
	if max <= min {
		return AxisRange{}, fmt.Errorf("%w: max %v must exceed min %v", ErrInvalidRange, max, min)
	}
	return AxisRange{Min: min, Max: max}, nil
}

// mustAxisRange is for compiled-in constants only.
func mustAxisRange(min, max float64) AxisRange {
	r, err := NewAxisRange(min, max)
	if err != nil {
		panic(err)
	}
	return r
}

func (r AxisRange) Normalize(v float64) float64 {
	return (v - r.Min) / (r.Max - r.Min)
}

func (r AxisRange) Denormalize(n float64) float64 {
	return n*(r.Max-r.Min) + r.Min
}

func (r AxisRange) Span() float64 {
	return r.Max - r.Min
}

// QualityDirection says which way a quality metric improves.
type QualityDirection int

const (
	HigherIsBetter QualityDirection = iota
	LowerIsBetter
)

func (d QualityDirection) String() string {
	switch d {
	case HigherIsBetter:
		return "higher_is_better"
	case LowerIsBetter:
		return "lower_is_better"
	default:
		return fmt.Sprintf("QualityDirection(%d)", int(d))
	}
}

func (d QualityDirection) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *QualityDirection) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("quality direction: %w", err)
	}
	switch s {
	case "higher_is_better":
		*d = HigherIsBetter
	case "lower_is_better":
		*d = LowerIsBetter
	default:
		return fmt.Errorf("unknown quality direction %q", s)
	}
	return nil
}

// NormalizationContext is the per-curve normalization used by knee detection.
// It is built from a curve's own observed ranges, not from the FixedFrame.
type NormalizationContext struct {
	BppRange     AxisRange        `json:"bpp_range"`
	QualityRange AxisRange        `json:"quality_range"`
	Direction    QualityDirection `json:"direction"`
}

func (c NormalizationContext) NormalizeBpp(bpp float64) float64 {
	return c.BppRange.Normalize(bpp)
}

// NormalizeQuality maps a raw metric value to [0, 1] with 1 always best.
func (c NormalizationContext) NormalizeQuality(raw float64) float64 {
	n := c.QualityRange.Normalize(raw)
	if c.Direction == LowerIsBetter {
		return 1 - n
	}
	return n
}
