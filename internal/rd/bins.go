package rd

import (
	"fmt"
	"math"
)

// BinScheme partitions an angle range into Count contiguous bins of Width
// degrees; Start is the center of the first bin.
type BinScheme struct {
	Start float64 `json:"start"`
	Width float64 `json:"width"`
	Count int     `json:"count"`
}

// NewBinScheme covers [lo, hi) with count equal-width bins.
func NewBinScheme(lo, hi float64, count int) (BinScheme, error) {
	if count <= 0 {
		return BinScheme{}, fmt.Errorf("bin scheme: count must be positive, got %d", count)
	}
	if _, err := NewAxisRange(lo, hi); err != nil {
		return BinScheme{}, fmt.Errorf("bin scheme: %w", err)
	}
	width := (hi - lo) / float64(count)
	return BinScheme{Start: lo + width/2, Width: width, Count: count}, nil
}

// DefaultBins is 18 bins of 5° over [0°, 90°).
func DefaultBins() BinScheme {
	return BinScheme{Start: 2.5, Width: 5, Count: 18}
}

// FineBins is 36 bins of 2.5° over [0°, 90°).
func FineBins() BinScheme {
	return BinScheme{Start: 1.25, Width: 2.5, Count: 36}
}

// BinsForCount returns the [0°, 90°) scheme with count bins.
func BinsForCount(count int) (BinScheme, error) {
	return NewBinScheme(0, 90, count)
}

// BinFor returns the bin containing angle. Angles outside the nominal range
// land in the nearest edge bin.
func (s BinScheme) BinFor(angle float64) AngleBin {
	firstEdge := s.Start - s.Width/2
	idx := math.Floor((angle - firstEdge) / s.Width)
	last := float64(s.Count - 1)
	switch {
	case math.IsNaN(idx) || idx < 0:
		idx = 0
	case idx > last:
		idx = last
	}
	return s.bin(int(idx))
}

func (s BinScheme) bin(i int) AngleBin {
	return AngleBin{Index: i, Center: s.Start + float64(i)*s.Width, Width: s.Width}
}

// Bins lists every bin in index order.
func (s BinScheme) Bins() []AngleBin {
	bins := make([]AngleBin, s.Count)
	for i := range bins {
		bins[i] = s.bin(i)
	}
	return bins
}

// AngleBin is one bin of a BinScheme.
type AngleBin struct {
	Index  int     `json:"index"`
	Center float64 `json:"center"`
	Width  float64 `json:"width"`
}

func (b AngleBin) Lo() float64 { return b.Center - b.Width/2 }
func (b AngleBin) Hi() float64 { return b.Center + b.Width/2 }

// Contains is half-open: [Lo, Hi).
func (b AngleBin) Contains(angle float64) bool {
	return angle >= b.Lo() && angle < b.Hi()
}

// DualAngleBin holds the bins of both metric angles of one position.
type DualAngleBin struct {
	S2 AngleBin `json:"s2"`
	Ba AngleBin `json:"ba"`
}
