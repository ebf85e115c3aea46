package rd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// minSlopeBppDelta is the normalized bpp step below which a segment is skipped.
const minSlopeBppDelta = 1e-12

// kneeSlope is the normalized slope of the 45° tangent.
const kneeSlope = 1.0

// CurvePoint is one quality level of a corpus-averaged curve.
type CurvePoint struct {
	Bpp         float64 `json:"bpp"`
	Ssimulacra2 float64 `json:"ssimulacra2"`
	Butteraugli float64 `json:"butteraugli"`
}

// CorpusAggregate is the per-quality-level averaged curve of one codec over a
// corpus, ascending by bpp.
type CorpusAggregate struct {
	Corpus     string       `json:"corpus"`
	Codec      string       `json:"codec"`
	Curve      []CurvePoint `json:"curve"`
	ImageCount int          `json:"image_count"`
}

// ErrUnsortedCurve means a curve point has lower bpp than its predecessor.
var ErrUnsortedCurve = errors.New("curve is not ascending by bpp")

// CheckOrder reports the first point whose bpp drops below the previous one.
// Equal neighbours are allowed; the knee scan skips zero-width segments.
func (a CorpusAggregate) CheckOrder() error {
	for i := 1; i < len(a.Curve); i++ {
		if a.Curve[i].Bpp < a.Curve[i-1].Bpp {
			return fmt.Errorf("%w: point %d bpp %v after %v", ErrUnsortedCurve, i, a.Curve[i].Bpp, a.Curve[i-1].Bpp)
		}
	}
	return nil
}

// RDKnee is the 45° tangent point of an aggregate curve, found with
// per-curve normalization and then placed in the fixed frame.
type RDKnee struct {
	Bpp        float64              `json:"bpp"`
	Quality    float64              `json:"quality"`
	FixedAngle float64              `json:"fixed_angle"`
	Norm       NormalizationContext `json:"norm"`
}

type qualityAxis struct {
	direction QualityDirection
	extract   func(CurvePoint) float64
	angle     func(bpp, quality float64) float64
}

func s2Axis(frame FixedFrame) qualityAxis {
	return qualityAxis{
		direction: HigherIsBetter,
		extract:   func(p CurvePoint) float64 { return p.Ssimulacra2 },
		angle:     frame.S2Angle,
	}
}

func baAxis(frame FixedFrame) qualityAxis {
	return qualityAxis{
		direction: LowerIsBetter,
		extract:   func(p CurvePoint) float64 { return p.Butteraugli },
		angle:     frame.BaAngle,
	}
}

// Ssimulacra2Knee finds the SSIMULACRA2 knee and expresses it in frame.
func (a CorpusAggregate) Ssimulacra2Knee(frame FixedFrame) (RDKnee, bool) {
	return findKnee(a.Curve, s2Axis(frame))
}

// ButteraugliKnee finds the Butteraugli knee and expresses it in frame.
func (a CorpusAggregate) ButteraugliKnee(frame FixedFrame) (RDKnee, bool) {
	return findKnee(a.Curve, baAxis(frame))
}

// findKnee returns the midpoint of the first segment, scanning up from low
// bpp, whose normalized slope is <= 1. When no segment crosses it falls back
// to the middle segment.
func findKnee(curve []CurvePoint, axis qualityAxis) (RDKnee, bool) {
	if len(curve) < 2 {
		return RDKnee{}, false
	}
	norm, ok := localNormalization(curve, axis)
	if !ok {
		return RDKnee{}, false
	}

	type segment struct {
		idx   int
		slope float64
	}
	var segments []segment
	for i := 0; i+1 < len(curve); i++ {
		b0 := norm.NormalizeBpp(curve[i].Bpp)
		b1 := norm.NormalizeBpp(curve[i+1].Bpp)
		dBpp := b1 - b0
		if math.Abs(dBpp) < minSlopeBppDelta {
			continue
		}
		q0 := norm.NormalizeQuality(axis.extract(curve[i]))
		q1 := norm.NormalizeQuality(axis.extract(curve[i+1]))
		slope := (q1 - q0) / dBpp
		if math.IsNaN(slope) || math.IsInf(slope, 0) {
			continue
		}
		segments = append(segments, segment{idx: i, slope: slope})
	}
	if len(segments) == 0 {
		return RDKnee{}, false
	}

	// TODO: the middle-segment fallback has no derivation behind it; revisit
	// once curves that never flatten below slope 1 have been collected.
	chosen := segments[len(segments)/2]
	for _, s := range segments {
		if s.slope <= kneeSlope {
			chosen = s
			break
		}
	}

	p0, p1 := curve[chosen.idx], curve[chosen.idx+1]
	bpp := (p0.Bpp + p1.Bpp) / 2
	quality := (axis.extract(p0) + axis.extract(p1)) / 2
	return RDKnee{
		Bpp:        bpp,
		Quality:    quality,
		FixedAngle: axis.angle(bpp, quality),
		Norm:       norm,
	}, true
}

func localNormalization(curve []CurvePoint, axis qualityAxis) (NormalizationContext, bool) {
	bpps := make([]float64, len(curve))
	qs := make([]float64, len(curve))
	for i, p := range curve {
		bpps[i] = p.Bpp
		qs[i] = axis.extract(p)
	}
	bppRange, err := NewAxisRange(floats.Min(bpps), floats.Max(bpps))
	if err != nil {
		return NormalizationContext{}, false
	}
	qRange, err := NewAxisRange(floats.Min(qs), floats.Max(qs))
	if err != nil {
		return NormalizationContext{}, false
	}
	return NormalizationContext{
		BppRange:     bppRange,
		QualityRange: qRange,
		Direction:    axis.direction,
	}, true
}

// InterpolateS2 linearly interpolates the s2 value of curve at bpp. It
// reports false outside the curve's bpp span.
func InterpolateS2(curve []CurvePoint, bpp float64) (float64, bool) {
	for i := 0; i+1 < len(curve); i++ {
		b0, b1 := curve[i].Bpp, curve[i+1].Bpp
		if bpp >= b0 && bpp <= b1 && math.Abs(b1-b0) > minSlopeBppDelta {
			t := (bpp - b0) / (b1 - b0)
			return curve[i].Ssimulacra2 + t*(curve[i+1].Ssimulacra2-curve[i].Ssimulacra2), true
		}
	}
	return 0, false
}
