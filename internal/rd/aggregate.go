package rd

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Measurement is one encode of one image at one quality setting.
type Measurement struct {
	Image          string  `json:"image"`
	QualitySetting float64 `json:"quality_setting"`
	Bpp            float64 `json:"bpp"`
	Ssimulacra2    float64 `json:"ssimulacra2"`
	Butteraugli    float64 `json:"butteraugli"`
	EncodeTimeMs   float64 `json:"encode_time_ms,omitempty"`
}

func (m Measurement) finite() bool {
	for _, v := range []float64{m.Bpp, m.Ssimulacra2, m.Butteraugli} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AggregateMeasurements averages measurements per quality setting across the
// corpus and returns the curve ascending by bpp. Non-finite measurements are
// dropped. ImageCount is the number of distinct images that contributed.
func AggregateMeasurements(corpus, codec string, measurements []Measurement) CorpusAggregate {
	type level struct {
		bpp, s2, ba []float64
	}
	byQuality := make(map[float64]*level)
	images := make(map[string]struct{})
	for _, m := range measurements {
		if !m.finite() {
			continue
		}
		l, ok := byQuality[m.QualitySetting]
		if !ok {
			l = &level{}
			byQuality[m.QualitySetting] = l
		}
		l.bpp = append(l.bpp, m.Bpp)
		l.s2 = append(l.s2, m.Ssimulacra2)
		l.ba = append(l.ba, m.Butteraugli)
		images[m.Image] = struct{}{}
	}

	curve := make([]CurvePoint, 0, len(byQuality))
	for _, l := range byQuality {
		curve = append(curve, CurvePoint{
			Bpp:         stat.Mean(l.bpp, nil),
			Ssimulacra2: stat.Mean(l.s2, nil),
			Butteraugli: stat.Mean(l.ba, nil),
		})
	}
	sort.Slice(curve, func(i, j int) bool { return curve[i].Bpp < curve[j].Bpp })

	return CorpusAggregate{
		Corpus:     corpus,
		Codec:      codec,
		Curve:      curve,
		ImageCount: len(images),
	}
}

// MeasurementPoints converts measurements into RDPoints using SSIMULACRA2 as quality.
func MeasurementPoints(codec string, measurements []Measurement) []RDPoint {
	points := make([]RDPoint, 0, len(measurements))
	for _, m := range measurements {
		p := NewRDPoint(codec, m.QualitySetting, m.Bpp, m.Ssimulacra2)
		if m.Image != "" {
			img := m.Image
			p.Image = &img
		}
		if m.EncodeTimeMs > 0 {
			t := m.EncodeTimeMs
			p.EncodeTimeMs = &t
		}
		if p.Validate() != nil {
			continue
		}
		points = append(points, p)
	}
	return points
}
