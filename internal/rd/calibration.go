package rd

import "time"

// RDCalibration bundles independently detected knees for SSIMULACRA2 and
// Butteraugli on the same corpus aggregate, with provenance.
type RDCalibration struct {
	Frame       FixedFrame `json:"frame"`
	Ssimulacra2 RDKnee     `json:"ssimulacra2"`
	Butteraugli RDKnee     `json:"butteraugli"`
	Corpus      string     `json:"corpus"`
	Codec       string     `json:"codec"`
	ImageCount  int        `json:"image_count"`
	// ComputedAt is an RFC 3339 timestamp.
	ComputedAt string `json:"computed_at"`
}

// Calibrate runs both knee detectors on agg. It fails if either does.
func Calibrate(agg CorpusAggregate, frame FixedFrame, now time.Time) (RDCalibration, bool) {
	s2, ok := agg.Ssimulacra2Knee(frame)
	if !ok {
		return RDCalibration{}, false
	}
	ba, ok := agg.ButteraugliKnee(frame)
	if !ok {
		return RDCalibration{}, false
	}
	return RDCalibration{
		Frame:       frame,
		Ssimulacra2: s2,
		Butteraugli: ba,
		Corpus:      agg.Corpus,
		Codec:       agg.Codec,
		ImageCount:  agg.ImageCount,
		ComputedAt:  now.UTC().Format(time.RFC3339),
	}, true
}

// DisagreementRange is the bpp interval between the two knees, where the
// metrics disagree about the balanced trade-off.
func (c RDCalibration) DisagreementRange() (lo, hi float64) {
	a, b := c.Ssimulacra2.Bpp, c.Butteraugli.Bpp
	if a < b {
		return a, b
	}
	return b, a
}

func (c RDCalibration) Position(bpp, s2, ba float64) RDPosition {
	return c.Frame.Position(bpp, s2, ba)
}
