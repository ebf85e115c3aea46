package rd

import (
	"fmt"
	"math"
)

// FixedFrame is a corpus- and codec-independent coordinate system. Every
// encode is placed by its angle from the worst corner (BppMax, zero quality).
//
//	θ < 0°   worse than the worst corner
//	θ = 0°   worst corner
//	θ = 45°  reference knee
//	θ ≈ 51.5° ideal diagonal (zero bpp, perfect quality)
//	θ = 90°  no compression (BppMax, max quality)
//	θ > 90°  over the rate budget
//
// Angles are deliberately left unclamped.
type FixedFrame struct {
	BppMax float64 `json:"bpp_max"`
	S2Max  float64 `json:"s2_max"`
	BaMax  float64 `json:"ba_max"`
	// Aspect stretches the quality axis so the reference knee sits at 45°.
	Aspect float64 `json:"aspect"`
}

// Reference knee: mozjpeg 4:2:0 progressive on CID22-training.
const (
	referenceKneeBpp = 0.7274
	referenceKneeS2  = 65.10
)

// WebFrame is the standard web-targeting frame.
var WebFrame = FixedFrame{
	BppMax: 4.0,
	S2Max:  100.0,
	BaMax:  15.0,
	Aspect: CalibrateAspect(referenceKneeBpp, referenceKneeS2, 4.0, 100.0),
}

// CalibrateAspect returns the aspect that puts (kneeBpp, kneeS2) at exactly 45°.
func CalibrateAspect(kneeBpp, kneeS2, bppMax, s2Max float64) float64 {
	return (1 - kneeBpp/bppMax) / (kneeS2 / s2Max)
}

func (f FixedFrame) Validate() error {
	if !(f.BppMax > 0) || !(f.S2Max > 0) || !(f.BaMax > 0) || !(f.Aspect > 0) {
		return fmt.Errorf("fixed frame: maxima and aspect must be positive: %+v", f)
	}
	return nil
}

// S2Angle is the corner angle (degrees) for a higher-is-better SSIMULACRA2 score.
func (f FixedFrame) S2Angle(bpp, s2 float64) float64 {
	return cornerAngle(s2/f.S2Max, bpp/f.BppMax, f.Aspect)
}

// BaAngle is the corner angle (degrees) for a lower-is-better Butteraugli
// distance; ba=0 maps to full quality and ba=BaMax to none.
func (f FixedFrame) BaAngle(bpp, ba float64) float64 {
	return cornerAngle(1-ba/f.BaMax, bpp/f.BppMax, f.Aspect)
}

func cornerAngle(qualityNorm, bppNorm, aspect float64) float64 {
	return math.Atan2(qualityNorm*aspect, 1-bppNorm) * 180 / math.Pi
}

// Position places one encode in the frame under both metrics.
func (f FixedFrame) Position(bpp, s2, ba float64) RDPosition {
	return RDPosition{
		ThetaS2:     f.S2Angle(bpp, s2),
		ThetaBa:     f.BaAngle(bpp, ba),
		Bpp:         bpp,
		Ssimulacra2: s2,
		Butteraugli: ba,
	}
}

// RDPosition is one encode's dual-angle placement in a FixedFrame.
type RDPosition struct {
	ThetaS2     float64 `json:"theta_s2"`
	ThetaBa     float64 `json:"theta_ba"`
	Bpp         float64 `json:"bpp"`
	Ssimulacra2 float64 `json:"ssimulacra2"`
	Butteraugli float64 `json:"butteraugli"`
}

func (p RDPosition) InDisagreementZone(cal RDCalibration) bool {
	lo, hi := cal.DisagreementRange()
	return p.Bpp >= lo && p.Bpp <= hi
}

// Bin returns the s2-angle bin.
func (p RDPosition) Bin(scheme BinScheme) AngleBin {
	return scheme.BinFor(p.ThetaS2)
}

func (p RDPosition) DualBin(scheme BinScheme) DualAngleBin {
	return DualAngleBin{
		S2: scheme.BinFor(p.ThetaS2),
		Ba: scheme.BinFor(p.ThetaBa),
	}
}

// ArtifactCharacter summarizes how the two metric angles compare.
type ArtifactCharacter string

const (
	CharacterUniform    ArtifactCharacter = "uniform"
	CharacterStructural ArtifactCharacter = "structural"
	CharacterContrast   ArtifactCharacter = "contrast"
)

// characterTolerance is the angle gap (degrees) still treated as agreement.
const characterTolerance = 1.0

// Character reports uniform when both angles agree within a degree,
// structural when s2 sits higher (better structural fidelity than local
// contrast), contrast otherwise.
func (p RDPosition) Character() ArtifactCharacter {
	d := p.ThetaS2 - p.ThetaBa
	switch {
	case math.Abs(d) <= characterTolerance:
		return CharacterUniform
	case d > 0:
		return CharacterStructural
	default:
		return CharacterContrast
	}
}
