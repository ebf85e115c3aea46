package rd

import "sort"

// MeasuredDefault is a calibration shipped as a compiled-in fallback, with
// the provenance needed to replace it by a fresh run.
type MeasuredDefault struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Calibration RDCalibration `json:"calibration"`
}

// Measured defaults from corpus calibration runs on 2026-02-03: mozjpeg 4:2:0
// progressive with optimized scans, quality 10-98 step 4, WebFrame.

// MozjpegCID22 was measured on CID22-training (209 images, 512x512).
// s2 knee 0.73 bpp (s2 65.10), ba knee 0.70 bpp (ba 4.38).
func MozjpegCID22() RDCalibration {
	frame := WebFrame
	bppRange := mustAxisRange(0.1760, 3.6274)
	return RDCalibration{
		Frame: frame,
		Ssimulacra2: RDKnee{
			Bpp:        0.7274,
			Quality:    65.10,
			FixedAngle: frame.S2Angle(0.7274, 65.10),
			Norm: NormalizationContext{
				BppRange:     bppRange,
				QualityRange: mustAxisRange(-8.48, 87.99),
				Direction:    HigherIsBetter,
			},
		},
		Butteraugli: RDKnee{
			Bpp:        0.7048,
			Quality:    4.378,
			FixedAngle: frame.BaAngle(0.7048, 4.378),
			Norm: NormalizationContext{
				BppRange:     bppRange,
				QualityRange: mustAxisRange(1.854, 11.663),
				Direction:    LowerIsBetter,
			},
		},
		Corpus:     "CID22-training",
		Codec:      "mozjpeg-420-prog",
		ImageCount: 209,
		ComputedAt: "2026-02-03T22:56:01Z",
	}
}

// MozjpegCLIC2025 was measured on CLIC2025-training (32 images, ~2048px).
// s2 knee 0.46 bpp (s2 58.95), ba knee 0.39 bpp (ba 5.19).
func MozjpegCLIC2025() RDCalibration {
	frame := WebFrame
	bppRange := mustAxisRange(0.1194, 3.0694)
	return RDCalibration{
		Frame: frame,
		Ssimulacra2: RDKnee{
			Bpp:        0.4623,
			Quality:    58.95,
			FixedAngle: frame.S2Angle(0.4623, 58.95),
			Norm: NormalizationContext{
				BppRange:     bppRange,
				QualityRange: mustAxisRange(-16.94, 87.63),
				Direction:    HigherIsBetter,
			},
		},
		Butteraugli: RDKnee{
			Bpp:        0.3948,
			Quality:    5.192,
			FixedAngle: frame.BaAngle(0.3948, 5.192),
			Norm: NormalizationContext{
				BppRange:     bppRange,
				QualityRange: mustAxisRange(1.895, 13.264),
				Direction:    LowerIsBetter,
			},
		},
		Corpus:     "CLIC2025-training",
		Codec:      "mozjpeg-420-prog",
		ImageCount: 32,
		ComputedAt: "2026-02-03T23:09:01Z",
	}
}

// DefaultCalibrationName is the default used when a request names none.
const DefaultCalibrationName = "mozjpeg-420-prog/CID22-training"

// MeasuredDefaults returns every shipped default keyed by "<codec>/<corpus>".
func MeasuredDefaults() map[string]MeasuredDefault {
	out := make(map[string]MeasuredDefault)
	for _, d := range []struct {
		desc string
		cal  RDCalibration
	}{
		{"mozjpeg 4:2:0 progressive on CID22-training, reference knee of WebFrame", MozjpegCID22()},
		{"mozjpeg 4:2:0 progressive on CLIC2025-training", MozjpegCLIC2025()},
	} {
		name := d.cal.Codec + "/" + d.cal.Corpus
		out[name] = MeasuredDefault{Name: name, Description: d.desc, Calibration: d.cal}
	}
	return out
}

// MeasuredDefaultNames returns the keys of MeasuredDefaults, sorted.
func MeasuredDefaultNames() []string {
	defaults := MeasuredDefaults()
	names := make([]string, 0, len(defaults))
	for n := range defaults {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
