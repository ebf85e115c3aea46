package rd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCurve() []CurvePoint {
	return []CurvePoint{
		{0.10, 25.0, 8.0},
		{0.20, 40.0, 5.5},
		{0.30, 52.0, 3.8},
		{0.50, 62.0, 2.5},
		{0.70, 70.0, 1.8},
		{1.00, 78.0, 1.2},
		{1.50, 84.0, 0.8},
		{2.00, 88.0, 0.6},
		{3.00, 92.0, 0.4},
	}
}

func testAggregate() CorpusAggregate {
	return CorpusAggregate{Corpus: "test", Codec: "test-codec", Curve: testCurve(), ImageCount: 1}
}

func TestSsimulacra2Knee(t *testing.T) {
	knee, ok := testAggregate().Ssimulacra2Knee(WebFrame)
	require.True(t, ok)

	assert.Greater(t, knee.Bpp, 0.2)
	assert.Less(t, knee.Bpp, 2.0)
	assert.Greater(t, knee.Quality, 40.0)
	assert.Less(t, knee.Quality, 90.0)
	assert.Greater(t, knee.FixedAngle, 20.0)
	assert.Less(t, knee.FixedAngle, 70.0)

	// first segment with normalized slope <= 1 is (1.0, 78) -> (1.5, 84)
	assert.InDelta(t, 1.25, knee.Bpp, 1e-9)
	assert.InDelta(t, 81.0, knee.Quality, 1e-9)
	assert.InDelta(t, WebFrame.S2Angle(1.25, 81), knee.FixedAngle, 1e-9)
	assert.Equal(t, HigherIsBetter, knee.Norm.Direction)
	assert.Equal(t, 0.10, knee.Norm.BppRange.Min)
	assert.Equal(t, 92.0, knee.Norm.QualityRange.Max)
}

func TestButteraugliKnee(t *testing.T) {
	knee, ok := testAggregate().ButteraugliKnee(WebFrame)
	require.True(t, ok)

	assert.InDelta(t, 0.85, knee.Bpp, 1e-9)
	assert.InDelta(t, 1.5, knee.Quality, 1e-9)
	assert.Greater(t, knee.FixedAngle, 20.0)
	assert.Less(t, knee.FixedAngle, 70.0)
	assert.Equal(t, LowerIsBetter, knee.Norm.Direction)
}

func TestKneeDegenerateCurves(t *testing.T) {
	tests := []struct {
		name  string
		curve []CurvePoint
	}{
		{"empty", nil},
		{"single point", []CurvePoint{{0.5, 60, 3}}},
		{"equal bpp", []CurvePoint{{0.5, 50, 4}, {0.5, 60, 3}, {0.5, 70, 2}}},
		{"flat quality", []CurvePoint{{0.2, 50, 4}, {0.5, 50, 3}, {0.9, 50, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := CorpusAggregate{Curve: tt.curve}
			_, ok := agg.Ssimulacra2Knee(WebFrame)
			assert.False(t, ok)
		})
	}
}

func TestCheckOrder(t *testing.T) {
	assert.NoError(t, testAggregate().CheckOrder())
	assert.NoError(t, CorpusAggregate{}.CheckOrder())
	assert.NoError(t, CorpusAggregate{Curve: []CurvePoint{{0.5, 50, 4}, {0.5, 60, 3}}}.CheckOrder())

	reversed := testAggregate()
	for i, j := 0, len(reversed.Curve)-1; i < j; i, j = i+1, j-1 {
		reversed.Curve[i], reversed.Curve[j] = reversed.Curve[j], reversed.Curve[i]
	}
	err := reversed.CheckOrder()
	assert.ErrorIs(t, err, ErrUnsortedCurve)
	assert.Contains(t, err.Error(), "point 1")
}

func TestKneeTwoPointCurve(t *testing.T) {
	agg := CorpusAggregate{Curve: []CurvePoint{{0.5, 50, 4}, {1.5, 80, 1}}}
	knee, ok := agg.Ssimulacra2Knee(WebFrame)
	require.True(t, ok)
	// normalized slope is exactly 1 on a two-point curve
	assert.InDelta(t, 1.0, knee.Bpp, 1e-9)
	assert.InDelta(t, 65.0, knee.Quality, 1e-9)
}

func TestKneeFallsBackToMiddleSegment(t *testing.T) {
	// On an ascending monotonic curve some segment always has normalized
	// slope <= 1, so the fallback only fires on out-of-order input.
	curve := []CurvePoint{
		{0.1, 20, 6},
		{1.1, 80, 1},
		{0.6, 32, 4},
		{2.1, 80, 1},
	}
	knee, ok := CorpusAggregate{Curve: curve}.Ssimulacra2Knee(WebFrame)
	require.True(t, ok)
	// slopes 2, 3.2, 1.07: middle segment is (1.1, 80) -> (0.6, 32)
	assert.InDelta(t, 0.85, knee.Bpp, 1e-9)
	assert.InDelta(t, 56.0, knee.Quality, 1e-9)
}

func TestCalibrate(t *testing.T) {
	now := time.Date(2026, 2, 3, 22, 56, 1, 0, time.UTC)
	cal, ok := Calibrate(testAggregate(), WebFrame, now)
	require.True(t, ok)

	assert.Equal(t, "test", cal.Corpus)
	assert.Equal(t, "test-codec", cal.Codec)
	assert.Equal(t, 1, cal.ImageCount)
	assert.Equal(t, "2026-02-03T22:56:01Z", cal.ComputedAt)

	lo, hi := cal.DisagreementRange()
	assert.LessOrEqual(t, lo, hi)
	assert.Greater(t, lo, 0.0)
	assert.InDelta(t, 0.85, lo, 1e-9)
	assert.InDelta(t, 1.25, hi, 1e-9)
}

func TestCalibrateFailsWhenEitherKneeFails(t *testing.T) {
	// butteraugli flat, s2 fine
	agg := CorpusAggregate{Curve: []CurvePoint{{0.2, 40, 2}, {0.5, 60, 2}, {1.0, 75, 2}}}
	_, ok := agg.Ssimulacra2Knee(WebFrame)
	require.True(t, ok)
	_, ok = Calibrate(agg, WebFrame, time.Now())
	assert.False(t, ok)
}

func TestInterpolateS2(t *testing.T) {
	curve := testCurve()
	v, ok := InterpolateS2(curve, 0.4)
	require.True(t, ok)
	assert.InDelta(t, 57.0, v, 1e-9)

	_, ok = InterpolateS2(curve, 5.0)
	assert.False(t, ok)
}

func TestDefaultsKneeAngles(t *testing.T) {
	cal := MozjpegCID22()
	assert.InDelta(t, 45.0, cal.Ssimulacra2.FixedAngle, 0.5)
	assert.Greater(t, cal.Butteraugli.FixedAngle, 40.0)
	assert.Less(t, cal.Butteraugli.FixedAngle, 55.0)

	diff := cal.Ssimulacra2.FixedAngle - cal.Butteraugli.FixedAngle
	if diff < 0 {
		diff = -diff
	}
	assert.Less(t, diff, 10.0)

	defaults := MeasuredDefaults()
	require.Contains(t, defaults, DefaultCalibrationName)
	assert.Equal(t, []string{
		"mozjpeg-420-prog/CID22-training",
		"mozjpeg-420-prog/CLIC2025-training",
	}, MeasuredDefaultNames())
	assert.Equal(t, 32, defaults["mozjpeg-420-prog/CLIC2025-training"].Calibration.ImageCount)
}
