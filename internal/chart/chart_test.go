package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

func TestRenderSVG(t *testing.T) {
	cal := rd.MozjpegCID22()
	curve := []rd.CurvePoint{
		{Bpp: 0.3, Ssimulacra2: 45, Butteraugli: 6},
		{Bpp: 0.7, Ssimulacra2: 65, Butteraugli: 3.5},
		{Bpp: 1.2, Ssimulacra2: 75, Butteraugli: 2.2},
		{Bpp: 2.5, Ssimulacra2: 85, Butteraugli: 1.2},
	}
	svg, err := RenderSVG(curve, cal, "mozjpeg on CID22")
	require.NoError(t, err)
	out := string(svg)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "</svg>")
}

func TestRenderSVGErrors(t *testing.T) {
	_, err := RenderSVG(nil, rd.MozjpegCID22(), "empty")
	assert.Error(t, err)

	cal := rd.MozjpegCID22()
	cal.Frame.BppMax = 0
	_, err = RenderSVG([]rd.CurvePoint{{Bpp: 1, Ssimulacra2: 50, Butteraugli: 3}}, cal, "bad frame")
	assert.Error(t, err)
}

func TestRayPointsStayOnAngle(t *testing.T) {
	f := rd.WebFrame
	for _, deg := range []float64{15, 30, 45, 60, 75} {
		pts := rayPoints(f, deg)
		require.Len(t, pts, 2)
		end := pts[1]
		assert.InDelta(t, deg, f.S2Angle(end.X, end.Y), 1e-9)
		assert.GreaterOrEqual(t, end.X, -1e-9)
		assert.LessOrEqual(t, end.Y, f.S2Max+1e-9)
	}
	// 0 runs along the bpp axis, 90 straight up.
	assert.InDelta(t, 0, rayPoints(f, 0)[1].X, 1e-9)
	vertical := rayPoints(f, 90)[1]
	assert.InDelta(t, f.BppMax, vertical.X, 1e-9)
	assert.False(t, math.IsInf(vertical.Y, 0))
}
