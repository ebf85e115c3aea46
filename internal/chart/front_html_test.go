package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

func testFront() rd.ConfiguredParetoFront {
	cal := rd.MozjpegCID22()
	var points []rd.ConfiguredRDPoint
	for _, m := range []struct {
		codec       string
		q           int64
		bpp, s2, ba float64
	}{
		{"mozjpeg", 40, 0.4, 55, 4.5},
		{"mozjpeg", 70, 0.9, 72, 2.4},
		{"jpegli", 90, 1.8, 86, 1.1},
	} {
		points = append(points, rd.ConfiguredRDPoint{
			Position: cal.Position(m.bpp, m.s2, m.ba),
			Config:   rd.NewCodecConfig(m.codec, "1").WithParam("quality", rd.IntParam(m.q)),
		})
	}
	return rd.ComputeConfiguredFront(points, cal, rd.DefaultBins())
}

func TestRenderFrontHTML(t *testing.T) {
	page, err := RenderFrontHTML(testFront(), "frontier")
	require.NoError(t, err)
	out := string(page)
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "jpegli")
	assert.Contains(t, out, "mozjpeg")
	assert.Contains(t, out, "knees")
}

func TestRenderFrontHTMLErrors(t *testing.T) {
	_, err := RenderFrontHTML(rd.ConfiguredParetoFront{Calibration: rd.MozjpegCID22()}, "empty")
	assert.Error(t, err)

	front := testFront()
	front.Calibration.Frame.Aspect = 0
	_, err = RenderFrontHTML(front, "bad frame")
	assert.Error(t, err)
}
