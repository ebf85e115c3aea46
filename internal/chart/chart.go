// Package chart renders an aggregate curve and its calibration inside the
// fixed frame as SVG, and configured fronts as interactive HTML.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

const (
	width      = 8 * vg.Inch
	height     = 6 * vg.Inch
	rayStepDeg = 15
)

var (
	rayColor      = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	balancedColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	curveColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	s2KneeColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	baKneeColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	bandColor     = color.RGBA{R: 255, G: 200, B: 120, A: 70}
)

// RenderSVG plots the SSIMULACRA2 curve in raw units with angle rays from the
// worst corner, both knees and the disagreement band.
func RenderSVG(curve []rd.CurvePoint, cal rd.RDCalibration, title string) ([]byte, error) {
	if len(curve) == 0 {
		return nil, fmt.Errorf("chart: empty curve")
	}
	frame := cal.Frame
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "bits per pixel"
	p.Y.Label.Text = "SSIMULACRA2"
	p.X.Min, p.X.Max = 0, frame.BppMax
	p.Y.Min, p.Y.Max = 0, frame.S2Max

	lo, hi := cal.DisagreementRange()
	if hi > lo {
		band, err := plotter.NewPolygon(plotter.XYs{
			{X: lo, Y: 0}, {X: hi, Y: 0}, {X: hi, Y: frame.S2Max}, {X: lo, Y: frame.S2Max},
		})
		if err != nil {
			return nil, fmt.Errorf("chart: band: %w", err)
		}
		band.Color = bandColor
		band.LineStyle.Width = 0
		p.Add(band)
		p.Legend.Add("metric disagreement", band)
	}

	for deg := 0; deg <= 90; deg += rayStepDeg {
		ray, err := plotter.NewLine(rayPoints(frame, float64(deg)))
		if err != nil {
			return nil, fmt.Errorf("chart: ray %d: %w", deg, err)
		}
		ray.Color = rayColor
		ray.Width = vg.Points(0.5)
		ray.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		if deg == 45 {
			ray.Color = balancedColor
			ray.Width = vg.Points(1)
		}
		p.Add(ray)
	}

	pts := make(plotter.XYs, 0, len(curve))
	for _, c := range curve {
		pts = append(pts, plotter.XY{X: c.Bpp, Y: c.Ssimulacra2})
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("chart: curve: %w", err)
	}
	line.Color = curveColor
	line.Width = vg.Points(1.5)
	points.Color = curveColor
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Legend.Add(cal.Codec, line, points)

	s2Knee, err := kneeMarker(cal.Ssimulacra2.Bpp, cal.Ssimulacra2.Quality, s2KneeColor, draw.TriangleGlyph{})
	if err != nil {
		return nil, err
	}
	p.Add(s2Knee)
	p.Legend.Add(fmt.Sprintf("s2 knee %.1f°", cal.Ssimulacra2.FixedAngle), s2Knee)

	// The ba knee lives on the butteraugli axis; show it where the s2 curve
	// crosses its bpp.
	if y, ok := rd.InterpolateS2(curve, cal.Butteraugli.Bpp); ok {
		baKnee, err := kneeMarker(cal.Butteraugli.Bpp, y, baKneeColor, draw.BoxGlyph{})
		if err != nil {
			return nil, err
		}
		p.Add(baKnee)
		p.Legend.Add(fmt.Sprintf("ba knee %.1f°", cal.Butteraugli.FixedAngle), baKnee)
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: write svg: %w", err)
	}
	return buf.Bytes(), nil
}

func kneeMarker(bpp, s2 float64, c color.Color, shape draw.GlyphDrawer) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(plotter.XYs{{X: bpp, Y: s2}})
	if err != nil {
		return nil, fmt.Errorf("chart: knee marker: %w", err)
	}
	s.Color = c
	s.Shape = shape
	s.Radius = vg.Points(5)
	return s, nil
}

// rayPoints walks a constant-angle ray from (BppMax, 0) until it leaves the
// frame, in raw units.
func rayPoints(f rd.FixedFrame, deg float64) plotter.XYs {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	// Normalized distance t along (-cos, sin/aspect) until an edge.
	t := math.Inf(1)
	if cos > 1e-12 {
		t = 1 / cos
	}
	if sin > 1e-12 {
		t = math.Min(t, f.Aspect/sin)
	}
	return plotter.XYs{
		{X: f.BppMax, Y: 0},
		{X: f.BppMax * (1 - t*cos), Y: f.S2Max * t * sin / f.Aspect},
	}
}
