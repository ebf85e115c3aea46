package chart

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

// RenderFrontHTML renders a configured front as an interactive scatter page:
// frontier points per codec in (bpp, s2), named by config fingerprint, plus
// both knees of the front's calibration.
func RenderFrontHTML(front rd.ConfiguredParetoFront, title string) ([]byte, error) {
	if len(front.Points) == 0 {
		return nil, fmt.Errorf("chart: empty front")
	}
	frame := front.Calibration.Frame
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}

	byCodec := make(map[string][]opts.ScatterData)
	var codecs []string
	frontier := make([]rd.CurvePoint, 0, len(front.Points))
	for _, p := range front.Points {
		frontier = append(frontier, rd.CurvePoint{Bpp: p.Position.Bpp, Ssimulacra2: p.Position.Ssimulacra2})
		codec := p.Config.Codec
		if _, ok := byCodec[codec]; !ok {
			codecs = append(codecs, codec)
		}
		byCodec[codec] = append(byCodec[codec], opts.ScatterData{
			Name:  p.Config.Fingerprint(),
			Value: []interface{}{p.Position.Bpp, p.Position.Ssimulacra2, p.Position.ThetaS2},
		})
	}

	cal := front.Calibration
	lo, hi := cal.DisagreementRange()
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s/%s disagreement %.3g-%.3g bpp", cal.Codec, cal.Corpus, lo, hi)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: frame.BppMax, Name: "bpp", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: frame.S2Max, Name: "SSIMULACRA2", NameLocation: "middle", NameGap: 30}),
	)
	for _, codec := range codecs {
		scatter.AddSeries(codec, byCodec[codec], charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	}

	knees := []opts.ScatterData{
		{Name: "ssimulacra2 knee", Value: []interface{}{cal.Ssimulacra2.Bpp, cal.Ssimulacra2.Quality, cal.Ssimulacra2.FixedAngle}},
	}
	// The frontier is sorted by bpp with s2 increasing, so it interpolates
	// like a curve.
	if s2, ok := rd.InterpolateS2(frontier, cal.Butteraugli.Bpp); ok {
		knees = append(knees, opts.ScatterData{Name: "butteraugli knee", Value: []interface{}{cal.Butteraugli.Bpp, s2, cal.Butteraugli.FixedAngle}})
	}
	scatter.AddSeries("knees", knees,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728"}),
	)

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, fmt.Errorf("chart: render: %w", err)
	}
	return buf.Bytes(), nil
}
