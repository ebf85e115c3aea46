package measure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
	"github.com/MikeSquared-Agency/CodecEval/internal/stats"
)

// Sweep encodes every corpus image at every quality setting and scores the
// result with an SSIMULACRA2-style and a Butteraugli-style metric.
type Sweep struct {
	Codec       Codec
	Ssimulacra2 Metric
	Butteraugli Metric
	Qualities   []float64
	Workers     int
	Logger      *slog.Logger
}

// SweepResult is the outcome of one sweep. Measurements are ordered by image
// then quality setting.
type SweepResult struct {
	Codec        string           `json:"codec"`
	Config       rd.CodecConfig   `json:"config"`
	Measurements []rd.Measurement `json:"measurements"`
	Images       int              `json:"images"`
	Failures     int              `json:"failures"`
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func (s *Sweep) validate() error {
	if s.Codec == nil || s.Ssimulacra2 == nil || s.Butteraugli == nil {
		return fmt.Errorf("sweep needs a codec and both metrics")
	}
	if len(s.Qualities) == 0 {
		return fmt.Errorf("sweep needs at least one quality setting")
	}
	if d := s.Ssimulacra2.Direction(); d != rd.HigherIsBetter {
		return fmt.Errorf("ssimulacra2 metric %s is %s, want %s", s.Ssimulacra2.Name(), d, rd.HigherIsBetter)
	}
	if d := s.Butteraugli.Direction(); d != rd.LowerIsBetter {
		return fmt.Errorf("butteraugli metric %s is %s, want %s", s.Butteraugli.Name(), d, rd.LowerIsBetter)
	}
	return nil
}

// Run measures the corpus. A failing job is logged and counted; only
// cancellation of ctx aborts the sweep.
func (s *Sweep) Run(ctx context.Context, corpus []SourceImage) (*SweepResult, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	codec := s.Codec.Name()

	var (
		mu       sync.Mutex
		results  []rd.Measurement
		failures int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, src := range corpus {
		if err := src.Image.Validate(); err != nil {
			logger.Warn("skipping corpus image", "image", src.Name, "error", err)
			continue
		}
		for _, q := range s.Qualities {
			src, q := src, q
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				m, err := s.measureOne(gctx, src, q)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					stage := "unknown"
					var se *stageError
					if errors.As(err, &se) {
						stage = se.stage
					}
					encodeFailuresTotal.WithLabelValues(codec, stage).Inc()
					logger.Warn("sweep job failed", "codec", codec, "image", src.Name, "quality", q, "error", err)
					mu.Lock()
					failures++
					mu.Unlock()
					return nil
				}
				encodesTotal.WithLabelValues(codec).Inc()
				mu.Lock()
				results = append(results, m)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep %s: %w", codec, err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Image != results[j].Image {
			return results[i].Image < results[j].Image
		}
		return results[i].QualitySetting < results[j].QualitySetting
	})

	images := make(map[string]struct{})
	for _, m := range results {
		images[m.Image] = struct{}{}
	}
	logger.Info("sweep complete",
		"codec", codec,
		"measurements", len(results),
		"images", len(images),
		"failures", failures,
	)
	return &SweepResult{
		Codec:        codec,
		Config:       s.Codec.Config(),
		Measurements: results,
		Images:       len(images),
		Failures:     failures,
	}, nil
}

func (s *Sweep) measureOne(ctx context.Context, src SourceImage, quality float64) (rd.Measurement, error) {
	start := time.Now()
	data, err := s.Codec.Encode(ctx, src.Image, quality)
	elapsed := time.Since(start)
	if err != nil {
		return rd.Measurement{}, &stageError{"encode", err}
	}
	encodeDuration.WithLabelValues(s.Codec.Name()).Observe(elapsed.Seconds())

	decoded, err := s.Codec.Decode(ctx, data)
	if err != nil {
		return rd.Measurement{}, &stageError{"decode", err}
	}
	if decoded == nil {
		return rd.Measurement{}, &stageError{"decode", errors.New("codec returned no image")}
	}
	if decoded.Width != src.Image.Width || decoded.Height != src.Image.Height {
		return rd.Measurement{}, &stageError{"decode", fmt.Errorf("decoded %dx%d, source %dx%d",
			decoded.Width, decoded.Height, src.Image.Width, src.Image.Height)}
	}

	s2, err := s.Ssimulacra2.Score(ctx, src.Image, decoded)
	if err != nil {
		return rd.Measurement{}, &stageError{"metric", fmt.Errorf("%s: %w", s.Ssimulacra2.Name(), err)}
	}
	ba, err := s.Butteraugli.Score(ctx, src.Image, decoded)
	if err != nil {
		return rd.Measurement{}, &stageError{"metric", fmt.Errorf("%s: %w", s.Butteraugli.Name(), err)}
	}
	if math.IsNaN(s2) || math.IsInf(s2, 0) || math.IsNaN(ba) || math.IsInf(ba, 0) {
		return rd.Measurement{}, &stageError{"metric", fmt.Errorf("non-finite score s2=%v ba=%v", s2, ba)}
	}

	return rd.Measurement{
		Image:          src.Name,
		QualitySetting: quality,
		Bpp:            BitsPerPixel(len(data), src.Image.Pixels()),
		Ssimulacra2:    s2,
		Butteraugli:    ba,
		EncodeTimeMs:   float64(elapsed.Microseconds()) / 1000,
	}, nil
}

// Aggregate averages the sweep per quality setting.
func (r *SweepResult) Aggregate(corpus string) rd.CorpusAggregate {
	return rd.AggregateMeasurements(corpus, r.Codec, r.Measurements)
}

// SweepSummary is the spread of every measured quantity over the whole sweep.
type SweepSummary struct {
	Bpp          stats.Summary `json:"bpp"`
	Ssimulacra2  stats.Summary `json:"ssimulacra2"`
	Butteraugli  stats.Summary `json:"butteraugli"`
	EncodeTimeMs stats.Summary `json:"encode_time_ms"`
}

// Summary is zero-valued when the sweep produced no measurements.
func (r *SweepResult) Summary() SweepSummary {
	n := len(r.Measurements)
	bpp, s2, ba, enc := make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)
	for _, m := range r.Measurements {
		bpp = append(bpp, m.Bpp)
		s2 = append(s2, m.Ssimulacra2)
		ba = append(ba, m.Butteraugli)
		enc = append(enc, m.EncodeTimeMs)
	}
	var out SweepSummary
	out.Bpp, _ = stats.Summarize(bpp)
	out.Ssimulacra2, _ = stats.Summarize(s2)
	out.Butteraugli, _ = stats.Summarize(ba)
	out.EncodeTimeMs, _ = stats.Summarize(enc)
	return out
}

// Points returns one RDPoint per measurement with SSIMULACRA2 as quality.
func (r *SweepResult) Points() []rd.RDPoint {
	return rd.MeasurementPoints(r.Codec, r.Measurements)
}

// ConfiguredPoints places each measurement in frame, tagging it with the
// sweep's codec configuration plus its quality setting.
func (r *SweepResult) ConfiguredPoints(frame rd.FixedFrame) []rd.ConfiguredRDPoint {
	out := make([]rd.ConfiguredRDPoint, 0, len(r.Measurements))
	for _, m := range r.Measurements {
		img := m.Image
		encodeMs := m.EncodeTimeMs
		out = append(out, rd.ConfiguredRDPoint{
			Position:     frame.Position(m.Bpp, m.Ssimulacra2, m.Butteraugli),
			Config:       r.Config.WithParam("quality", rd.FloatParam(m.QualitySetting)),
			Image:        &img,
			EncodeTimeMs: &encodeMs,
		})
	}
	return out
}
