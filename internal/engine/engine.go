// Package engine ties the rd core to persistence and events: it calibrates
// submitted aggregates, builds configured fronts and runs measurement sweeps.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/CodecEval/internal/hermes"
	"github.com/MikeSquared-Agency/CodecEval/internal/measure"
	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
	"github.com/MikeSquared-Agency/CodecEval/internal/store"
)

var (
	// ErrNoKnee means one of the knee detectors found nothing to anchor on.
	ErrNoKnee = errors.New("no knee detected")
	// ErrUnknownCalibration means a calibration reference resolved to nothing.
	ErrUnknownCalibration = errors.New("unknown calibration")
)

type Engine struct {
	store          store.Store
	hermes         hermes.Client
	frame          rd.FixedFrame
	scheme         rd.BinScheme
	defaultCalName string
	logger         *slog.Logger
	now            func() time.Time
}

type Options struct {
	Frame              rd.FixedFrame
	Scheme             rd.BinScheme
	DefaultCalibration string
}

func New(s store.Store, h hermes.Client, opts Options, logger *slog.Logger) *Engine {
	if opts.DefaultCalibration == "" {
		opts.DefaultCalibration = rd.DefaultCalibrationName
	}
	return &Engine{
		store:          s,
		hermes:         h,
		frame:          opts.Frame,
		scheme:         opts.Scheme,
		defaultCalName: opts.DefaultCalibration,
		logger:         logger,
		now:            time.Now,
	}
}

func (e *Engine) Frame() rd.FixedFrame { return e.frame }
func (e *Engine) Scheme() rd.BinScheme { return e.scheme }

func (e *Engine) publish(subject string, data interface{}) {
	if e.hermes == nil {
		return
	}
	if err := e.hermes.Publish(subject, data); err != nil {
		e.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// Calibrate detects both knees on agg, stores the result and announces it.
// A curve out of bpp order fails with rd.ErrUnsortedCurve.
func (e *Engine) Calibrate(ctx context.Context, agg rd.CorpusAggregate) (*store.CalibrationRecord, error) {
	if err := agg.CheckOrder(); err != nil {
		return nil, fmt.Errorf("calibrate %s on %s: %w", agg.Codec, agg.Corpus, err)
	}
	cal, ok := rd.Calibrate(agg, e.frame, e.now())
	if !ok {
		return nil, fmt.Errorf("calibrate %s on %s (%d points): %w", agg.Codec, agg.Corpus, len(agg.Curve), ErrNoKnee)
	}
	rec := &store.CalibrationRecord{Calibration: cal, Curve: agg.Curve}
	if err := e.store.SaveCalibration(ctx, rec); err != nil {
		return nil, fmt.Errorf("save calibration: %w", err)
	}

	lo, hi := cal.DisagreementRange()
	e.logger.Info("calibration computed",
		"calibration_id", rec.ID,
		"codec", cal.Codec,
		"corpus", cal.Corpus,
		"s2_knee_bpp", cal.Ssimulacra2.Bpp,
		"ba_knee_bpp", cal.Butteraugli.Bpp,
	)
	e.publish(hermes.SubjectCalibrationComputed(rec.ID.String()), hermes.CalibrationComputedEvent{
		CalibrationID:  rec.ID.String(),
		Codec:          cal.Codec,
		Corpus:         cal.Corpus,
		ImageCount:     cal.ImageCount,
		S2KneeBpp:      cal.Ssimulacra2.Bpp,
		S2KneeAngle:    cal.Ssimulacra2.FixedAngle,
		BaKneeBpp:      cal.Butteraugli.Bpp,
		BaKneeAngle:    cal.Butteraugli.FixedAngle,
		DisagreementLo: lo,
		DisagreementHi: hi,
		Timestamp:      rec.CreatedAt,
	})
	return rec, nil
}

// CalibrationRef selects a calibration: a stored id, the latest stored one for
// a codec and corpus, a measured default name, or none of these for the
// configured default.
type CalibrationRef struct {
	ID      string `json:"calibration_id,omitempty"`
	Codec   string `json:"codec,omitempty"`
	Corpus  string `json:"corpus,omitempty"`
	Default string `json:"default,omitempty"`
}

// ResolveCalibration returns the referenced calibration and, for stored ones,
// its id.
func (e *Engine) ResolveCalibration(ctx context.Context, ref CalibrationRef) (rd.RDCalibration, *uuid.UUID, error) {
	if ref.ID != "" {
		id, err := uuid.Parse(ref.ID)
		if err != nil {
			return rd.RDCalibration{}, nil, fmt.Errorf("calibration id %q: %w", ref.ID, ErrUnknownCalibration)
		}
		rec, err := e.store.GetCalibration(ctx, id)
		if err != nil {
			return rd.RDCalibration{}, nil, fmt.Errorf("get calibration: %w", err)
		}
		if rec == nil {
			return rd.RDCalibration{}, nil, fmt.Errorf("calibration %s: %w", id, ErrUnknownCalibration)
		}
		return rec.Calibration, &rec.ID, nil
	}

	if ref.Codec != "" || ref.Corpus != "" {
		if ref.Codec == "" || ref.Corpus == "" {
			return rd.RDCalibration{}, nil, fmt.Errorf("latest calibration needs codec and corpus: %w", ErrUnknownCalibration)
		}
		rec, err := e.store.LatestCalibration(ctx, ref.Codec, ref.Corpus)
		if err != nil {
			return rd.RDCalibration{}, nil, fmt.Errorf("latest calibration: %w", err)
		}
		if rec == nil {
			return rd.RDCalibration{}, nil, fmt.Errorf("no calibration for %s on %s: %w", ref.Codec, ref.Corpus, ErrUnknownCalibration)
		}
		return rec.Calibration, &rec.ID, nil
	}

	name := ref.Default
	if name == "" {
		name = e.defaultCalName
	}
	d, ok := rd.MeasuredDefaults()[name]
	if !ok {
		return rd.RDCalibration{}, nil, fmt.Errorf("default %q: %w", name, ErrUnknownCalibration)
	}
	return d.Calibration, nil, nil
}

// ComputeFront places raw measurements in the calibration's frame, reduces
// them to the configured Pareto front and stores it. A nil scheme uses the
// engine's.
func (e *Engine) ComputeFront(ctx context.Context, points []rd.ConfiguredRDPoint, ref CalibrationRef, scheme *rd.BinScheme) (*store.FrontRecord, error) {
	cal, calID, err := e.ResolveCalibration(ctx, ref)
	if err != nil {
		return nil, err
	}
	s := e.scheme
	if scheme != nil {
		s = *scheme
	}

	front := rd.ComputeConfiguredFront(points, cal, s)
	rec := &store.FrontRecord{CalibrationID: calID, Front: front}
	if err := e.store.SaveFront(ctx, rec); err != nil {
		return nil, fmt.Errorf("save front: %w", err)
	}

	codecs := make(map[string]struct{})
	for _, p := range front.Points {
		codecs[p.Config.Codec] = struct{}{}
	}
	names := make([]string, 0, len(codecs))
	for c := range codecs {
		names = append(names, c)
	}
	sort.Strings(names)
	evt := hermes.FrontComputedEvent{
		FrontID:   rec.ID.String(),
		Codecs:    names,
		Points:    len(front.Points),
		EmptyBins: len(front.EmptyBins()),
		Timestamp: rec.CreatedAt,
	}
	if calID != nil {
		evt.CalibrationID = calID.String()
	}
	e.logger.Info("front computed", "front_id", rec.ID, "input", len(points), "points", evt.Points, "empty_bins", evt.EmptyBins)
	e.publish(hermes.SubjectFrontComputed(rec.ID.String()), evt)
	return rec, nil
}

// SweepOutcome is what RunSweep produced. Calibration is nil when the
// measured curve had no detectable knee. Pareto is the per-image (bpp, s2)
// frontier over every measurement.
type SweepOutcome struct {
	Result      *measure.SweepResult     `json:"result"`
	Summary     measure.SweepSummary     `json:"summary"`
	Pareto      rd.ParetoFront           `json:"pareto"`
	Calibration *store.CalibrationRecord `json:"calibration,omitempty"`
	Front       *store.FrontRecord       `json:"front,omitempty"`
}

// RunSweep measures corpus with sw, calibrates the aggregate and stores the
// configured front interpreted with the fresh calibration (or the default
// when calibration fails).
func (e *Engine) RunSweep(ctx context.Context, sw *measure.Sweep, corpusName string, corpus []measure.SourceImage) (*SweepOutcome, error) {
	res, err := sw.Run(ctx, corpus)
	if err != nil {
		return nil, err
	}
	out := &SweepOutcome{Result: res, Summary: res.Summary(), Pareto: rd.ComputeParetoFront(res.Points())}

	ref := CalibrationRef{}
	var cal rd.RDCalibration
	rec, err := e.Calibrate(ctx, res.Aggregate(corpusName))
	switch {
	case err == nil:
		out.Calibration = rec
		ref.ID = rec.ID.String()
		cal = rec.Calibration
	case errors.Is(err, ErrNoKnee):
		e.logger.Warn("sweep produced no knee, using default calibration", "codec", res.Codec, "corpus", corpusName)
		if cal, _, err = e.ResolveCalibration(ctx, ref); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	// positions must live in the frame of the calibration the front carries
	front, err := e.ComputeFront(ctx, res.ConfiguredPoints(cal.Frame), ref, nil)
	if err != nil {
		return nil, err
	}
	out.Front = front

	evt := hermes.SweepCompletedEvent{
		Codec:        res.Codec,
		Corpus:       corpusName,
		Config:       res.Config.Fingerprint(),
		Measurements: len(res.Measurements),
		Images:       res.Images,
		Failures:     res.Failures,
		Timestamp:    e.now().UTC(),
	}
	if rec != nil {
		evt.CalibrationID = rec.ID.String()
	}
	e.publish(hermes.SubjectSweepCompleted(res.Codec), evt)
	return out, nil
}

// SetupSubscriptions calibrates aggregates submitted over NATS until ctx is
// done. Undecodable payloads, unsorted curves and curves without a knee are
// dropped; store failures are retried.
func (e *Engine) SetupSubscriptions(ctx context.Context) error {
	if e.hermes == nil {
		return nil
	}
	return e.hermes.Consume(ctx, hermes.ConsumerCalibrator, hermes.SubjectAggregateSubmitted, func(_ string, data []byte) error {
		return e.handleSubmittedAggregate(ctx, data)
	})
}

func (e *Engine) handleSubmittedAggregate(ctx context.Context, data []byte) error {
	var agg rd.CorpusAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return hermes.Permanent(fmt.Errorf("decode aggregate: %w", err))
	}
	_, err := e.Calibrate(ctx, agg)
	if errors.Is(err, ErrNoKnee) || errors.Is(err, rd.ErrUnsortedCurve) {
		return hermes.Permanent(err)
	}
	return err
}
