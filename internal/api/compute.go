package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/MikeSquared-Agency/CodecEval/internal/engine"
	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
	"github.com/MikeSquared-Agency/CodecEval/internal/stats"
)

// ComputeHandler serves stateless computations against the core.
type ComputeHandler struct {
	engine *engine.Engine
}

func NewComputeHandler(e *engine.Engine) *ComputeHandler {
	return &ComputeHandler{engine: e}
}

type PositionRequest struct {
	engine.CalibrationRef
	Bpp         float64 `json:"bpp"`
	Ssimulacra2 float64 `json:"ssimulacra2"`
	Butteraugli float64 `json:"butteraugli"`
	Bins        int     `json:"bins,omitempty"`
}

type PositionResponse struct {
	Position           rd.RDPosition        `json:"position"`
	Bin                rd.DualAngleBin      `json:"bin"`
	InDisagreementZone bool                 `json:"in_disagreement_zone"`
	Character          rd.ArtifactCharacter `json:"character"`
	Calibration        string               `json:"calibration"`
}

// schemeFor returns the engine's scheme unless the request asks for a
// different bin count.
func (h *ComputeHandler) schemeFor(bins int) (rd.BinScheme, error) {
	if bins == 0 {
		return h.engine.Scheme(), nil
	}
	return rd.BinsForCount(bins)
}

func (h *ComputeHandler) Position(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	scheme, err := h.schemeFor(req.Bins)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cal, _, err := h.engine.ResolveCalibration(r.Context(), req.CalibrationRef)
	if errors.Is(err, engine.ErrUnknownCalibration) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pos := cal.Position(req.Bpp, req.Ssimulacra2, req.Butteraugli)
	writeJSON(w, http.StatusOK, PositionResponse{
		Position:           pos,
		Bin:                pos.DualBin(scheme),
		InDisagreementZone: pos.InDisagreementZone(cal),
		Character:          pos.Character(),
		Calibration:        cal.Codec + "/" + cal.Corpus,
	})
}

type ParetoRequest struct {
	Points []rd.RDPoint `json:"points"`
}

type ParetoResponse struct {
	Front    rd.ParetoFront            `json:"front"`
	PerCodec map[string]rd.ParetoFront `json:"per_codec"`
}

func (h *ComputeHandler) Pareto(w http.ResponseWriter, r *http.Request) {
	var req ParetoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for i, p := range req.Points {
		if err := p.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("points[%d]: %v", i, err))
			return
		}
	}
	writeJSON(w, http.StatusOK, ParetoResponse{
		Front:    rd.ComputeParetoFront(req.Points),
		PerCodec: rd.ParetoFrontPerCodec(req.Points),
	})
}

type BDRateRequest struct {
	Reference rd.CorpusAggregate `json:"reference"`
	Test      rd.CorpusAggregate `json:"test"`
}

// BDRateResponse holds the Bjontegaard delta rate of test against reference
// in percent, per metric; nil when the curves are too short or do not
// overlap in that metric.
type BDRateResponse struct {
	Ssimulacra2 *float64 `json:"ssimulacra2"`
	Butteraugli *float64 `json:"butteraugli"`
}

func ratePoints(curve []rd.CurvePoint, quality func(rd.CurvePoint) float64) ([]stats.RatePoint, error) {
	out := make([]stats.RatePoint, 0, len(curve))
	for i, p := range curve {
		q := quality(p)
		if !(p.Bpp > 0) || math.IsInf(p.Bpp, 0) || math.IsNaN(q) || math.IsInf(q, 0) {
			return nil, fmt.Errorf("curve[%d]: bpp must be positive and values finite", i)
		}
		out = append(out, stats.RatePoint{Rate: p.Bpp, Quality: q})
	}
	return out, nil
}

func (h *ComputeHandler) BDRate(w http.ResponseWriter, r *http.Request) {
	var req BDRateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var resp BDRateResponse
	for _, m := range []struct {
		dst     **float64
		quality func(rd.CurvePoint) float64
	}{
		{&resp.Ssimulacra2, func(p rd.CurvePoint) float64 { return p.Ssimulacra2 }},
		// Butteraugli is a distance; negate it so quality ascends.
		{&resp.Butteraugli, func(p rd.CurvePoint) float64 { return -p.Butteraugli }},
	} {
		ref, err := ratePoints(req.Reference.Curve, m.quality)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reference "+err.Error())
			return
		}
		tst, err := ratePoints(req.Test.Curve, m.quality)
		if err != nil {
			writeError(w, http.StatusBadRequest, "test "+err.Error())
			return
		}
		if bd, ok := stats.BDRate(ref, tst); ok {
			*m.dst = &bd
		}
	}
	if resp.Ssimulacra2 == nil && resp.Butteraugli == nil {
		writeError(w, http.StatusUnprocessableEntity, "curves need at least 4 points with overlapping quality")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
