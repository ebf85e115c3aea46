package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/CodecEval/internal/chart"
	"github.com/MikeSquared-Agency/CodecEval/internal/engine"
	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
	"github.com/MikeSquared-Agency/CodecEval/internal/store"
)

type FrontsHandler struct {
	store  store.Store
	engine *engine.Engine
}

func NewFrontsHandler(s store.Store, e *engine.Engine) *FrontsHandler {
	return &FrontsHandler{store: s, engine: e}
}

// FrontMeasurement is one raw configured encode; its position is computed
// in the chosen calibration's frame.
type FrontMeasurement struct {
	Bpp          float64        `json:"bpp"`
	Ssimulacra2  float64        `json:"ssimulacra2"`
	Butteraugli  float64        `json:"butteraugli"`
	Config       rd.CodecConfig `json:"config"`
	Image        *string        `json:"image,omitempty"`
	EncodeTimeMs *float64       `json:"encode_time_ms,omitempty"`
	DecodeTimeMs *float64       `json:"decode_time_ms,omitempty"`
}

func (m FrontMeasurement) validate() error {
	for _, v := range []float64{m.Bpp, m.Ssimulacra2, m.Butteraugli} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite measurement")
		}
	}
	if m.Bpp < 0 {
		return fmt.Errorf("negative bpp")
	}
	if m.Config.Codec == "" {
		return fmt.Errorf("config.codec required")
	}
	return nil
}

type CreateFrontRequest struct {
	engine.CalibrationRef
	Measurements []FrontMeasurement `json:"measurements"`
	Bins         int                `json:"bins,omitempty"`
}

type FrontResponse struct {
	ID            uuid.UUID                `json:"id"`
	CalibrationID *uuid.UUID               `json:"calibration_id,omitempty"`
	Front         rd.ConfiguredParetoFront `json:"front"`
	Coverage      []rd.BinCoverage         `json:"coverage"`
	EmptyBins     []rd.AngleBin            `json:"empty_bins"`
	CreatedAt     time.Time                `json:"created_at"`
}

func newFrontResponse(rec *store.FrontRecord) FrontResponse {
	empty := rec.Front.EmptyBins()
	if empty == nil {
		empty = []rd.AngleBin{}
	}
	return FrontResponse{
		ID:            rec.ID,
		CalibrationID: rec.CalibrationID,
		Front:         rec.Front,
		Coverage:      rec.Front.Coverage(),
		EmptyBins:     empty,
		CreatedAt:     rec.CreatedAt,
	}
}

func (h *FrontsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFrontRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Measurements) == 0 {
		writeError(w, http.StatusBadRequest, "measurements required")
		return
	}
	for i, m := range req.Measurements {
		if err := m.validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("measurements[%d]: %v", i, err))
			return
		}
	}
	var scheme *rd.BinScheme
	if req.Bins != 0 {
		s, err := rd.BinsForCount(req.Bins)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		scheme = &s
	}

	cal, calID, err := h.engine.ResolveCalibration(r.Context(), req.CalibrationRef)
	if errors.Is(err, engine.ErrUnknownCalibration) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ref := req.CalibrationRef
	if calID != nil {
		// a later calibration for the same codec and corpus must not swap in
		ref = engine.CalibrationRef{ID: calID.String()}
	}

	points := make([]rd.ConfiguredRDPoint, 0, len(req.Measurements))
	for _, m := range req.Measurements {
		points = append(points, rd.ConfiguredRDPoint{
			Position:     cal.Position(m.Bpp, m.Ssimulacra2, m.Butteraugli),
			Config:       m.Config,
			Image:        m.Image,
			EncodeTimeMs: m.EncodeTimeMs,
			DecodeTimeMs: m.DecodeTimeMs,
		})
	}

	rec, err := h.engine.ComputeFront(r.Context(), points, ref, scheme)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newFrontResponse(rec))
}

func (h *FrontsHandler) load(w http.ResponseWriter, r *http.Request) *store.FrontRecord {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid front id")
		return nil
	}
	rec, err := h.store.GetFront(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "front not found")
		return nil
	}
	return rec
}

func (h *FrontsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec := h.load(w, r)
	if rec == nil {
		return
	}
	writeJSON(w, http.StatusOK, newFrontResponse(rec))
}

func (h *FrontsHandler) Chart(w http.ResponseWriter, r *http.Request) {
	rec := h.load(w, r)
	if rec == nil {
		return
	}
	page, err := chart.RenderFrontHTML(rec.Front, "Configured front "+rec.ID.String())
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// BestResponse holds one answer per requested constraint; a nil entry means
// no frontier point satisfies it.
type BestResponse struct {
	MinS2  *rd.ConfiguredRDPoint `json:"min_s2,omitempty"`
	MaxBa  *rd.ConfiguredRDPoint `json:"max_ba,omitempty"`
	MaxBpp *rd.ConfiguredRDPoint `json:"max_bpp,omitempty"`
}

func (h *FrontsHandler) Best(w http.ResponseWriter, r *http.Request) {
	type query struct {
		key  string
		find func(float64) (rd.ConfiguredRDPoint, bool)
		dst  **rd.ConfiguredRDPoint
	}
	rec := h.load(w, r)
	if rec == nil {
		return
	}

	var resp BestResponse
	asked := 0
	for _, q := range []query{
		{"min_s2", rec.Front.BestConfigForS2, &resp.MinS2},
		{"max_ba", rec.Front.BestConfigForBa, &resp.MaxBa},
		{"max_bpp", rec.Front.BestConfigForBpp, &resp.MaxBpp},
	} {
		v, ok, err := queryFloat(r, q.key)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !ok {
			continue
		}
		asked++
		if p, found := q.find(v); found {
			*q.dst = &p
		}
	}
	if asked == 0 {
		writeError(w, http.StatusBadRequest, "one of min_s2, max_ba, max_bpp required")
		return
	}
	if resp.MinS2 == nil && resp.MaxBa == nil && resp.MaxBpp == nil {
		writeError(w, http.StatusNotFound, "no configuration satisfies the constraints")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
