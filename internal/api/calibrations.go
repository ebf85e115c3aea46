package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/CodecEval/internal/chart"
	"github.com/MikeSquared-Agency/CodecEval/internal/engine"
	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
	"github.com/MikeSquared-Agency/CodecEval/internal/store"
)

type CalibrationsHandler struct {
	store  store.Store
	engine *engine.Engine
	logger *slog.Logger
}

func NewCalibrationsHandler(s store.Store, e *engine.Engine, logger *slog.Logger) *CalibrationsHandler {
	return &CalibrationsHandler{store: s, engine: e, logger: logger}
}

// CalibrationResponse flattens a stored calibration with its derived
// disagreement range.
type CalibrationResponse struct {
	*store.CalibrationRecord
	DisagreementRange [2]float64 `json:"disagreement_range"`
}

func newCalibrationResponse(rec *store.CalibrationRecord) CalibrationResponse {
	lo, hi := rec.Calibration.DisagreementRange()
	return CalibrationResponse{CalibrationRecord: rec, DisagreementRange: [2]float64{lo, hi}}
}

func (h *CalibrationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var agg rd.CorpusAggregate
	if err := decodeJSON(r, &agg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if agg.Codec == "" || agg.Corpus == "" {
		writeError(w, http.StatusBadRequest, "codec and corpus required")
		return
	}

	rec, err := h.engine.Calibrate(r.Context(), agg)
	if errors.Is(err, rd.ErrUnsortedCurve) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, engine.ErrNoKnee) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newCalibrationResponse(rec))
}

func (h *CalibrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	recs, err := h.store.ListCalibrations(r.Context(), store.CalibrationFilter{
		Codec:  q.Get("codec"),
		Corpus: q.Get("corpus"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]CalibrationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newCalibrationResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CalibrationsHandler) load(w http.ResponseWriter, r *http.Request) *store.CalibrationRecord {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calibration id")
		return nil
	}
	rec, err := h.store.GetCalibration(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "calibration not found")
		return nil
	}
	return rec
}

func (h *CalibrationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec := h.load(w, r)
	if rec == nil {
		return
	}
	writeJSON(w, http.StatusOK, newCalibrationResponse(rec))
}

func (h *CalibrationsHandler) Chart(w http.ResponseWriter, r *http.Request) {
	rec := h.load(w, r)
	if rec == nil {
		return
	}
	if len(rec.Curve) == 0 {
		writeError(w, http.StatusConflict, "calibration has no stored curve")
		return
	}
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		title = rec.Calibration.Codec + " on " + rec.Calibration.Corpus
	}
	svg, err := chart.RenderSVG(rec.Curve, rec.Calibration, title)
	if err != nil {
		h.logger.Error("chart render failed", "calibration_id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}
