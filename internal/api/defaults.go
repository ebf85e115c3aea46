package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

type DefaultsHandler struct{}

func NewDefaultsHandler() *DefaultsHandler {
	return &DefaultsHandler{}
}

func (h *DefaultsHandler) List(w http.ResponseWriter, r *http.Request) {
	defaults := rd.MeasuredDefaults()
	out := make([]rd.MeasuredDefault, 0, len(defaults))
	for _, name := range rd.MeasuredDefaultNames() {
		out = append(out, defaults[name])
	}
	writeJSON(w, http.StatusOK, out)
}

// Get serves /defaults/{name}; names contain a slash ("codec/corpus").
func (h *DefaultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	d, ok := rd.MeasuredDefaults()[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown default "+name)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
