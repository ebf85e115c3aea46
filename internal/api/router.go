package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/CodecEval/internal/engine"
	"github.com/MikeSquared-Agency/CodecEval/internal/store"
)

func NewRouter(s store.Store, e *engine.Engine, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	calibrations := NewCalibrationsHandler(s, e, logger)
	defaults := NewDefaultsHandler()
	compute := NewComputeHandler(e)
	fronts := NewFrontsHandler(s, e)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/calibrations", calibrations.List)
		r.Get("/calibrations/{id}", calibrations.Get)
		r.Get("/calibrations/{id}/chart.svg", calibrations.Chart)

		r.Get("/defaults", defaults.List)
		r.Get("/defaults/*", defaults.Get)

		r.Post("/position", compute.Position)
		r.Post("/pareto", compute.Pareto)
		r.Post("/bdrate", compute.BDRate)

		r.Get("/fronts/{id}", fronts.Get)
		r.Get("/fronts/{id}/best", fronts.Best)
		r.Get("/fronts/{id}/chart.html", fronts.Chart)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/calibrations", calibrations.Create)
			r.Post("/fronts", fronts.Create)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
