package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skygrow/skygrow/internal/application"
)

// Handler is the HTTP adapter entrypoint for campaign operations.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers the campaign HTTP routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/campaigns/v1", func(r chi.Router) {
		r.Post("/run", handler.runAll)
		r.Post("/{campaign_id}/run", handler.runOne)
		r.Post("/{campaign_id}/setup", handler.runSetup)
		r.Get("/{campaign_id}/stats", handler.stats)
		r.Get("/{campaign_id}/executions", handler.executions)
	})

	return r
}
