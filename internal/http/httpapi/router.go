package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"weav/internal/http/handlers"
	"weav/internal/infra"
	"weav/internal/middleware"
)

// NewRouter builds the HTTP API surface.
func NewRouter(app *handlers.App, logger infra.Logger, rateLimitPerMin int) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.BearerUser)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.RateLimit(rateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Get("/", app.JobsList)
		r.Post("/", app.JobsCreate)
		r.Get("/{job_id}", app.JobDetail)
		r.Get("/{job_id}/artifacts", app.JobArtifacts)
	})

	return r
}
