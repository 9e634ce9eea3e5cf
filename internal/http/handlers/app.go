package handlers

import (
	"encoding/json"
	"net/http"

	"weav/internal/admission"
	"weav/internal/domain"
	"weav/internal/infra"
	"weav/internal/middleware"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Jobs      domain.JobRepository
	Artifacts domain.ArtifactRepository
	Admission *admission.Controller
	Logger    infra.Logger
}

// NewApp wires the handler container.
func NewApp(jobs domain.JobRepository, artifacts domain.ArtifactRepository, adm *admission.Controller, logger infra.Logger) *App {
	return &App{Jobs: jobs, Artifacts: artifacts, Admission: adm, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, detail string) {
	a.json(w, code, map[string]string{"error": errCode, "detail": detail})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
