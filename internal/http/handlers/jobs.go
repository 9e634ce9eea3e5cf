package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"weav/internal/admission"
	"weav/internal/ai"
	"weav/internal/domain"
)

type jobCreateRequest struct {
	Provider    string          `json:"provider"`
	Model       string          `json:"model"`
	Arguments   json.RawMessage `json:"arguments"`
	StoreResult *bool           `json:"store_result"`
}

// JobsCreate admits and enqueues a new generation job. Execution is
// asynchronous; the response carries the identifier to poll.
func (a *App) JobsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req jobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "model is required")
		return
	}
	if req.Provider == "" {
		req.Provider = "fal"
	}
	if err := a.validateArguments(req.Model, req.Arguments); err != nil {
		a.error(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := a.Admission.Admit(r.Context(), userID); err != nil {
		var limitErr *admission.LimitError
		if errors.As(err, &limitErr) {
			a.json(w, http.StatusTooManyRequests, map[string]any{
				"detail":         fmt.Sprintf("at most %d jobs may be active at once; wait for one to finish", limitErr.Limit),
				"error_code":     limitErr.Reason,
				"max_concurrent": limitErr.Limit,
			})
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "admission check failed")
		return
	}

	storeResult := true
	if req.StoreResult != nil {
		storeResult = *req.StoreResult
	}
	job := &domain.Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      domain.JobStatusInQueue,
		Provider:    req.Provider,
		Model:       req.Model,
		Arguments:   req.Arguments,
		StoreResult: storeResult,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("jobs: create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	a.Logger.Info().Str("job_id", job.ID).Str("model", job.Model).Msg("jobs: queued")
	a.json(w, http.StatusAccepted, map[string]any{
		"id":      job.ID,
		"status":  job.Status,
		"message": "job queued; poll GET /v1/jobs/{id} for status",
	})
}

// validateArguments runs the media-type schema synchronously so malformed
// submissions are rejected before a job record exists. The model name is
// merged in first, the same way the executor does before routing.
func (a *App) validateArguments(model string, args json.RawMessage) error {
	payload := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &payload); err != nil {
			return &ai.ValidationError{Reason: "arguments must be a JSON object"}
		}
	}
	payload["model"] = model
	merged, err := json.Marshal(payload)
	if err != nil {
		return &ai.ValidationError{Reason: "arguments must be a JSON object"}
	}
	switch ai.ClassifyModel(model) {
	case ai.MediaTypeImage:
		_, err = ai.DecodeImageRequest(merged)
	case ai.MediaTypeVideo:
		_, err = ai.DecodeVideoRequest(merged)
	default:
		_, err = ai.DecodeTextRequest(merged)
	}
	return err
}

// JobsList returns the requester's jobs, newest first.
func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobs, err := a.Jobs.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("jobs: list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		artifacts, err := a.Artifacts.ListByJobID(r.Context(), job.ID)
		if err != nil {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("jobs: count artifacts failed")
		}
		items = append(items, map[string]any{
			"id":             job.ID,
			"created_at":     job.CreatedAt,
			"status":         job.Status,
			"provider":       job.Provider,
			"model":          job.Model,
			"artifact_count": len(artifacts),
		})
	}
	a.json(w, http.StatusOK, items)
}

// JobDetail returns the full job record scoped to its owner. Completed jobs
// carry an additional result view combining the normalized result with the
// classified media type.
func (a *App) JobDetail(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	job, err := a.Jobs.GetByIDForUser(r.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("jobs: load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	artifacts, err := a.Artifacts.ListByJobID(r.Context(), job.ID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("jobs: load artifacts failed")
	}

	payload := map[string]any{
		"id":           job.ID,
		"created_at":   job.CreatedAt,
		"updated_at":   job.UpdatedAt,
		"status":       job.Status,
		"provider":     job.Provider,
		"model":        job.Model,
		"arguments":    rawOrNull(job.Arguments),
		"store_result": job.StoreResult,
		"error":        job.ErrorMessage,
		"duration":     job.Duration(),
		"artifacts":    artifactViews(artifacts, time.Now()),
	}
	if job.Status == domain.JobStatusCompleted && len(job.ResultJSON) > 0 {
		result := map[string]any{}
		if err := json.Unmarshal(job.ResultJSON, &result); err == nil {
			result["type"] = ai.ClassifyModel(job.Model)
			payload["result"] = result
		}
	}
	a.json(w, http.StatusOK, payload)
}

// JobArtifacts lists the artifacts of one job.
func (a *App) JobArtifacts(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if _, err := a.Jobs.GetByIDForUser(r.Context(), jobID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	artifacts, err := a.Artifacts.ListByJobID(r.Context(), jobID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load artifacts")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": artifactViews(artifacts, time.Now())})
}

func artifactViews(artifacts []domain.Artifact, now time.Time) []map[string]any {
	items := make([]map[string]any, 0, len(artifacts))
	for i := range artifacts {
		artifact := &artifacts[i]
		item := map[string]any{
			"id":         artifact.ID,
			"created_at": artifact.CreatedAt,
			"kind":       artifact.Kind,
			"mime_type":  artifact.MIMEType,
			"size_bytes": artifact.SizeBytes,
		}
		if artifact.TextContent != "" {
			item["text_content"] = artifact.TextContent
		} else {
			item["storage_key"] = artifact.StorageKey
			item["presigned_url"] = artifact.PresignedURL
			item["presigned_url_valid"] = artifact.PresignedURLValid(now)
		}
		items = append(items, item)
	}
	return items
}

func rawOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
