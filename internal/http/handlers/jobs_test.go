package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"weav/internal/admission"
	"weav/internal/domain"
	"weav/internal/http/handlers"
	"weav/internal/http/httpapi"
)

type fakeJobs struct {
	domain.JobRepository
	jobs    map[string]*domain.Job
	created []*domain.Job
}

func newFakeJobs(jobs ...*domain.Job) *fakeJobs {
	f := &fakeJobs{jobs: make(map[string]*domain.Job)}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobs) Create(ctx context.Context, job *domain.Job) error {
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	f.jobs[job.ID] = job
	f.created = append(f.created, job)
	return nil
}

func (f *fakeJobs) GetByIDForUser(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok || job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobs) ListByUser(ctx context.Context, userID string) ([]domain.Job, error) {
	var out []domain.Job
	for _, job := range f.jobs {
		if job.UserID == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeJobs) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, job := range f.jobs {
		if job.UserID == userID && !job.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

type fakeArtifacts struct {
	domain.ArtifactRepository
	artifacts []domain.Artifact
}

func (f *fakeArtifacts) ListByJobID(ctx context.Context, jobID string) ([]domain.Artifact, error) {
	var out []domain.Artifact
	for _, a := range f.artifacts {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, jobs *fakeJobs, artifacts *fakeArtifacts) *httptest.Server {
	t.Helper()
	app := handlers.NewApp(jobs, artifacts, admission.NewController(jobs, 4), zerolog.Nop())
	server := httptest.NewServer(httpapi.NewRouter(app, zerolog.Nop(), 1000))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, user string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestJobsCreateQueuesJob(t *testing.T) {
	jobs := newFakeJobs()
	server := newTestServer(t, jobs, &fakeArtifacts{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/v1/jobs", "user-1", map[string]any{
		"model":     "openai/gpt-4o-mini",
		"arguments": map[string]any{"input_text": "say hello"},
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%v)", resp.StatusCode, body)
	}
	if body["status"] != string(domain.JobStatusInQueue) {
		t.Errorf("status field = %v, want IN_QUEUE", body["status"])
	}
	if body["id"] == "" || body["id"] == nil {
		t.Error("response carries no job id")
	}
	if len(jobs.created) != 1 {
		t.Fatalf("created jobs = %d, want 1", len(jobs.created))
	}
	created := jobs.created[0]
	if created.Provider != "fal" {
		t.Errorf("provider = %q, want defaulted fal", created.Provider)
	}
	if !created.StoreResult {
		t.Error("store_result must default to true")
	}
}

func TestJobsCreateDeniedAtConcurrencyLimit(t *testing.T) {
	active := make([]*domain.Job, 4)
	for i := range active {
		active[i] = &domain.Job{ID: string(rune('a' + i)), UserID: "user-1", Status: domain.JobStatusInQueue}
	}
	jobs := newFakeJobs(active...)
	server := newTestServer(t, jobs, &fakeArtifacts{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/v1/jobs", "user-1", map[string]any{
		"model":     "openai/gpt-4o-mini",
		"arguments": map[string]any{"input_text": "hello"},
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if body["error_code"] != admission.ReasonMaxConcurrentJobs {
		t.Errorf("error_code = %v", body["error_code"])
	}
	if body["max_concurrent"] != float64(4) {
		t.Errorf("max_concurrent = %v, want 4", body["max_concurrent"])
	}

	// Another user is unaffected by this user's active jobs.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/v1/jobs", "user-2", map[string]any{
		"model":     "openai/gpt-4o-mini",
		"arguments": map[string]any{"input_text": "hello"},
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("other user status = %d, want 202", resp.StatusCode)
	}
}

func TestJobsCreateValidationRejectedSynchronously(t *testing.T) {
	jobs := newFakeJobs()
	server := newTestServer(t, jobs, &fakeArtifacts{})

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/v1/jobs", "user-1", map[string]any{
		"model":     "openai/gpt-4o-mini",
		"arguments": map[string]any{"temperature": 0.5},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(jobs.created) != 0 {
		t.Fatal("invalid submission must not create a job")
	}
}

func TestJobsCreateRequiresAuth(t *testing.T) {
	server := newTestServer(t, newFakeJobs(), &fakeArtifacts{})
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/v1/jobs", "", map[string]any{"model": "m"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestJobDetailNotFound(t *testing.T) {
	server := newTestServer(t, newFakeJobs(), &fakeArtifacts{})
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/v1/jobs/missing", "user-1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestJobDetailScopedToOwner(t *testing.T) {
	job := &domain.Job{ID: "job-1", UserID: "user-1", Status: domain.JobStatusInQueue, Provider: "fal", Model: "openai/gpt-4o-mini"}
	server := newTestServer(t, newFakeJobs(job), &fakeArtifacts{})
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/v1/jobs/job-1", "user-2", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, foreign jobs must read as missing", resp.StatusCode)
	}
}

func TestJobDetailCompletedAttachesTypedResult(t *testing.T) {
	created := time.Now().Add(-time.Minute)
	job := &domain.Job{
		ID:         "job-1",
		UserID:     "user-1",
		Status:     domain.JobStatusCompleted,
		Provider:   "fal",
		Model:      "fal-ai/sora-2",
		ResultJSON: json.RawMessage(`{"provider":"fal","url":"https://cdn.example/clip.mp4"}`),
		CreatedAt:  created,
		UpdatedAt:  created.Add(30 * time.Second),
	}
	server := newTestServer(t, newFakeJobs(job), &fakeArtifacts{})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/v1/jobs/job-1", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("completed job without result view: %v", body)
	}
	if result["type"] != "video" {
		t.Errorf("result.type = %v, want classified media type", result["type"])
	}
	if result["url"] != "https://cdn.example/clip.mp4" {
		t.Errorf("result.url = %v", result["url"])
	}
	if body["error"] != "" {
		t.Errorf("completed job exposes error %v", body["error"])
	}
	if d, ok := body["duration"].(float64); !ok || d < 29 || d > 31 {
		t.Errorf("duration = %v, want ~30s", body["duration"])
	}
}

func TestJobDetailFailedExposesErrorOnly(t *testing.T) {
	job := &domain.Job{
		ID:           "job-1",
		UserID:       "user-1",
		Status:       domain.JobStatusFailed,
		Provider:     "fal",
		Model:        "openai/gpt-4o-mini",
		ErrorMessage: "provider_error: request to fal failed: boom",
	}
	server := newTestServer(t, newFakeJobs(job), &fakeArtifacts{})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/v1/jobs/job-1", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["error"] == "" || body["error"] == nil {
		t.Error("failed job must expose its error string")
	}
	if _, ok := body["result"]; ok {
		t.Error("failed job must not carry a result view")
	}
}

func TestJobArtifactsReportsPresignValidity(t *testing.T) {
	job := &domain.Job{ID: "job-1", UserID: "user-1", Status: domain.JobStatusCompleted, Model: "fal-ai/flux-2"}
	artifacts := &fakeArtifacts{artifacts: []domain.Artifact{
		{
			ID:                    "a1",
			JobID:                 "job-1",
			Kind:                  domain.ArtifactKindImage,
			StorageKey:            "jobs/job-1/image-1.png",
			PresignedURL:          "https://store.example/jobs/job-1/image-1.png",
			PresignedURLExpiresAt: time.Now().Add(-time.Minute),
		},
	}}
	server := newTestServer(t, newFakeJobs(job), artifacts)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/v1/jobs/job-1/artifacts", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", body["items"])
	}
	item := items[0].(map[string]any)
	if item["presigned_url_valid"] != false {
		t.Errorf("expired presigned url reported valid: %v", item)
	}
}
