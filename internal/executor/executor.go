// Package executor moves jobs through their lifecycle: it claims queued
// jobs, invokes the provider router, records the outcome, and materializes
// artifacts for completed jobs.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"weav/internal/ai"
	"weav/internal/domain"
	"weav/internal/infra"
)

// Executor runs one job at a time through the state machine. All provider
// work happens through the injected router; all writes go through the job
// repository. Failures during execution are recorded on the job, never
// returned to the queue as errors, so redelivery only happens for
// infrastructure faults.
type Executor struct {
	jobs         domain.JobRepository
	router       *ai.Router
	materializer *Materializer
	logger       infra.Logger
}

// New constructs an executor.
func New(jobs domain.JobRepository, router *ai.Router, materializer *Materializer, logger infra.Logger) *Executor {
	return &Executor{
		jobs:         jobs,
		router:       router,
		materializer: materializer,
		logger:       logger,
	}
}

// Run executes the job with the given identifier. A missing job is logged
// and dropped (it may have been deleted by retention). A job that is no
// longer startable is logged and dropped without side effects, which makes
// redelivered executions no-ops.
func (e *Executor) Run(ctx context.Context, jobID string) error {
	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.logger.Warn().Str("job_id", jobID).Msg("executor: job not found, dropping")
			return nil
		}
		return fmt.Errorf("executor: load job %s: %w", jobID, err)
	}
	if !job.Status.Startable() {
		e.logger.Warn().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Msg("executor: job already processed, dropping")
		return nil
	}

	started, err := e.jobs.Start(ctx, jobID)
	if err != nil {
		return fmt.Errorf("executor: start job %s: %w", jobID, err)
	}
	if !started {
		e.logger.Warn().Str("job_id", jobID).Msg("executor: job claimed elsewhere, dropping")
		return nil
	}

	mediaType := ai.ClassifyModel(job.Model)
	args, err := mergeModel(job.Arguments, job.Model)
	if err != nil {
		return e.fail(ctx, jobID, err.Error())
	}

	result, err := e.router.RouteAndRun(ctx, job.Provider, mediaType, args)
	if err != nil {
		return e.fail(ctx, jobID, classifyFailure(err))
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return e.fail(ctx, jobID, fmt.Sprintf("encode result: %v", err))
	}
	if err := e.jobs.Complete(ctx, jobID, resultJSON); err != nil {
		return fmt.Errorf("executor: complete job %s: %w", jobID, err)
	}
	e.logger.Info().
		Str("job_id", jobID).
		Str("media_type", string(mediaType)).
		Msg("executor: job completed")

	if e.materializer != nil {
		if _, err := e.materializer.Materialize(ctx, job, result, mediaType); err != nil {
			// The job is already terminal; artifact loss is logged, not fatal.
			e.logger.Error().Err(err).Str("job_id", jobID).Msg("executor: materialize artifacts failed")
		}
	}
	return nil
}

func (e *Executor) fail(ctx context.Context, jobID, message string) error {
	e.logger.Error().Str("job_id", jobID).Str("error", message).Msg("executor: job failed")
	if err := e.jobs.Fail(ctx, jobID, message); err != nil {
		return fmt.Errorf("executor: fail job %s: %w", jobID, err)
	}
	return nil
}

// classifyFailure prefixes taxonomy errors with a machine-distinguishable
// tag; anything else keeps its raw text.
func classifyFailure(err error) string {
	var quotaErr *ai.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return "quota_exceeded: " + err.Error()
	}
	var (
		providerErr *ai.ProviderError
		requestErr  *ai.RequestError
	)
	if errors.As(err, &providerErr) || errors.As(err, &requestErr) {
		return "provider_error: " + err.Error()
	}
	return err.Error()
}

// mergeModel copies the job's model name into the arguments payload so that
// image and video routing can treat the model as the pipeline endpoint.
func mergeModel(args json.RawMessage, model string) (json.RawMessage, error) {
	payload := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &payload); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
	}
	if model != "" {
		payload["model"] = model
	}
	merged, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	return merged, nil
}
