package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusInQueue    JobStatus = "IN_QUEUE"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ActiveStatuses are the states counted against a user's concurrency limit.
var ActiveStatuses = []JobStatus{JobStatusPending, JobStatusInQueue, JobStatusInProgress}

// TerminalStatuses are the states the retention sweeper is allowed to reap.
var TerminalStatuses = []JobStatus{JobStatusCompleted, JobStatusFailed}

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Startable reports whether an executor may move the job to IN_PROGRESS.
func (s JobStatus) Startable() bool {
	return s == JobStatusPending || s == JobStatusInQueue
}

// Job encapsulates the lifecycle of one asynchronous generation request.
type Job struct {
	ID            string
	UserID        string
	Status        JobStatus
	Provider      string
	Model         string
	Arguments     json.RawMessage
	StoreResult   bool
	ExternalJobID string
	ErrorMessage  string
	ResultJSON    json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Duration returns the elapsed seconds between creation and the terminal
// update. Only meaningful once the job has completed; other states return 0.
func (j *Job) Duration() float64 {
	if j.Status != JobStatusCompleted {
		return 0
	}
	return j.UpdatedAt.Sub(j.CreatedAt).Seconds()
}
