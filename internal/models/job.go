// -----------------------------------------------------------------------
// Job - Blog post automation job with explicit status lifecycle
// -----------------------------------------------------------------------

package models

import (
	"time"
)

// JobStatus is the lifecycle state of a post job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether the status is a final state.
// Terminal statuses never transition again.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// IsLive reports whether the job is still pending or running.
func (s JobStatus) IsLive() bool {
	return s == JobStatusPending || s == JobStatusInProgress
}

// Job tracks one blog post submission from acceptance to terminal state.
//
// Job State Lifecycle:
//  1. pending     - accepted, waiting for the worker goroutine to start
//  2. in_progress - browser automation underway, Progress advances
//  3. completed   - post published, Result holds the outcome
//  4. failed      - all engines failed or the account was busy
//  5. cancelled   - caller cancelled before completion
//
// The first terminal transition wins. Mark helpers ignore transitions
// out of a terminal state so a late worker cannot overwrite a cancel.
type Job struct {
	ID        string    `json:"id" badgerhold:"key"`
	Status    JobStatus `json:"status" badgerhold:"index"`
	AccountID string    `json:"account_id" badgerhold:"index"`

	// Request snapshot (immutable after creation). Persisted so the
	// worker can pick it up, but never serialized back to clients:
	// it carries the account credential.
	Request *PostRequest `json:"-"`

	// Progress percentage 0-100, monotonically non-decreasing
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`

	// Result is set only on completion
	Result *PostResult `json:"result,omitempty"`

	// Error description, set on failure
	Error string `json:"error,omitempty"`

	// Engine that produced the terminal outcome ("interactive" or "credentialed")
	Engine string `json:"engine,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a pending job for the given request.
func NewJob(id string, req *PostRequest) *Job {
	return &Job{
		ID:        id,
		Status:    JobStatusPending,
		AccountID: req.Account.ID,
		Request:   req,
		Progress:  0,
		CreatedAt: time.Now(),
	}
}

// MarkStarted transitions the job to in_progress.
// Returns false if the job already reached a terminal state.
func (j *Job) MarkStarted() bool {
	if j.Status.IsTerminal() {
		return false
	}
	now := time.Now()
	j.Status = JobStatusInProgress
	j.StartedAt = &now
	return true
}

// SetProgress records a progress update. Progress never moves backwards.
func (j *Job) SetProgress(percent int, message string) {
	if j.Status.IsTerminal() {
		return
	}
	if percent > j.Progress {
		j.Progress = percent
	}
	if message != "" {
		j.Message = message
	}
}

// MarkCompleted transitions the job to completed with its result.
// Returns false if the job already reached a terminal state.
func (j *Job) MarkCompleted(result *PostResult) bool {
	if j.Status.IsTerminal() {
		return false
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Result = result
	if result != nil {
		j.Message = result.Message
		j.Engine = result.Engine
	}
	j.CompletedAt = &now
	return true
}

// MarkFailed transitions the job to failed with an error description.
// Progress resets to zero so a failed job never reports partial work.
// Returns false if the job already reached a terminal state.
func (j *Job) MarkFailed(errMsg string) bool {
	if j.Status.IsTerminal() {
		return false
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.Progress = 0
	j.Error = errMsg
	j.CompletedAt = &now
	return true
}

// MarkCancelled transitions the job to cancelled.
// Returns false if the job already reached a terminal state.
func (j *Job) MarkCancelled() bool {
	if j.Status.IsTerminal() {
		return false
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.Message = "cancelled by request"
	j.CompletedAt = &now
	return true
}
