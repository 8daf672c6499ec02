package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(account string) *PostRequest {
	return &PostRequest{
		Account: Account{ID: account, Password: "secret"},
		Title:   "hello",
		Content: "body text",
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("job_1", testRequest("acct"))

	assert.Equal(t, "job_1", job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, "acct", job.AccountID)
	assert.Equal(t, 0, job.Progress)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestJobLifecycle(t *testing.T) {
	job := NewJob("job_1", testRequest("acct"))

	require.True(t, job.MarkStarted())
	assert.Equal(t, JobStatusInProgress, job.Status)
	require.NotNil(t, job.StartedAt)

	result := &PostResult{Success: true, Message: "done", Engine: "credentialed"}
	require.True(t, job.MarkCompleted(result))
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "credentialed", job.Engine)
	require.NotNil(t, job.CompletedAt)
}

func TestTerminalStatusIsSticky(t *testing.T) {
	job := NewJob("job_1", testRequest("acct"))
	require.True(t, job.MarkCancelled())

	// No transition out of a terminal state
	assert.False(t, job.MarkStarted())
	assert.False(t, job.MarkCompleted(&PostResult{Success: true}))
	assert.False(t, job.MarkFailed("late failure"))
	assert.False(t, job.MarkCancelled())

	assert.Equal(t, JobStatusCancelled, job.Status)
	assert.Empty(t, job.Error)
	assert.Nil(t, job.Result)
}

func TestProgressNeverMovesBackwards(t *testing.T) {
	job := NewJob("job_1", testRequest("acct"))
	job.MarkStarted()

	job.SetProgress(40, "editor")
	job.SetProgress(15, "stale update")

	assert.Equal(t, 40, job.Progress)
	assert.Equal(t, "stale update", job.Message)
}

func TestFailureResetsProgress(t *testing.T) {
	job := NewJob("job_1", testRequest("acct"))
	require.True(t, job.MarkStarted())
	job.SetProgress(70, "entering content")

	require.True(t, job.MarkFailed("publish failed"))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, "publish failed", job.Error)
	require.NotNil(t, job.CompletedAt)
}

func TestJobJSONOmitsRequest(t *testing.T) {
	job := NewJob("job_1", testRequest("acct"))

	data, err := json.Marshal(job)
	require.NoError(t, err)

	// The request snapshot carries the credential and must never
	// appear in responses or event payloads
	assert.NotContains(t, string(data), "request")
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"account_id":"acct"`)
}

func TestProgressIgnoredAfterTerminal(t *testing.T) {
	job := NewJob("job_1", testRequest("acct"))
	job.MarkFailed("boom")

	job.SetProgress(90, "late progress")

	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, JobStatusFailed, job.Status)
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, JobStatusPending.IsLive())
	assert.True(t, JobStatusInProgress.IsLive())
	assert.False(t, JobStatusCompleted.IsLive())

	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusInProgress.IsTerminal())
}
