package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestSweepPrunesOldTerminalJobs(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)

	oldJob := models.NewJob("job_old", postRequest("acct"))
	oldJob.Status = models.JobStatusCompleted
	oldJob.CompletedAt = &old
	require.NoError(t, storage.Save(ctx, oldJob))

	recentJob := models.NewJob("job_recent", postRequest("acct"))
	recentJob.Status = models.JobStatusFailed
	recentJob.CompletedAt = &recent
	require.NoError(t, storage.Save(ctx, recentJob))

	liveJob := models.NewJob("job_live", postRequest("acct"))
	require.NoError(t, storage.Save(ctx, liveJob))

	config := &common.JobsConfig{Retention: 24 * time.Hour, PruneSchedule: "0 * * * *"}
	sweeper := NewRetentionSweeper(storage, nil, config, arbor.NewLogger())

	deleted := sweeper.Sweep(ctx)
	assert.Equal(t, 1, deleted)

	remaining, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	gone, err := storage.Get(ctx, "job_old")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	config := &common.JobsConfig{Retention: 24 * time.Hour, PruneSchedule: "not a schedule"}
	sweeper := NewRetentionSweeper(newMemStorage(), nil, config, arbor.NewLogger())

	err := sweeper.Start()
	assert.Error(t, err)
}

func TestSweeperDisabledWithZeroRetention(t *testing.T) {
	config := &common.JobsConfig{Retention: 0, PruneSchedule: "0 * * * *"}
	sweeper := NewRetentionSweeper(newMemStorage(), nil, config, arbor.NewLogger())

	assert.NoError(t, sweeper.Start())
}
