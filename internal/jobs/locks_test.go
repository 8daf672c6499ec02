package jobs

import (
	"sync"
	"testing"
	"time"

	"github.com/navely/scribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestLockManager(ttl time.Duration) *LockManager {
	return NewLockManager(ttl, arbor.NewLogger())
}

func TestTryAcquireAndRelease(t *testing.T) {
	m := newTestLockManager(time.Minute)

	require.True(t, m.TryAcquire("acct", "job_1"))
	assert.True(t, m.IsLocked("acct"))

	// Second job cannot take the same account
	assert.False(t, m.TryAcquire("acct", "job_2"))

	require.True(t, m.Release("acct", "job_1"))
	assert.False(t, m.IsLocked("acct"))

	// Now it is free again
	assert.True(t, m.TryAcquire("acct", "job_2"))
}

func TestReleaseByNonOwnerIsIgnored(t *testing.T) {
	m := newTestLockManager(time.Minute)

	require.True(t, m.TryAcquire("acct", "job_1"))
	assert.False(t, m.Release("acct", "job_2"))
	assert.True(t, m.IsLocked("acct"))
}

func TestReleaseUnheldLock(t *testing.T) {
	m := newTestLockManager(time.Minute)
	assert.False(t, m.Release("acct", "job_1"))
}

func TestStaleLockIsReclaimed(t *testing.T) {
	m := newTestLockManager(20 * time.Millisecond)

	require.True(t, m.TryAcquire("acct", "job_1"))
	time.Sleep(30 * time.Millisecond)

	// Stale lock reclaimed by the next acquire
	assert.True(t, m.TryAcquire("acct", "job_2"))

	// The stale owner can no longer release it
	assert.False(t, m.Release("acct", "job_1"))
	assert.True(t, m.Release("acct", "job_2"))
}

func TestDeadOwnerLockIsReclaimed(t *testing.T) {
	m := newTestLockManager(time.Minute)

	statuses := map[string]models.JobStatus{"job_1": models.JobStatusInProgress}
	m.SetOwnerStatusFunc(func(jobID string) (models.JobStatus, bool) {
		s, ok := statuses[jobID]
		return s, ok
	})

	require.True(t, m.TryAcquire("acct", "job_1"))
	assert.False(t, m.TryAcquire("acct", "job_2"))

	// Owner reached a terminal state without releasing: the lock is
	// stale well before the TTL
	statuses["job_1"] = models.JobStatusFailed
	assert.False(t, m.IsLocked("acct"))
	assert.True(t, m.TryAcquire("acct", "job_2"))
}

func TestDifferentAccountsAreIndependent(t *testing.T) {
	m := newTestLockManager(time.Minute)

	assert.True(t, m.TryAcquire("acct-a", "job_1"))
	assert.True(t, m.TryAcquire("acct-b", "job_2"))
}

func TestSnapshot(t *testing.T) {
	m := newTestLockManager(time.Minute)

	m.TryAcquire("acct-a", "job_1")
	m.TryAcquire("acct-b", "job_2")

	infos := m.Snapshot()
	require.Len(t, infos, 2)

	byAccount := make(map[string]LockInfo)
	for _, info := range infos {
		byAccount[info.AccountID] = info
	}
	assert.Equal(t, "job_1", byAccount["acct-a"].OwnerJobID)
	assert.Equal(t, "job_2", byAccount["acct-b"].OwnerJobID)
}

func TestSnapshotIncludesOwnerStatus(t *testing.T) {
	m := newTestLockManager(time.Minute)
	m.SetOwnerStatusFunc(func(jobID string) (models.JobStatus, bool) {
		return models.JobStatusInProgress, true
	})

	require.True(t, m.TryAcquire("acct", "job_1"))

	infos := m.Snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, models.JobStatusInProgress, infos[0].OwnerStatus)
}

func TestConcurrentAcquireGrantsOneWinner(t *testing.T) {
	m := newTestLockManager(time.Minute)

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if m.TryAcquire("acct", "job") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}
