// -----------------------------------------------------------------------
// Lock Manager - Per-account exclusive locks for post jobs
// -----------------------------------------------------------------------

package jobs

import (
	"sync"
	"time"

	"github.com/navely/scribe/internal/models"
	"github.com/ternarybob/arbor"
)

// accountLock records which job holds an account and since when.
type accountLock struct {
	OwnerJobID string
	AcquiredAt time.Time
}

// OwnerStatusFunc reports the current status of a lock-owning job and
// whether the job is known at all.
type OwnerStatusFunc func(jobID string) (models.JobStatus, bool)

// LockManager grants at most one live job per account. A lock is
// stale when its owning job is no longer pending or in progress, or
// as a backstop when the TTL has elapsed. Stale locks are reclaimed
// lazily on the next acquire attempt, so a crashed worker cannot
// wedge an account forever.
type LockManager struct {
	mu          sync.Mutex
	locks       map[string]*accountLock
	ttl         time.Duration
	ownerStatus OwnerStatusFunc
	logger      arbor.ILogger
}

// LockInfo is a read-only snapshot of one held lock.
type LockInfo struct {
	AccountID   string           `json:"account_id"`
	OwnerJobID  string           `json:"owner_job_id"`
	OwnerStatus models.JobStatus `json:"owner_status,omitempty"`
	AcquiredAt  time.Time        `json:"acquired_at"`
}

// NewLockManager creates a lock manager with the given stale TTL
func NewLockManager(ttl time.Duration, logger arbor.ILogger) *LockManager {
	return &LockManager{
		locks:  make(map[string]*accountLock),
		ttl:    ttl,
		logger: logger,
	}
}

// SetOwnerStatusFunc installs the job status lookup used to detect
// dead owners. Without it, staleness falls back to the TTL alone.
func (m *LockManager) SetOwnerStatusFunc(fn OwnerStatusFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownerStatus = fn
}

// stale reports whether the lock can be reclaimed. Callers hold m.mu.
func (m *LockManager) stale(lock *accountLock) bool {
	if time.Since(lock.AcquiredAt) >= m.ttl {
		return true
	}
	if m.ownerStatus != nil {
		if status, ok := m.ownerStatus(lock.OwnerJobID); ok && !status.IsLive() {
			return true
		}
	}
	return false
}

// TryAcquire attempts to take the lock for accountID on behalf of
// jobID. Returns true on success. A stale lock is silently reclaimed.
// Never blocks.
func (m *LockManager) TryAcquire(accountID, jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.locks[accountID]; ok {
		if !m.stale(existing) {
			return false
		}
		m.logger.Warn().
			Str("account", accountID).
			Str("stale_owner", existing.OwnerJobID).
			Msg("Reclaiming stale account lock")
	}

	m.locks[accountID] = &accountLock{
		OwnerJobID: jobID,
		AcquiredAt: time.Now(),
	}
	return true
}

// Release frees the lock for accountID if and only if jobID is the
// current owner. A release by a non-owner is ignored so a stale
// worker cannot free a lock that was reclaimed by a newer job.
func (m *LockManager) Release(accountID, jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[accountID]
	if !ok || existing.OwnerJobID != jobID {
		return false
	}
	delete(m.locks, accountID)
	return true
}

// IsLocked reports whether the account currently has a non-stale lock
func (m *LockManager) IsLocked(accountID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[accountID]
	return ok && !m.stale(existing)
}

// Snapshot returns the currently held, non-stale locks with the
// owning job's status when the lookup is available
func (m *LockManager) Snapshot() []LockInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]LockInfo, 0, len(m.locks))
	for accountID, lock := range m.locks {
		if m.stale(lock) {
			continue
		}
		info := LockInfo{
			AccountID:  accountID,
			OwnerJobID: lock.OwnerJobID,
			AcquiredAt: lock.AcquiredAt,
		}
		if m.ownerStatus != nil {
			if status, ok := m.ownerStatus(lock.OwnerJobID); ok {
				info.OwnerStatus = status
			}
		}
		infos = append(infos, info)
	}
	return infos
}
