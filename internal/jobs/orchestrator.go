// -----------------------------------------------------------------------
// Orchestrator - Async job lifecycle for blog post publishing
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/interfaces"
	"github.com/navely/scribe/internal/models"
	"github.com/navely/scribe/internal/services/engine"
	"github.com/ternarybob/arbor"
)

var (
	// ErrJobNotFound is returned when a job ID is unknown
	ErrJobNotFound = errors.New("job not found")
)

// Poster publishes one request through the configured engines.
// Satisfied by engine.Selector; tests substitute stubs.
type Poster interface {
	Post(ctx context.Context, req *models.PostRequest, fn interfaces.ProgressFunc) (*models.PostResult, error)
	ActiveEngine() string
}

// Orchestrator accepts post requests, runs them asynchronously, and
// tracks their jobs. Submit never blocks on browser work: the job is
// persisted as pending and a worker goroutine carries it to a
// terminal state. Account contention is discovered by the worker, so
// a busy account shows up as a failed job, not a rejected request.
type Orchestrator struct {
	storage interfaces.JobStorage
	locks   *LockManager
	poster  Poster
	events  interfaces.EventService
	logger  arbor.ILogger

	// mu serializes status transitions and guards cancels
	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	baseCtx context.Context
}

// NewOrchestrator wires the job pipeline
func NewOrchestrator(ctx context.Context, storage interfaces.JobStorage, locks *LockManager, poster Poster, events interfaces.EventService, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		storage: storage,
		locks:   locks,
		poster:  poster,
		events:  events,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
		baseCtx: ctx,
	}
}

// Submit accepts a post request and returns the pending job
// immediately. The job runs in the background.
func (o *Orchestrator) Submit(ctx context.Context, req *models.PostRequest) (*models.Job, error) {
	job := models.NewJob(common.NewJobID(), req)

	if err := o.storage.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	o.publishEvent(interfaces.EventJobCreated, job)

	o.logger.Info().
		Str("job_id", job.ID).
		Str("account", job.AccountID).
		Msg("Job accepted")

	common.SafeGo(o.logger, "job:"+job.ID, func() {
		o.run(job.ID)
	})

	return job, nil
}

// Get returns a job by ID
func (o *Orchestrator) Get(ctx context.Context, id string) (*models.Job, error) {
	job, err := o.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// List returns jobs filtered by status ("" for all), newest first
func (o *Orchestrator) List(ctx context.Context, status models.JobStatus, limit int) ([]*models.Job, error) {
	return o.storage.List(ctx, status, limit)
}

// Cancel requests cancellation of a live job. Cancelling a terminal
// job is a no-op that returns the job unchanged.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (*models.Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, err := o.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	if job.Status.IsTerminal() {
		return job, nil
	}

	// Signal the worker first so a running browser attempt aborts.
	if cancel, ok := o.cancels[id]; ok {
		cancel()
	}

	if job.MarkCancelled() {
		if err := o.storage.Save(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to persist cancellation: %w", err)
		}
		o.publishEvent(interfaces.EventJobCancelled, job)
		o.logger.Info().Str("job_id", id).Msg("Job cancelled")
	}

	return job, nil
}

// Locks returns the current account lock snapshot
func (o *Orchestrator) Locks() []LockInfo {
	return o.locks.Snapshot()
}

// ActiveEngine reports which engine would handle the next job
func (o *Orchestrator) ActiveEngine() string {
	return o.poster.ActiveEngine()
}

// run carries one job from pending to a terminal state. The account
// lock, the job context, and the cancel registration are all released
// on every exit path.
func (o *Orchestrator) run(jobID string) {
	ctx := o.baseCtx

	job, err := o.storage.Get(ctx, jobID)
	if err != nil || job == nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("Job vanished before execution")
		return
	}

	// A panic below must not strand the job in_progress. The lock and
	// cancel registration defers run first, then the job is failed.
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("job_id", jobID).
				Str("panic", fmt.Sprint(r)).
				Msg("Job worker panicked")
			o.finishFailed(job, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// Cancel may have landed between Submit and here.
	if job.Status.IsTerminal() {
		return
	}

	if !o.locks.TryAcquire(job.AccountID, job.ID) {
		o.finishFailed(job, fmt.Sprintf("account %s is busy with another job", job.AccountID))
		return
	}
	defer o.locks.Release(job.AccountID, job.ID)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, job.ID)
		o.mu.Unlock()
	}()

	if !o.transition(job, func(j *models.Job) bool { return j.MarkStarted() }, interfaces.EventJobStarted) {
		return
	}

	result, err := o.poster.Post(jobCtx, job.Request, func(percent int, message string) {
		o.progress(job, percent, message)
	})

	if err != nil {
		if jobCtx.Err() != nil {
			// Cancel already transitioned and persisted the job.
			return
		}
		var allFailed *engine.AllEnginesFailedError
		if errors.As(err, &allFailed) {
			o.finishFailed(job, allFailed.Error())
		} else {
			o.finishFailed(job, err.Error())
		}
		return
	}

	o.transition(job, func(j *models.Job) bool { return j.MarkCompleted(result) }, interfaces.EventJobCompleted)
}

// transition applies a status change under the orchestrator lock,
// persisting and publishing only when the change took effect.
func (o *Orchestrator) transition(job *models.Job, apply func(*models.Job) bool, event interfaces.EventType) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Re-read so a concurrent cancel is not overwritten.
	stored, err := o.storage.Get(o.baseCtx, job.ID)
	if err == nil && stored != nil {
		*job = *stored
	}

	if !apply(job) {
		return false
	}
	if err := o.storage.Save(o.baseCtx, job); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist job transition")
		return false
	}
	o.publishEvent(event, job)
	return true
}

func (o *Orchestrator) progress(job *models.Job, percent int, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	stored, err := o.storage.Get(o.baseCtx, job.ID)
	if err == nil && stored != nil {
		*job = *stored
	}
	if job.Status.IsTerminal() {
		return
	}

	job.SetProgress(percent, message)
	if err := o.storage.Save(o.baseCtx, job); err != nil {
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist progress")
		return
	}

	o.logger.Debug().
		Str("job_id", job.ID).
		Int("progress", percent).
		Str("message", message).
		Msg("Job progress")

	o.publishEvent(interfaces.EventJobProgress, job)
}

func (o *Orchestrator) finishFailed(job *models.Job, errMsg string) {
	if o.transition(job, func(j *models.Job) bool { return j.MarkFailed(errMsg) }, interfaces.EventJobFailed) {
		o.logger.Warn().
			Str("job_id", job.ID).
			Str("error", errMsg).
			Msg("Job failed")
	}
}

func (o *Orchestrator) publishEvent(eventType interfaces.EventType, job *models.Job) {
	if o.events == nil {
		return
	}
	snapshot := *job
	if err := o.events.Publish(o.baseCtx, interfaces.Event{Type: eventType, Payload: &snapshot}); err != nil {
		o.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish job event")
	}
}
