package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/interfaces"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// ValueLogGC triggers storage garbage collection after a prune pass.
// Implemented by the badger connection.
type ValueLogGC interface {
	RunValueLogGC() error
}

// RetentionSweeper prunes terminal jobs older than the retention
// window on a cron schedule. Live jobs are never pruned.
type RetentionSweeper struct {
	storage   interfaces.JobStorage
	gc        ValueLogGC
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	logger    arbor.ILogger
}

// NewRetentionSweeper creates the sweeper from jobs config
func NewRetentionSweeper(storage interfaces.JobStorage, gc ValueLogGC, config *common.JobsConfig, logger arbor.ILogger) *RetentionSweeper {
	return &RetentionSweeper{
		storage:   storage,
		gc:        gc,
		retention: config.Retention,
		schedule:  config.PruneSchedule,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the cron entry and begins sweeping
func (s *RetentionSweeper) Start() error {
	if s.retention <= 0 {
		s.logger.Info().Msg("Job retention disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Dur("retention", s.retention).
		Msg("Job retention sweeper started")
	return nil
}

// Stop halts the cron scheduler
func (s *RetentionSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep runs one prune pass and returns the number of jobs removed
func (s *RetentionSweeper) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-s.retention)

	deleted, err := s.storage.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Retention sweep failed")
		return 0
	}

	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Pruned old jobs")
	}

	if s.gc != nil {
		if err := s.gc.RunValueLogGC(); err != nil {
			s.logger.Warn().Err(err).Msg("Value log GC failed")
		}
	}

	return deleted
}
