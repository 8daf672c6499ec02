// -----------------------------------------------------------------------
// App - Application wiring and lifecycle
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/handlers"
	"github.com/navely/scribe/internal/interfaces"
	"github.com/navely/scribe/internal/jobs"
	"github.com/navely/scribe/internal/models"
	"github.com/navely/scribe/internal/services/engine"
	"github.com/navely/scribe/internal/services/events"
	badgerstorage "github.com/navely/scribe/internal/storage/badger"
	"github.com/ternarybob/arbor"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Storage
	DB         *badgerstorage.BadgerDB
	JobStorage interfaces.JobStorage

	// Event bus
	EventService interfaces.EventService

	// Job pipeline
	LockManager  *jobs.LockManager
	Selector     *engine.Selector
	Orchestrator *jobs.Orchestrator
	Retention    *jobs.RetentionSweeper

	// HTTP handlers
	APIHandler  *handlers.APIHandler
	JobHandler  *handlers.JobHandler
	LockHandler *handlers.LockHandler
	WSHandler   *handlers.WebSocketHandler
}

// New initializes all application components
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Config:    config,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	// Storage
	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.DB = db
	a.JobStorage = badgerstorage.NewJobStorage(db, logger)

	// Event bus
	a.EventService = events.NewService(logger)

	// Clean up profiles left behind by a previous crashed run
	engine.SweepLeftoverProfiles(config.Engine.ProfileDir, logger)

	// Engines in preference order: interactive first, credentialed fallback
	interactive := engine.NewInteractiveEngine(&config.Engine, logger)
	credentialed := engine.NewCredentialedEngine(&config.Engine, logger)
	a.Selector = engine.NewSelector(logger, interactive, credentialed)

	// Job pipeline
	a.LockManager = jobs.NewLockManager(config.Engine.AttemptTimeout, logger)
	a.LockManager.SetOwnerStatusFunc(func(jobID string) (models.JobStatus, bool) {
		job, err := a.JobStorage.Get(ctx, jobID)
		if err != nil || job == nil {
			return "", false
		}
		return job.Status, true
	})
	a.Orchestrator = jobs.NewOrchestrator(ctx, a.JobStorage, a.LockManager, a.Selector, a.EventService, logger)

	a.Retention = jobs.NewRetentionSweeper(a.JobStorage, db, &config.Jobs, logger)
	if err := a.Retention.Start(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to start retention sweeper: %w", err)
	}

	// HTTP handlers
	a.APIHandler = handlers.NewAPIHandler(a.Orchestrator)
	a.JobHandler = handlers.NewJobHandler(a.Orchestrator)
	a.LockHandler = handlers.NewLockHandler(a.Orchestrator)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, logger)

	logger.Info().
		Str("active_engine", a.Orchestrator.ActiveEngine()).
		Str("storage_path", config.Storage.Badger.Path).
		Msg("Application initialized")

	return a, nil
}

// Close shuts down all components in reverse initialization order
func (a *App) Close() {
	a.cancelCtx()

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}
	if a.Retention != nil {
		a.Retention.Stop()
	}
	if a.EventService != nil {
		a.EventService.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close database")
		}
	}

	a.Logger.Info().Msg("Application stopped")
}
