package interfaces

import (
	"context"
	"time"

	"github.com/navely/scribe/internal/models"
)

// JobStorage - interface for job persistence
type JobStorage interface {
	// Save stores or replaces a job
	Save(ctx context.Context, job *models.Job) error

	// Get retrieves a job by ID, nil if not found
	Get(ctx context.Context, id string) (*models.Job, error)

	// List returns jobs filtered by status ("" for all), newest first
	List(ctx context.Context, status models.JobStatus, limit int) ([]*models.Job, error)

	// Delete removes a job by ID
	Delete(ctx context.Context, id string) error

	// DeleteTerminalBefore removes terminal jobs completed before the cutoff,
	// returning the number deleted
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of stored jobs
	Count(ctx context.Context) (int, error)
}
