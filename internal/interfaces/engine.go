package interfaces

import (
	"context"

	"github.com/navely/scribe/internal/models"
)

// ProgressFunc reports publish progress as a percentage with a
// short human-readable message.
type ProgressFunc func(percent int, message string)

// Engine publishes a blog post via browser automation.
type Engine interface {
	// ID returns the stable engine identifier ("interactive" or "credentialed")
	ID() string

	// Available reports whether this engine can run in the current environment
	Available() bool

	// Post publishes the request, reporting progress through fn.
	// Blocks until the post is published, the context is cancelled,
	// or the attempt fails.
	Post(ctx context.Context, req *models.PostRequest, fn ProgressFunc) (*models.PostResult, error)
}
