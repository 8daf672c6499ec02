package engine

import (
	"context"

	"github.com/navely/scribe/internal/interfaces"
	"github.com/navely/scribe/internal/models"
	"github.com/ternarybob/arbor"
)

// Selector tries engines in preference order until one publishes the
// post. The interactive engine is preferred; the credentialed engine
// is the fallback. An engine whose Available() is false is skipped
// without counting as a failure attempt.
type Selector struct {
	engines []interfaces.Engine
	logger  arbor.ILogger
}

// NewSelector creates a selector over the given engines, tried in order
func NewSelector(logger arbor.ILogger, engines ...interfaces.Engine) *Selector {
	return &Selector{engines: engines, logger: logger}
}

// Engines returns the configured engines in preference order
func (s *Selector) Engines() []interfaces.Engine {
	return s.engines
}

// ActiveEngine returns the ID of the first available engine, or ""
// when none is available
func (s *Selector) ActiveEngine() string {
	for _, eng := range s.engines {
		if eng.Available() {
			return eng.ID()
		}
	}
	return ""
}

// Post runs the request through the engines until one succeeds.
// Context cancellation aborts immediately without trying further
// engines. When every engine fails the composite error reports each
// attempt.
func (s *Selector) Post(ctx context.Context, req *models.PostRequest, fn interfaces.ProgressFunc) (*models.PostResult, error) {
	attempts := make(map[string]error)

	for _, eng := range s.engines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !eng.Available() {
			s.logger.Debug().Str("engine", eng.ID()).Msg("Engine not available, skipping")
			continue
		}

		s.logger.Info().
			Str("engine", eng.ID()).
			Str("account", req.Account.ID).
			Msg("Attempting post")

		result, err := eng.Post(ctx, req, fn)
		if err == nil {
			return result, nil
		}

		// A cancelled context is the caller's decision, not an engine
		// failure. Do not fall through to the next engine.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s.logger.Warn().
			Err(err).
			Str("engine", eng.ID()).
			Msg("Engine attempt failed")
		attempts[eng.ID()] = err
	}

	return nil, &AllEnginesFailedError{Attempts: attempts}
}
