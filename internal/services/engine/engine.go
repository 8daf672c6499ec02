// -----------------------------------------------------------------------
// Engine - Browser automation engines for blog post publishing
// -----------------------------------------------------------------------

package engine

import (
	"fmt"
	"strings"
)

// Engine identifiers
const (
	EngineInteractive  = "interactive"
	EngineCredentialed = "credentialed"
)

// EngineError describes a failure inside a single engine attempt.
// The engine ID is carried so the selector can report which engines
// were tried and why each failed.
type EngineError struct {
	Engine string
	Stage  string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s failed at %s: %v", e.Engine, e.Stage, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError wraps an error with engine and stage context
func NewEngineError(engine, stage string, err error) *EngineError {
	return &EngineError{Engine: engine, Stage: stage, Err: err}
}

// AllEnginesFailedError is returned when every candidate engine was
// tried and none published the post.
type AllEnginesFailedError struct {
	Attempts map[string]error
}

func (e *AllEnginesFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "no automation engines available"
	}
	parts := make([]string, 0, len(e.Attempts))
	for engine, err := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", engine, err))
	}
	return "all automation engines failed: " + strings.Join(parts, "; ")
}
