package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/navely/scribe/internal/interfaces"
	"github.com/navely/scribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// stubEngine is a configurable fake engine
type stubEngine struct {
	id        string
	available bool
	result    *models.PostResult
	err       error
	called    bool
}

func (e *stubEngine) ID() string      { return e.id }
func (e *stubEngine) Available() bool { return e.available }

func (e *stubEngine) Post(ctx context.Context, req *models.PostRequest, fn interfaces.ProgressFunc) (*models.PostResult, error) {
	e.called = true
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func selectorRequest() *models.PostRequest {
	return &models.PostRequest{
		Account: models.Account{ID: "acct"},
		Title:   "title",
		Content: "content",
	}
}

func noProgress(int, string) {}

func TestSelectorUsesFirstAvailableEngine(t *testing.T) {
	primary := &stubEngine{id: EngineInteractive, available: true, result: &models.PostResult{Success: true, Engine: EngineInteractive}}
	fallback := &stubEngine{id: EngineCredentialed, available: true, result: &models.PostResult{Success: true, Engine: EngineCredentialed}}
	s := NewSelector(arbor.NewLogger(), primary, fallback)

	result, err := s.Post(context.Background(), selectorRequest(), noProgress)
	require.NoError(t, err)
	assert.Equal(t, EngineInteractive, result.Engine)
	assert.False(t, fallback.called)
}

func TestSelectorSkipsUnavailableEngine(t *testing.T) {
	primary := &stubEngine{id: EngineInteractive, available: false}
	fallback := &stubEngine{id: EngineCredentialed, available: true, result: &models.PostResult{Success: true, Engine: EngineCredentialed}}
	s := NewSelector(arbor.NewLogger(), primary, fallback)

	result, err := s.Post(context.Background(), selectorRequest(), noProgress)
	require.NoError(t, err)
	assert.Equal(t, EngineCredentialed, result.Engine)
	assert.False(t, primary.called)
}

func TestSelectorFallsBackAfterFailure(t *testing.T) {
	primary := &stubEngine{id: EngineInteractive, available: true, err: errors.New("login window closed")}
	fallback := &stubEngine{id: EngineCredentialed, available: true, result: &models.PostResult{Success: true, Engine: EngineCredentialed}}
	s := NewSelector(arbor.NewLogger(), primary, fallback)

	result, err := s.Post(context.Background(), selectorRequest(), noProgress)
	require.NoError(t, err)
	assert.Equal(t, EngineCredentialed, result.Engine)
	assert.True(t, primary.called)
}

func TestSelectorReportsAllFailures(t *testing.T) {
	primary := &stubEngine{id: EngineInteractive, available: true, err: errors.New("no display")}
	fallback := &stubEngine{id: EngineCredentialed, available: true, err: errors.New("bad password")}
	s := NewSelector(arbor.NewLogger(), primary, fallback)

	_, err := s.Post(context.Background(), selectorRequest(), noProgress)
	require.Error(t, err)

	var allFailed *AllEnginesFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Attempts, 2)
	assert.Contains(t, err.Error(), "no display")
	assert.Contains(t, err.Error(), "bad password")
}

func TestSelectorWithNoAvailableEngines(t *testing.T) {
	primary := &stubEngine{id: EngineInteractive, available: false}
	fallback := &stubEngine{id: EngineCredentialed, available: false}
	s := NewSelector(arbor.NewLogger(), primary, fallback)

	_, err := s.Post(context.Background(), selectorRequest(), noProgress)
	require.Error(t, err)

	var allFailed *AllEnginesFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Empty(t, allFailed.Attempts)
	assert.Contains(t, err.Error(), "no automation engines available")
}

func TestSelectorStopsOnCancelledContext(t *testing.T) {
	primary := &stubEngine{id: EngineInteractive, available: true, err: errors.New("whatever")}
	fallback := &stubEngine{id: EngineCredentialed, available: true, result: &models.PostResult{Success: true}}
	s := NewSelector(arbor.NewLogger(), primary, fallback)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Post(ctx, selectorRequest(), noProgress)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, primary.called)
	assert.False(t, fallback.called)
}

func TestActiveEngine(t *testing.T) {
	primary := &stubEngine{id: EngineInteractive, available: false}
	fallback := &stubEngine{id: EngineCredentialed, available: true}
	s := NewSelector(arbor.NewLogger(), primary, fallback)

	assert.Equal(t, EngineCredentialed, s.ActiveEngine())

	none := NewSelector(arbor.NewLogger(), &stubEngine{id: EngineInteractive, available: false})
	assert.Equal(t, "", none.ActiveEngine())
}
