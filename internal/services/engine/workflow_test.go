package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestExtractPostURLFromCanonical(t *testing.T) {
	html := `<html><head><link rel="canonical" href="https://blog.naver.com/acct/223000000001"/></head><body></body></html>`
	assert.Equal(t, "https://blog.naver.com/acct/223000000001", extractPostURL(html))
}

func TestExtractPostURLFromOgURL(t *testing.T) {
	html := `<html><head><meta property="og:url" content="https://blog.naver.com/acct/223000000002"/></head><body></body></html>`
	assert.Equal(t, "https://blog.naver.com/acct/223000000002", extractPostURL(html))
}

func TestExtractPostURLPrefersCanonical(t *testing.T) {
	html := `<html><head>
		<link rel="canonical" href="https://blog.naver.com/acct/111"/>
		<meta property="og:url" content="https://blog.naver.com/acct/222"/>
	</head></html>`
	assert.Equal(t, "https://blog.naver.com/acct/111", extractPostURL(html))
}

func TestExtractPostURLMissing(t *testing.T) {
	assert.Equal(t, "", extractPostURL("<html><body>no links here</body></html>"))
	assert.Equal(t, "", extractPostURL(""))
}

func TestFormatTags(t *testing.T) {
	assert.Equal(t, "#golang #testing", formatTags([]string{"golang", "testing"}))
	assert.Equal(t, "#golang", formatTags([]string{"#golang"}))
	assert.Equal(t, "#a #b", formatTags([]string{" a ", "", "b"}))
	assert.Equal(t, "", formatTags(nil))
}

func TestCredentialedRequiresPassword(t *testing.T) {
	config := common.NewDefaultConfig()
	eng := NewCredentialedEngine(&config.Engine, arbor.NewLogger())

	req := &models.PostRequest{
		Account: models.Account{ID: "acct"}, // no password
		Title:   "title",
		Content: "content",
	}

	_, err := eng.Post(context.Background(), req, func(int, string) {})
	require.Error(t, err)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, EngineCredentialed, engErr.Engine)
	assert.Equal(t, "login", engErr.Stage)
}

func TestInteractiveUnavailableWhenDisabled(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Engine.AllowInteractive = false

	eng := NewInteractiveEngine(&config.Engine, arbor.NewLogger())
	assert.False(t, eng.Available())
}

func TestSweepLeftoverProfiles(t *testing.T) {
	baseDir := t.TempDir()

	stale := filepath.Join(baseDir, "scribe-profile-stale1")
	require.NoError(t, os.MkdirAll(stale, 0755))
	unrelated := filepath.Join(baseDir, "other-dir")
	require.NoError(t, os.MkdirAll(unrelated, 0755))

	removed := SweepLeftoverProfiles(baseDir, arbor.NewLogger())
	assert.Equal(t, 1, removed)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(unrelated)
	assert.NoError(t, err)
}

func TestEngineErrorUnwrap(t *testing.T) {
	inner := os.ErrNotExist
	err := NewEngineError(EngineInteractive, "launch", inner)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "interactive")
	assert.Contains(t, err.Error(), "launch")
}
