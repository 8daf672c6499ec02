package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "./data", config.Storage.Badger.Path)
	assert.Equal(t, 5*time.Minute, config.Engine.LoginTimeout)
	assert.Equal(t, 15*time.Second, config.Engine.ElementTimeout)
	assert.Equal(t, 10*time.Minute, config.Engine.AttemptTimeout)
	assert.Equal(t, 50*time.Millisecond, config.Engine.TypingDelay)
	assert.Equal(t, 24*time.Hour, config.Jobs.Retention)
	assert.Equal(t, "0 * * * *", config.Jobs.PruneSchedule)
	assert.False(t, config.IsProduction())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scribe.toml")

	content := `
environment = "production"

[server]
port = 9090
host = "0.0.0.0"

[engine]
allow_interactive = false
typing_delay = "25ms"

[jobs]
retention = "48h"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.False(t, config.Engine.AllowInteractive)
	assert.Equal(t, 25*time.Millisecond, config.Engine.TypingDelay)
	assert.Equal(t, 48*time.Hour, config.Jobs.Retention)
	assert.True(t, config.IsProduction())

	// Untouched values keep their defaults
	assert.Equal(t, 5*time.Minute, config.Engine.LoginTimeout)
}

func TestLoadFromFilesLaterOverridesEarlier(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte("[server]\nport = 9000\nhost = \"base\"\n"), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte("[server]\nport = 9999\n"), 0644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "base", config.Server.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCRIBE_SERVER_PORT", "7070")
	t.Setenv("SCRIBE_LOG_LEVEL", "debug")
	t.Setenv("SCRIBE_ENGINE_LOGIN_TIMEOUT", "90s")
	t.Setenv("SCRIBE_JOBS_RETENTION", "12h")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 90*time.Second, config.Engine.LoginTimeout)
	assert.Equal(t, 12*time.Hour, config.Jobs.Retention)
}

func TestFlagOverridesWinOverEnv(t *testing.T) {
	t.Setenv("SCRIBE_SERVER_PORT", "7070")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	ApplyFlagOverrides(config, 6060, "flag-host")

	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "flag-host", config.Server.Host)
}

func TestFlagOverridesIgnoreZeroValues(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 0, "")

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
}
