package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/maestro/types"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Archive.MaxSessions)
	assert.Equal(t, "maestro", cfg.Metrics.Namespace)
	assert.Equal(t, types.FormatMarkdown, cfg.Session.OutputFormat)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maestro.yaml")
	data := `
log:
  level: debug
providers:
  gemini:
    model: gemini-test
    timeout: 15s
archive:
  path: /tmp/sessions.db
  max_sessions: 5
session:
  user_name: Ada
  temperature: 0.3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "gemini-test", cfg.Providers.Gemini.Model)
	assert.Equal(t, 15*time.Second, cfg.Providers.Gemini.Timeout)
	assert.Equal(t, 5, cfg.Archive.MaxSessions)
	assert.Equal(t, "Ada", cfg.Session.UserName)
	assert.InDelta(t, 0.3, float64(cfg.Session.Temperature), 1e-6)
	// Untouched sections keep their defaults.
	assert.Equal(t, 512, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 10, cfg.Session.SandboxTurnCap)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maestro.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	t.Setenv("MAESTRO_LOG_LEVEL", "error")
	t.Setenv("MAESTRO_GEMINI_API_KEY", "key-from-env")
	t.Setenv("MAESTRO_ARCHIVE_MAX_SESSIONS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "key-from-env", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, 7, cfg.Archive.MaxSessions)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))

	cfg = Default()
	cfg.Session.Temperature = 1.5
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Archive.MaxSessions = -1
	require.Error(t, cfg.Validate())
}

func TestBuildLogger(t *testing.T) {
	logger, err := LogConfig{Level: "debug", Development: true}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)

	// Unknown levels fall back to info rather than failing.
	logger, err = LogConfig{Level: "bogus"}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
}
