package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Serve.Port)
	assert.Equal(t, "models/model.json", cfg.Serve.ModelPath)
	assert.False(t, cfg.OTEL.Enabled)
	assert.True(t, strings.HasPrefix(cfg.Tracking.URI, "file:"))
	assert.NotEmpty(t, cfg.Tracking.ArtifactRoot)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POISONBENCH_TRACKING_URI", "libsql://tracking.example.com")
	t.Setenv("POISONBENCH_TRACKING_AUTH_TOKEN", "secret")
	t.Setenv("POISONBENCH_ARTIFACT_ROOT", filepath.Join(dir, "artifacts"))
	t.Setenv("POISONBENCH_LOG_LEVEL", "debug")
	t.Setenv("POISONBENCH_LOG_FORMAT", "json")
	t.Setenv("POISONBENCH_SERVE_PORT", "9090")
	t.Setenv("POISONBENCH_OTEL_ENABLED", "true")
	t.Setenv("POISONBENCH_OTEL_ENDPOINT", "localhost:4317")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "libsql://tracking.example.com", cfg.Tracking.URI)
	assert.Equal(t, "secret", cfg.Tracking.AuthToken)
	assert.Equal(t, filepath.Join(dir, "artifacts"), cfg.Tracking.ArtifactRoot)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Serve.Port)
	assert.True(t, cfg.OTEL.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTEL.Endpoint)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("POISONBENCH_SERVE_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}
