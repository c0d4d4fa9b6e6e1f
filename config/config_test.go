package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "a")
	t.Setenv("REFRESH_SECRET", "r")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("CASE_TIMEOUT", "3s")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.AccessSecret)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.CaseTimeout)
	assert.Equal(t, "sqlite", cfg.DBDriver)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.ExecutionTimeout)
	assert.Equal(t, 10*time.Minute, cfg.RoadmapCacheTTL)
	assert.Equal(t, 5.0, cfg.PistonRPS)
	assert.False(t, cfg.OtelEnabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "ACCESS_SECRET=file-a\nREFRESH_SECRET=file-r\nGROQ_API_KEY=gsk_test\nPORT=:9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "file-a", cfg.AccessSecret)
	assert.Equal(t, "gsk_test", cfg.GroqAPIKey)
	assert.Equal(t, ":9090", cfg.Port)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "")
	t.Setenv("REFRESH_SECRET", "")

	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
