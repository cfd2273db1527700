package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 8060\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8060, cfg.API.Port)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "copenhagen", cfg.City.Default)
	assert.Equal(t, 20*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Cache.FreshTTL)
	assert.Equal(t, 12*time.Hour, cfg.Cache.StaleTTL)
	assert.Equal(t, 30, cfg.Engine.MinDurationMinutes)
	assert.Equal(t, 20, cfg.Engine.MaxRecommendations)
	assert.Equal(t, 5, cfg.Engine.OutlookDays)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
api:
  port: 9000
city:
  default: copenhagen
providers:
  primary_base_url: http://primary.internal
  timeout: 5s
cache:
  fresh_ttl: 1h
engine:
  outlook_days: 3
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, "http://primary.internal", cfg.Providers.PrimaryBaseURL)
	assert.Equal(t, 5*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, time.Hour, cfg.Cache.FreshTTL)
	assert.Equal(t, 3, cfg.Engine.OutlookDays)
}
