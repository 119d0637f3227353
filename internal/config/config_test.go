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
	t.Setenv(configPathEnv, "")
	t.Setenv(geminiAPIKeyEnv, "")
	t.Setenv(openAIAPIKeyEnv, "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "gemini", cfg.Providers.Primary.Kind)
	assert.Equal(t, "openai", cfg.Providers.Secondary.Kind)
	assert.Equal(t, defaultTierTimeout, cfg.Providers.Primary.Timeout)
	assert.Equal(t, defaultLogCapacity, cfg.Pipeline.LogCapacity)
	assert.False(t, cfg.Pipeline.DisableGrounding)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.yaml")
	raw := []byte(`
logging:
  level: debug
database:
  driver: postgres
  dsn: postgres://genesis@localhost/genesis
providers:
  primary:
    model: gemini-2.5-pro
    timeout: 10s
  secondary:
    kind: inference
    endpoint: http://localhost:9000
pipeline:
  logCapacity: 20
  disableGrounding: true
scheduler:
  enabled: true
  interval: 30m
  timezone: Europe/Berlin
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(geminiAPIKeyEnv, "g-key")
	t.Setenv(inferenceAPIKeyEnv, "i-key")
	t.Setenv(httpAddrEnv, "127.0.0.1:9999")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "gemini-2.5-pro", cfg.Providers.Primary.Model)
	assert.Equal(t, 10*time.Second, cfg.Providers.Primary.Timeout)
	assert.Equal(t, "g-key", cfg.Providers.Primary.APIKey)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Providers.Primary.Endpoint)

	assert.Equal(t, "inference", cfg.Providers.Secondary.Kind)
	assert.Equal(t, "http://localhost:9000", cfg.Providers.Secondary.Endpoint)
	assert.Empty(t, cfg.Providers.Secondary.Model)
	assert.Equal(t, "i-key", cfg.Providers.Secondary.APIKey)
	assert.Equal(t, defaultTierTimeout, cfg.Providers.Secondary.Timeout)

	assert.Equal(t, 20, cfg.Pipeline.LogCapacity)
	assert.True(t, cfg.Pipeline.DisableGrounding)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()

	assert.Equal(t, "genesis.db", cfg.Database.DSN)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("providers: [unterminated"))
	require.Error(t, err)
}
