package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{"flag takes precedence", "/path/from/flag", "/path/from/env", "/path/from/flag"},
		{"env when no flag", "", "/path/from/env", "/path/from/env"},
		{"empty when neither", "", "", ""},
		{"whitespace flag", "  ", "/path/from/env", "/path/from/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REDNET_CONFIG", tt.envValue)
			got := ResolveConfigPath(tt.flag)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.DNS.CacheTimeoutSeconds)
	assert.Equal(t, 1000, cfg.DNS.MaxCacheEntries)
	assert.Equal(t, 32, cfg.DNS.MaxDomainLength)
	assert.Equal(t, 3, cfg.Resolver.MinVoters)
	assert.InDelta(t, 0.66, cfg.Resolver.MajorityThreshold, 0.0001)
	assert.Equal(t, 3, cfg.Loader.MaxConcurrent)
	assert.Equal(t, 10, cfg.Loader.LoadTimeoutSeconds)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	content := `
node:
  id: 7
  name: "west-node"

dns:
  max_domain_length: 40
  max_retries: 5

resolver:
  min_voters: 5
  majority_threshold: 0.75

loader:
  max_concurrent: 6

logging:
  level: "DEBUG"
  structured: true
  structured_format: "keyvalue"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Node.ID)
	assert.Equal(t, "west-node", cfg.Node.Name)
	assert.Equal(t, 40, cfg.DNS.MaxDomainLength)
	assert.Equal(t, 5, cfg.DNS.MaxRetries)
	assert.Equal(t, 5, cfg.Resolver.MinVoters)
	assert.InDelta(t, 0.75, cfg.Resolver.MajorityThreshold, 0.0001)
	assert.Equal(t, 6, cfg.Loader.MaxConcurrent)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Structured)
	assert.Equal(t, "keyvalue", cfg.Logging.StructuredFormat)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dns:\n  max_retries: [invalid"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeRejectsInvalidMajorityThreshold(t *testing.T) {
	content := `
resolver:
  majority_threshold: 1.5
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeRejectsOutOfRangeLoaderConcurrency(t *testing.T) {
	content := `
loader:
  max_concurrent: 20
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeRejectsInvalidAPIPortWhenEnabled(t *testing.T) {
	content := `
api:
  enabled: true
  port: 0
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDNET_NODE_NAME", "env-node")
	t.Setenv("REDNET_DNS_MAX_RETRIES", "9")
	t.Setenv("REDNET_LOADER_MAX_CONCURRENT", "5")
	t.Setenv("REDNET_LOGGING_LEVEL", "debug")
	t.Setenv("REDNET_API_ENABLED", "true")
	t.Setenv("REDNET_API_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-node", cfg.Node.Name)
	assert.Equal(t, 9, cfg.DNS.MaxRetries)
	assert.Equal(t, 5, cfg.Loader.MaxConcurrent)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, 9090, cfg.API.Port)
}
