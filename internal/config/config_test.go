package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir()) // no config file present
	require.NoError(t, err)

	assert.Equal(t, 8097, cfg.Server.Port)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "deepseek-r1:7b", cfg.Models.Proof)
	assert.Equal(t, "qwen2-math:7b", cfg.Models.Problem)
	assert.Equal(t, "qwen2.5:7b-instruct", cfg.Models.General)
	assert.Equal(t, 200, cfg.Cache.Capacity)
	assert.Equal(t, 5, cfg.Breaker.Threshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Cooldown)
	assert.Equal(t, 100*time.Millisecond, cfg.Backoff.Initial)
	assert.Equal(t, 5*time.Second, cfg.Backoff.Max)
	assert.Equal(t, 2.0, cfg.Backoff.Multiplier)
	assert.Equal(t, 3, cfg.Query.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Query.MaxLatency)
	assert.Equal(t, 40000, cfg.Query.MaxOutputBytes)
	assert.Equal(t, 60*time.Second, cfg.Prefetch.Interval)
	assert.Equal(t, 12, cfg.Prefetch.MinQueue)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
models:
  proof: "deepseek-r1:14b"
cache:
  capacity: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "deepseek-r1:14b", cfg.Models.Proof)
	assert.Equal(t, 50, cfg.Cache.Capacity)
	// Untouched keys keep defaults
	assert.Equal(t, "qwen2-math:7b", cfg.Models.Problem)
}

func TestValidate(t *testing.T) {
	t.Run("rejects non-positive cache capacity", func(t *testing.T) {
		cfg := &Config{
			Cache:  CacheConfig{Capacity: 0},
			Query:  QueryConfig{MaxAttempts: 3},
			Models: ModelRoles{Proof: "a", Problem: "b", General: "c"},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty model role", func(t *testing.T) {
		cfg := &Config{
			Cache:  CacheConfig{Capacity: 10},
			Query:  QueryConfig{MaxAttempts: 3},
			Models: ModelRoles{Proof: "a", Problem: "", General: "c"},
		}
		assert.Error(t, cfg.Validate())
	})
}
