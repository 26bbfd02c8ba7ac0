package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Empty values fall through to defaults.
	for _, key := range []string{"SERVER_HOST", "SERVER_PORT", "REDIS_ADDR", "PIPELINE_DEFAULT_MODEL",
		"PIPELINE_MAX_TOKENS", "BATCH_COMPLETION_WINDOW", "BATCH_POLL_INTERVAL", "BATCH_POLL_DEADLINE",
		"SPLIT_TRAIN_RATIO", "EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, float64(100), cfg.Server.RateLimitRPS)
	assert.Equal(t, 200, cfg.Server.RateLimitBurst)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "gpt-4o-mini", cfg.Pipeline.DefaultModel)
	assert.Equal(t, 2000, cfg.Pipeline.MaxTokens)
	assert.Equal(t, "24h", cfg.Pipeline.CompletionWindow)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.Pipeline.PollDeadline)
	assert.Equal(t, 0.8, cfg.Pipeline.TrainRatio)
	assert.Equal(t, "text-embedding-3-small", cfg.Pipeline.EmbeddingModel)
	assert.Equal(t, 1024, cfg.Pipeline.EmbeddingDims)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PIPELINE_DEFAULT_MODEL", "gpt-4o")
	t.Setenv("BATCH_POLL_INTERVAL", "5s")
	t.Setenv("BATCH_POLL_DEADLINE", "0")
	t.Setenv("SPLIT_TRAIN_RATIO", "0.9")
	t.Setenv("SPLIT_SEED", "42")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_BURST", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.Pipeline.DefaultModel)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.Pipeline.PollDeadline)
	assert.Equal(t, 0.9, cfg.Pipeline.TrainRatio)
	assert.Equal(t, int64(42), cfg.Pipeline.SplitSeed)
	assert.Equal(t, float64(5), cfg.Server.RateLimitRPS)
	assert.Equal(t, 10, cfg.Server.RateLimitBurst)
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestAddr(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())
}
