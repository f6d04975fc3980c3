package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadTestConfig(t *testing.T) {
	assert := require.New(t)
	t.Setenv("ENV", "test")

	cfg, err := Load()
	assert.NoError(err)

	assert.Equal("127.0.0.1", cfg.GetHost())
	assert.Equal("8001", cfg.GetPort())
	assert.Equal("127.0.0.1:8001", cfg.GetAddress())
	assert.Equal(int64(1048576), cfg.GetMaxUploadBytes())
	assert.Equal(2, cfg.GetChunkSentences())
	assert.Equal(0, cfg.GetChunkOverlap())
	assert.Equal(3, cfg.GetTopK())
	assert.Equal("extractive", cfg.GetLLMProvider())
	assert.Equal(5*time.Second, cfg.GetLLMTimeout())
	assert.True(cfg.GetGraphQLEnabled())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	assert := require.New(t)
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GRAPHQL_ENABLED", "false")

	cfg, err := Load()
	assert.NoError(err)

	assert.Equal("9999", cfg.GetPort())
	assert.Equal("sk-test", cfg.GetLLMAPIKey())
	assert.False(cfg.GetGraphQLEnabled())
}

func TestDefaultsWithoutConfigFile(t *testing.T) {
	assert := require.New(t)
	t.Setenv("ENV", "does-not-exist")

	cfg, err := Load()
	assert.NoError(err)

	assert.Equal("8000", cfg.GetPort())
	assert.Equal("data", cfg.GetDataDir())
	assert.Equal(5, cfg.GetChunkSentences())
	assert.Equal(1, cfg.GetChunkOverlap())
	assert.Equal(4, cfg.GetTopK())
	assert.Equal("gpt-4o-mini", cfg.GetLLMModel())
	assert.Equal(int64(32<<20), cfg.GetMaxUploadBytes())
}

func TestSetOverridesEverything(t *testing.T) {
	assert := require.New(t)
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "9999")

	cfg, err := Load()
	assert.NoError(err)

	cfg.Set(KeyServerPort, "7000")
	cfg.Set(KeyDataDir, "/tmp/docs")

	assert.Equal("7000", cfg.GetPort())
	assert.Equal("/tmp/docs", cfg.GetDataDir())
}

func TestLoadLocalConfigByDefault(t *testing.T) {
	assert := require.New(t)
	t.Setenv("ENV", "")

	cfg, err := Load()
	assert.NoError(err)

	assert.Contains(cfg.FileUsed(), "config.local.yaml")
	// A fresh process starts without an index until something is uploaded.
	assert.False(cfg.GetRebuildOnStart())
	assert.Equal("8000", cfg.GetPort())
}

func TestMaxReadBytesCoversUploads(t *testing.T) {
	assert := require.New(t)
	t.Setenv("ENV", "test")

	cfg, err := Load()
	assert.NoError(err)
	assert.Equal(int64(64<<20), cfg.GetMaxReadBytes())

	cfg.Set(KeyMaxReadBytes, 1024)
	assert.Equal(cfg.GetMaxUploadBytes(), cfg.GetMaxReadBytes())

	cfg.Set(KeyServerMaxUploadBytes, 10)
	assert.Equal(int64(1024), cfg.GetMaxReadBytes())
}
