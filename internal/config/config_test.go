package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.APIURL)
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/scriptura.db", cfg.Storage.DBPath)
	assert.Equal(t, "aruljohn/Bible-kjv", cfg.Scraper.SourceRepo)
	assert.Equal(t, 100, cfg.Scraper.BatchSize)
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("SCRAPER_BATCH_SIZE", "25")
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 25, cfg.Scraper.BatchSize)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestNewFromEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnv_RejectsBadBatchSize(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("SCRAPER_BATCH_SIZE", "-5")
	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnv_Options(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	cfg, err := NewFromEnv(func(c *Config) { c.Server.Addr = ":0" })
	require.NoError(t, err)
	assert.Equal(t, ":0", cfg.Server.Addr)
}
