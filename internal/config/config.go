// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://api.openai.com/v1)
// - LLM_MODEL: Chat model name (default: gpt-4o-mini)
// - LLM_EMBEDDING_MODEL: Embedding model name (default: text-embedding-3-small)
// - LLM_IMAGE_MODEL: Image model name (default: gpt-image-1)
// - LLM_MAX_TOKENS: Default maximum tokens for responses (default: 6000)
// - LLM_TEMPERATURE: Default temperature for responses (default: 0.5)
// - LLM_TIMEOUT: Request timeout in seconds (default: 120)
// - LLM_SITE_URL: Site URL for HTTP referer header (optional)
// - LLM_APP_NAME: Application name for X-Title header (optional)
//
// Storage Configuration:
// - DB_PATH: SQLite database path (default: data/scriptura.db)
// - BLOB_BUCKET_URL: gocloud bucket URL for chapter images
//   (default: file://./data/images)
// - BLOB_PUBLIC_URL: public base URL blob keys are served under
//   (default: http://localhost:8080/images)
//
// Server Configuration:
// - HTTP_ADDR: listen address (default: :8080)
//
// Scraper Configuration:
// - SCRAPER_STATE_DIR: ledger state directory (default: data/scraper)
// - SCRAPER_SOURCE_REPO: GitHub repo with KJV book JSON (default: aruljohn/Bible-kjv)
// - SCRAPER_BATCH_SIZE: embedding batch size (default: 100)
// - SCRAPER_CRON_EXPR: schedule for the cron daemon (default: 0 3 * * *)

type Config struct {
	LLM     LLMConfig     `json:"llm"`
	Storage StorageConfig `json:"storage"`
	Server  ServerConfig  `json:"server"`
	Scraper ScraperConfig `json:"scraper"`
}

// LLMConfig holds the configuration for the generation API client.
// Supports any OpenAI-compatible provider.
type LLMConfig struct {
	APIKey         string  `json:"api_key"`
	APIURL         string  `json:"api_url"`
	Model          string  `json:"model"`
	EmbeddingModel string  `json:"embedding_model"`
	ImageModel     string  `json:"image_model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	Timeout        int     `json:"timeout"`
	SiteURL        string  `json:"site_url"`
	AppName        string  `json:"app_name"`
}

// StorageConfig holds the verse database and image blob settings.
type StorageConfig struct {
	DBPath        string `json:"db_path"`
	BlobBucketURL string `json:"blob_bucket_url"`
	BlobPublicURL string `json:"blob_public_url"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// ScraperConfig holds the offline scraper settings.
type ScraperConfig struct {
	StateDir   string `json:"state_dir"`
	SourceRepo string `json:"source_repo"`
	BatchSize  int    `json:"batch_size"`
	CronExpr   string `json:"cron_expr"`
}

// Option is a function type for configuring Config.
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:         getEnvString("LLM_API_KEY", ""),
			APIURL:         getEnvString("LLM_API_URL", "https://api.openai.com/v1"),
			Model:          getEnvString("LLM_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnvString("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
			ImageModel:     getEnvString("LLM_IMAGE_MODEL", "gpt-image-1"),
			MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 6000),
			Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.5),
			Timeout:        getEnvInt("LLM_TIMEOUT", 120),
			SiteURL:        getEnvString("LLM_SITE_URL", ""),
			AppName:        getEnvString("LLM_APP_NAME", ""),
		},
		Storage: StorageConfig{
			DBPath:        getEnvString("DB_PATH", "data/scriptura.db"),
			BlobBucketURL: getEnvString("BLOB_BUCKET_URL", "file://./data/images"),
			BlobPublicURL: getEnvString("BLOB_PUBLIC_URL", "http://localhost:8080/images"),
		},
		Server: ServerConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
		Scraper: ScraperConfig{
			StateDir:   getEnvString("SCRAPER_STATE_DIR", "data/scraper"),
			SourceRepo: getEnvString("SCRAPER_SOURCE_REPO", "aruljohn/Bible-kjv"),
			BatchSize:  getEnvInt("SCRAPER_BATCH_SIZE", 100),
			CronExpr:   getEnvString("SCRAPER_CRON_EXPR", "0 3 * * *"),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Scraper.BatchSize < 1 {
		return fmt.Errorf("SCRAPER_BATCH_SIZE must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
