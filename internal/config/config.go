// Package config loads this service's configuration from environment
// variables.
package config

import (
	"fmt"

	"github.com/novuscrm/syncwork/internal/env"
)

// Config holds the application configuration.
type Config struct {
	// Server configuration
	HTTPPort      string `env:"SYNCWORK_HTTP_PORT"`
	Env           string `env:"SYNCWORK_ENV"` // dev, prod
	CronAuthToken string `env:"SYNCWORK_CRON_TOKEN"`

	// Database configuration
	DatabaseURL string `env:"SYNCWORK_DATABASE_URL"`

	// Storage configuration
	StorageType string `env:"SYNCWORK_STORAGE_TYPE"` // fs, gcs
	GCSBucket   string `env:"SYNCWORK_GCS_BUCKET"`
	FSDir       string `env:"SYNCWORK_FS_DIR"`

	// External board configuration
	BoardAPIURL   string `env:"SYNCWORK_BOARD_API_URL"`
	BoardAPIToken string `env:"SYNCWORK_BOARD_API_TOKEN"`
	WebhookSecret string `env:"SYNCWORK_WEBHOOK_SECRET"`

	// Embedding model configuration
	EmbeddingModelURL string `env:"SYNCWORK_EMBEDDING_MODEL_URL"`
	EmbeddingBatch    int    `env:"SYNCWORK_EMBEDDING_BATCH_SIZE"`

	// Jira configuration
	JiraAPIURL            string `env:"SYNCWORK_JIRA_API_URL"`
	JiraAPIToken          string `env:"SYNCWORK_JIRA_API_TOKEN"`
	JiraRefreshTTLSeconds int    `env:"SYNCWORK_JIRA_REFRESH_TTL_SECONDS"`

	// Directory service configuration
	DirectoryAPIURL   string `env:"SYNCWORK_DIRECTORY_API_URL"`
	DirectoryAPIToken string `env:"SYNCWORK_DIRECTORY_API_TOKEN"`

	// Observability configuration
	OTelEnabled     bool   `env:"SYNCWORK_OTEL_ENABLED"`
	OTelServiceName string `env:"SYNCWORK_OTEL_SERVICE_NAME"`
}

const (
	defaultHTTPPort        = "8081"
	defaultEnv             = "dev"
	defaultStorageType     = "fs"
	defaultFSDir           = "./syncwork-data"
	defaultEmbeddingBatch  = 50
	defaultJiraRefreshTTL  = 3600
	defaultOTelServiceName = "syncwork"
)

// Load parses environment variables into a Config, applies defaults for
// unset fields, and validates cross-field dependencies.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTPPort == "" {
		c.HTTPPort = defaultHTTPPort
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.StorageType == "" {
		c.StorageType = defaultStorageType
	}
	if c.FSDir == "" {
		c.FSDir = defaultFSDir
	}
	if c.EmbeddingBatch <= 0 {
		c.EmbeddingBatch = defaultEmbeddingBatch
	}
	if c.JiraRefreshTTLSeconds <= 0 {
		c.JiraRefreshTTLSeconds = defaultJiraRefreshTTL
	}
	if c.OTelServiceName == "" {
		c.OTelServiceName = defaultOTelServiceName
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("SYNCWORK_DATABASE_URL is required")
	}
	if c.CronAuthToken == "" {
		return fmt.Errorf("SYNCWORK_CRON_TOKEN is required")
	}

	switch c.StorageType {
	case "fs":
		if c.FSDir == "" {
			return fmt.Errorf("SYNCWORK_FS_DIR is required when SYNCWORK_STORAGE_TYPE is 'fs'")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("SYNCWORK_GCS_BUCKET is required when SYNCWORK_STORAGE_TYPE is 'gcs'")
		}
	default:
		return fmt.Errorf("unknown SYNCWORK_STORAGE_TYPE: %s", c.StorageType)
	}
	return nil
}
