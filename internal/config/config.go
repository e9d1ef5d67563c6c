// Package config loads VexDB configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete VexDB configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `yaml:"addr" json:"addr"`
	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// StorageConfig configures snapshot persistence.
type StorageConfig struct {
	// DataDir is the snapshot directory (default "./data").
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// SeedFile is an extra snapshot file loaded at startup, if set.
	SeedFile string `yaml:"seed_file" json:"seed_file"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// APIKey is the Cohere API key. When empty, the deterministic static
	// embedder is used instead of the remote provider.
	APIKey string `yaml:"api_key" json:"-"`
	// URL is the Cohere embed endpoint.
	URL string `yaml:"url" json:"url"`
	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`
	// BatchSize is the maximum number of texts per provider request.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// Timeout bounds a single provider request (default 60s).
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MaxRetries is the number of attempts per batch (default 3).
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// CacheSize is the LRU embedding cache capacity (default 1000).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// FilePath is the log file path. Empty disables file logging.
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Embedding: EmbeddingConfig{
			URL:        "https://api.cohere.ai/v1/embed",
			Model:      "embed-english-v3.0",
			BatchSize:  96,
			Timeout:    60 * time.Second,
			MaxRetries: 3,
			CacheSize:  1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given YAML file (optional) and applies
// environment variable overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides.
// Precedence: defaults < file < environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("TESTING_DATA"); v != "" {
		c.Storage.SeedFile = v
	}
	if v := os.Getenv("TESTING_DATA_FILE"); v != "" {
		c.Storage.SeedFile = v
	}
	if v := os.Getenv("COHERE_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("COHERE_EMBED_URL"); v != "" {
		c.Embedding.URL = v
	}
	if v := os.Getenv("COHERE_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("VEXDB_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VEXDB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VEXDB_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

// Validate checks the configuration and fills in zero values with defaults.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	if c.Embedding.URL == "" {
		return fmt.Errorf("embedding.url must not be empty")
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 96
	}
	if c.Embedding.Timeout <= 0 {
		c.Embedding.Timeout = 60 * time.Second
	}
	if c.Embedding.MaxRetries <= 0 {
		c.Embedding.MaxRetries = 3
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 1000
	}
	return nil
}
