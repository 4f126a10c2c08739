package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zpam/phish-filter/pkg/learning"
	"gopkg.in/yaml.v3"
)

// Config represents phish-filter configuration
type Config struct {
	// Classification settings
	Detection DetectionConfig `yaml:"detection"`

	// Model training and storage settings
	Learning LearningConfig `yaml:"learning"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`

	// Milter server settings
	Milter MilterConfig `yaml:"milter"`
}

// DetectionConfig contains inference parameters
type DetectionConfig struct {
	// Phishing probability at or above which a message is flagged
	PhishingThreshold float64 `yaml:"phishing_threshold"`

	// Number of indicator terms reported per prediction
	TopIndicators int `yaml:"top_indicators"`

	// Worker count for batch filtering
	MaxConcurrentEmails int `yaml:"max_concurrent_emails"`
}

// LearningConfig contains vectorizer, training and model store settings
type LearningConfig struct {
	// Vectorizer
	MaxFeatures    int `yaml:"max_features"`
	MinTokenLength int `yaml:"min_token_length"`
	MaxNGram       int `yaml:"max_ngram"`

	// Training
	TestSplit float64 `yaml:"test_split"`
	Seed      int64   `yaml:"seed"`

	// Model store: "file", "redis", "sqlite" or "mysql"
	Backend   string `yaml:"backend"`
	ModelName string `yaml:"model_name"`

	File  FileBackendConfig  `yaml:"file"`
	Redis RedisBackendConfig `yaml:"redis"`
	SQL   SQLBackendConfig   `yaml:"sql"`
}

// FileBackendConfig contains file-based model store settings
type FileBackendConfig struct {
	ModelDir string `yaml:"model_dir"`
}

// RedisBackendConfig contains Redis model store settings
type RedisBackendConfig struct {
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`
	ModelTTL    string `yaml:"model_ttl"` // Duration string like "720h", empty = no expiry
}

// SQLBackendConfig contains SQL model store settings. Driver is taken from
// the backend name.
type SQLBackendConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	MySQLDSN   string `yaml:"mysql_dsn"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	File   string `yaml:"file"`   // log file path, empty = stderr
	Format string `yaml:"format"` // json, text
}

// MilterConfig contains milter server settings
type MilterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Network string `yaml:"network"` // tcp or unix
	Address string `yaml:"address"`

	ReadTimeoutMs           int `yaml:"read_timeout_ms"`
	WriteTimeoutMs          int `yaml:"write_timeout_ms"`
	GracefulShutdownTimeout int `yaml:"graceful_shutdown_timeout_ms"`

	// Headers
	AddHeaders   bool   `yaml:"add_headers"`
	HeaderPrefix string `yaml:"header_prefix"`

	// Per-sender phishing history
	SenderWindowMinutes int `yaml:"sender_window_minutes"`
	SenderCacheSize     int `yaml:"sender_cache_size"`

	// Rejection
	RejectEnabled   bool    `yaml:"reject_enabled"`
	RejectThreshold float64 `yaml:"reject_threshold"`
	RejectMessage   string  `yaml:"reject_message"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			PhishingThreshold:   0.5,
			TopIndicators:       5,
			MaxConcurrentEmails: 20,
		},
		Learning: LearningConfig{
			MaxFeatures:    1000,
			MinTokenLength: 2,
			MaxNGram:       2,
			TestSplit:      0.2,
			Seed:           42,
			Backend:        "file",
			ModelName:      "default",
			File: FileBackendConfig{
				ModelDir: "models",
			},
			Redis: RedisBackendConfig{
				RedisURL:    "redis://localhost:6379",
				KeyPrefix:   "zpam:phish",
				DatabaseNum: 0,
			},
			SQL: SQLBackendConfig{
				SQLitePath: "models/models.db",
				MySQLDSN:   "user:password@tcp(localhost:3306)/phish_filter",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "text",
		},
		Milter: MilterConfig{
			Enabled:                 false,
			Network:                 "tcp",
			Address:                 "127.0.0.1:7357",
			ReadTimeoutMs:           10000,
			WriteTimeoutMs:          10000,
			GracefulShutdownTimeout: 30000,
			AddHeaders:              true,
			HeaderPrefix:            "X-Phish-",
			SenderWindowMinutes:     60,
			SenderCacheSize:         10000,
			RejectEnabled:           false,
			RejectThreshold:         0.95,
			RejectMessage:           "",
		},
	}
}

// LoadConfig loads configuration from file. An empty path returns defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates configuration values
func (c *Config) Validate() error {
	if c.Detection.PhishingThreshold <= 0 || c.Detection.PhishingThreshold >= 1 {
		return fmt.Errorf("phishing_threshold must be between 0 and 1 (exclusive)")
	}
	if c.Detection.TopIndicators < 1 {
		return fmt.Errorf("top_indicators must be >= 1")
	}
	if c.Detection.MaxConcurrentEmails < 1 {
		return fmt.Errorf("max_concurrent_emails must be >= 1")
	}

	l := c.Learning
	if l.MaxFeatures < 1 {
		return fmt.Errorf("max_features must be >= 1")
	}
	if l.MinTokenLength < 1 {
		return fmt.Errorf("min_token_length must be >= 1")
	}
	if l.MaxNGram < 1 || l.MaxNGram > 3 {
		return fmt.Errorf("max_ngram must be between 1 and 3")
	}
	if l.TestSplit < 0 || l.TestSplit >= 1 {
		return fmt.Errorf("test_split must be in [0, 1)")
	}
	if l.ModelName == "" {
		return fmt.Errorf("model_name cannot be empty")
	}

	switch l.Backend {
	case "file":
		if l.File.ModelDir == "" {
			return fmt.Errorf("file backend requires model_dir")
		}
	case "redis":
		if l.Redis.RedisURL == "" {
			return fmt.Errorf("redis backend requires redis_url")
		}
		if _, err := l.Redis.TTL(); err != nil {
			return fmt.Errorf("invalid redis model_ttl: %w", err)
		}
	case "sqlite":
		if l.SQL.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires sqlite_path")
		}
	case "mysql":
		if l.SQL.MySQLDSN == "" {
			return fmt.Errorf("mysql backend requires mysql_dsn")
		}
	default:
		return fmt.Errorf("invalid learning backend: %s", l.Backend)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	if c.Milter.Enabled {
		if c.Milter.Network != "tcp" && c.Milter.Network != "unix" {
			return fmt.Errorf("milter network must be 'tcp' or 'unix'")
		}
		if c.Milter.Address == "" {
			return fmt.Errorf("milter address cannot be empty when enabled")
		}
		if c.Milter.ReadTimeoutMs < 1000 {
			return fmt.Errorf("milter read_timeout_ms must be >= 1000")
		}
		if c.Milter.WriteTimeoutMs < 1000 {
			return fmt.Errorf("milter write_timeout_ms must be >= 1000")
		}
		if c.Milter.SenderWindowMinutes < 0 {
			return fmt.Errorf("milter sender_window_minutes must be >= 0")
		}
		if c.Milter.RejectThreshold <= 0 || c.Milter.RejectThreshold > 1 {
			return fmt.Errorf("milter reject_threshold must be in (0, 1]")
		}
	}

	return nil
}

// TTL parses the model TTL; an empty string means no expiry
func (r RedisBackendConfig) TTL() (time.Duration, error) {
	if r.ModelTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(r.ModelTTL)
}

// LearningSettings converts the learning and detection sections into model
// configuration
func (c *Config) LearningSettings() *learning.Config {
	return &learning.Config{
		MaxFeatures:    c.Learning.MaxFeatures,
		MinTokenLength: c.Learning.MinTokenLength,
		MaxNGram:       c.Learning.MaxNGram,
		TopIndicators:  c.Detection.TopIndicators,
	}
}

// RedisSettings converts the redis backend section into store configuration
func (c *Config) RedisSettings() (*learning.RedisConfig, error) {
	ttl, err := c.Learning.Redis.TTL()
	if err != nil {
		return nil, fmt.Errorf("invalid redis model_ttl: %w", err)
	}
	return &learning.RedisConfig{
		RedisURL:    c.Learning.Redis.RedisURL,
		KeyPrefix:   c.Learning.Redis.KeyPrefix,
		DatabaseNum: c.Learning.Redis.DatabaseNum,
		ModelTTL:    ttl,
	}, nil
}
