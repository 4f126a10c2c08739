package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	settings := cfg.LearningSettings()
	if settings.MaxFeatures != 1000 || settings.MinTokenLength != 2 || settings.MaxNGram != 2 {
		t.Errorf("unexpected learning settings: %+v", settings)
	}
	if settings.TopIndicators != 5 {
		t.Errorf("expected 5 top indicators, got %d", settings.TopIndicators)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") failed: %v", err)
	}
	if cfg.Learning.Backend != "file" {
		t.Errorf("expected file backend, got %s", cfg.Learning.Backend)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Learning.MaxFeatures = 250
	cfg.Learning.Backend = "redis"
	cfg.Learning.Redis.ModelTTL = "720h"
	cfg.Detection.PhishingThreshold = 0.7

	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Learning.MaxFeatures != 250 {
		t.Errorf("expected max_features 250, got %d", loaded.Learning.MaxFeatures)
	}
	if loaded.Detection.PhishingThreshold != 0.7 {
		t.Errorf("expected threshold 0.7, got %v", loaded.Detection.PhishingThreshold)
	}

	redisCfg, err := loaded.RedisSettings()
	if err != nil {
		t.Fatalf("RedisSettings failed: %v", err)
	}
	if redisCfg.ModelTTL != 720*time.Hour {
		t.Errorf("expected 720h TTL, got %v", redisCfg.ModelTTL)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "learning:\n  max_features: 50\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Learning.MaxFeatures != 50 {
		t.Errorf("expected override to 50, got %d", cfg.Learning.MaxFeatures)
	}
	if cfg.Learning.MaxNGram != 2 {
		t.Errorf("expected default max_ngram 2, got %d", cfg.Learning.MaxNGram)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"threshold zero", func(c *Config) { c.Detection.PhishingThreshold = 0 }, "phishing_threshold"},
		{"threshold one", func(c *Config) { c.Detection.PhishingThreshold = 1 }, "phishing_threshold"},
		{"no indicators", func(c *Config) { c.Detection.TopIndicators = 0 }, "top_indicators"},
		{"no features", func(c *Config) { c.Learning.MaxFeatures = 0 }, "max_features"},
		{"ngram too large", func(c *Config) { c.Learning.MaxNGram = 4 }, "max_ngram"},
		{"split one", func(c *Config) { c.Learning.TestSplit = 1 }, "test_split"},
		{"empty model name", func(c *Config) { c.Learning.ModelName = "" }, "model_name"},
		{"unknown backend", func(c *Config) { c.Learning.Backend = "s3" }, "backend"},
		{"bad ttl", func(c *Config) {
			c.Learning.Backend = "redis"
			c.Learning.Redis.ModelTTL = "forever"
		}, "model_ttl"},
		{"mysql without dsn", func(c *Config) {
			c.Learning.Backend = "mysql"
			c.Learning.SQL.MySQLDSN = ""
		}, "mysql_dsn"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging format"},
		{"milter network", func(c *Config) {
			c.Milter.Enabled = true
			c.Milter.Network = "udp"
		}, "network"},
		{"milter reject threshold", func(c *Config) {
			c.Milter.Enabled = true
			c.Milter.RejectThreshold = 0
		}, "reject_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}
