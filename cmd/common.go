package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zpam/phish-filter/pkg/config"
	"github.com/zpam/phish-filter/pkg/learning"
	"github.com/zpam/phish-filter/pkg/logging"
	"go.uber.org/zap"
)

// loadConfig loads the configuration named by --config, or defaults
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger from configuration and --verbose
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.InitLogger(cfg.Logging, verbose)
}

// openStore opens the model store selected by learning.backend
func openStore(ctx context.Context, cfg *config.Config) (learning.ModelStore, error) {
	switch cfg.Learning.Backend {
	case "file":
		return learning.NewFileStore(cfg.Learning.File.ModelDir)
	case "redis":
		redisCfg, err := cfg.RedisSettings()
		if err != nil {
			return nil, err
		}
		return learning.NewRedisStore(ctx, redisCfg)
	case "sqlite":
		if dir := filepath.Dir(cfg.Learning.SQL.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		return learning.NewSQLStore(ctx, "sqlite3", cfg.Learning.SQL.SQLitePath)
	case "mysql":
		return learning.NewSQLStore(ctx, "mysql", cfg.Learning.SQL.MySQLDSN)
	default:
		return nil, fmt.Errorf("unknown learning backend: %s", cfg.Learning.Backend)
	}
}

// loadModel opens the configured store and loads the named model
func loadModel(ctx context.Context, cfg *config.Config, name string, logger *zap.Logger) (*learning.Model, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}
	defer store.Close()

	model, err := store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q (run 'phish-filter train' first): %w", name, err)
	}

	model = model.WithTopIndicators(cfg.Detection.TopIndicators)

	logger.Debug("model loaded",
		zap.String("backend", cfg.Learning.Backend),
		zap.String("name", name),
		zap.String("id", model.ID),
		zap.Int("vocabulary", model.Vectorizer().Vocabulary().Len()),
		zap.Int("top_indicators", model.Config.TopIndicators),
	)
	return model, nil
}

// displayPrediction prints one analysis block
func displayPrediction(subject, body string, result *learning.Result) {
	rule := strings.Repeat("=", 60)

	fmt.Printf("\n%s\n", rule)
	fmt.Printf("EMAIL ANALYSIS\n")
	fmt.Printf("%s\n", rule)
	fmt.Printf("\nSubject: %s\n", subject)
	if r := []rune(body); len(r) > 100 {
		fmt.Printf("Body: %s...\n", string(r[:100]))
	} else {
		fmt.Printf("Body: %s\n", body)
	}
	fmt.Printf("\n%s\n", strings.Repeat("-", 60))

	if result.IsPhishing() {
		fmt.Printf("⚠️  RESULT: PHISHING EMAIL DETECTED\n")
		fmt.Printf("Confidence: %.1f%%\n", result.Confidence*100)
		fmt.Printf("\n🚨 WARNING: This email appears to be a phishing attempt!\n")
	} else {
		fmt.Printf("✓ RESULT: LEGITIMATE EMAIL\n")
		fmt.Printf("Confidence: %.1f%%\n", result.Confidence*100)
		fmt.Printf("\n✅ This email appears to be safe.\n")
	}

	if len(result.Indicators) > 0 {
		fmt.Printf("\nKey indicators:\n")
		for i, ind := range result.Indicators {
			fmt.Printf("  %d. '%s' (weight: %.3f)\n", i+1, ind.Term, ind.Weight)
		}
	}
	fmt.Printf("%s\n", rule)
}
