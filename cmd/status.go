package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/config"
	"github.com/zpam/phish-filter/pkg/learning"
)

var (
	statusJSON      bool
	statusTop       int
	statusModelName string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show model store and trained model status",
	Long: `Display the configured model backend, whether it is reachable, and
statistics of the trained model including its strongest indicators.`,
	RunE: runStatus,
}

// SystemStatus holds all status information
type SystemStatus struct {
	ConfigFile string              `json:"config_file"`
	Backend    BackendStatus       `json:"backend"`
	Model      *learning.ModelInfo `json:"model,omitempty"`
	Health     HealthStatus        `json:"health"`
	Timestamp  time.Time           `json:"timestamp"`
}

// BackendStatus describes the model store
type BackendStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	ModelName string `json:"model_name"`
	Error     string `json:"error,omitempty"`
}

// HealthStatus summarizes problems found
type HealthStatus struct {
	Overall         string   `json:"overall"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if statusModelName != "" {
		cfg.Learning.ModelName = statusModelName
	}

	status, model := collectStatus(context.Background(), cfg)

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	printStatusDashboard(status)
	if model != nil {
		fmt.Printf("\n")
		model.PrintStats(os.Stdout, statusTop)
	}
	return nil
}

func collectStatus(ctx context.Context, cfg *config.Config) (*SystemStatus, *learning.Model) {
	status := &SystemStatus{
		ConfigFile: configFile,
		Backend: BackendStatus{
			Name:      cfg.Learning.Backend,
			ModelName: cfg.Learning.ModelName,
		},
		Timestamp: time.Now(),
	}

	var model *learning.Model
	store, err := openStore(ctx, cfg)
	if err != nil {
		status.Backend.Error = err.Error()
	} else {
		defer store.Close()
		status.Backend.Connected = true
		model, err = store.Load(ctx, cfg.Learning.ModelName)
		if err != nil && !errors.Is(err, learning.ErrModelNotFound) {
			status.Backend.Error = err.Error()
		}
		if model != nil {
			status.Model = model.Info()
		}
	}

	status.Health = assessHealth(status)
	return status, model
}

func assessHealth(status *SystemStatus) HealthStatus {
	health := HealthStatus{Overall: "healthy"}

	if !status.Backend.Connected {
		health.Issues = append(health.Issues, fmt.Sprintf("%s backend not reachable", status.Backend.Name))
		health.Recommendations = append(health.Recommendations, "Check the learning backend settings with 'phish-filter config show'")
	} else if status.Model == nil {
		health.Issues = append(health.Issues, fmt.Sprintf("no model named %q", status.Backend.ModelName))
		health.Recommendations = append(health.Recommendations, "Train a model: phish-filter train --dataset dataset.csv")
	} else {
		if status.Model.PhishingExamples == 0 || status.Model.LegitExamples == 0 {
			health.Issues = append(health.Issues, "model was trained on a single class")
			health.Recommendations = append(health.Recommendations, "Retrain with both phishing and legitimate examples")
		}
		if status.Model.VocabularySize < 50 {
			health.Recommendations = append(health.Recommendations, "Vocabulary is small; add more training examples")
		}
	}

	switch {
	case !status.Backend.Connected || status.Model == nil:
		health.Overall = "critical"
	case len(health.Issues) > 0:
		health.Overall = "warning"
	}
	return health
}

func printStatusDashboard(status *SystemStatus) {
	icon := map[string]string{"healthy": "✅", "warning": "⚠️ ", "critical": "❌"}[status.Health.Overall]

	fmt.Printf("📊 phish-filter Status\n")
	fmt.Printf("═══════════════════════════════════════\n")
	fmt.Printf("Overall: %s %s\n", icon, status.Health.Overall)
	if status.ConfigFile != "" {
		fmt.Printf("Config: %s\n", status.ConfigFile)
	}

	fmt.Printf("\n💾 Model Store:\n")
	fmt.Printf("  Backend: %s\n", status.Backend.Name)
	fmt.Printf("  Connected: %v\n", status.Backend.Connected)
	fmt.Printf("  Model name: %s\n", status.Backend.ModelName)
	if status.Backend.Error != "" {
		fmt.Printf("  Error: %s\n", status.Backend.Error)
	}

	if len(status.Health.Issues) > 0 {
		fmt.Printf("\n🚨 Issues:\n")
		for _, issue := range status.Health.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}
	if len(status.Health.Recommendations) > 0 {
		fmt.Printf("\n💡 Recommendations:\n")
		for _, rec := range status.Health.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
	statusCmd.Flags().IntVarP(&statusTop, "top", "n", 10, "Number of indicators to show per class")
	statusCmd.Flags().StringVarP(&statusModelName, "model-name", "m", "", "Model to inspect (overrides config)")
}
