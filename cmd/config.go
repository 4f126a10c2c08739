package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/config"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate, validate and show phish-filter configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "config.yaml"
		if len(args) > 0 {
			configPath = args[0]
		}

		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
			}
		}

		if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("✅ Configuration file generated: %s\n", configPath)
		fmt.Printf("🚀 Use 'phish-filter train --config %s --dataset dataset.csv' to train\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(args[0])
		if err != nil {
			return fmt.Errorf("❌ Configuration validation failed: %w", err)
		}

		fmt.Printf("✅ Configuration is valid: %s\n", args[0])

		if warnings := validateConfigLogic(cfg); len(warnings) > 0 {
			fmt.Printf("\n⚠️  Warnings:\n")
			for _, warning := range warnings {
				fmt.Printf("  - %s\n", warning)
			}
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long:  `Print the configuration loaded from --config (or the defaults) as YAML`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if configFile != "" {
			fmt.Printf("# Configuration: %s\n", configFile)
		} else {
			fmt.Printf("# Default configuration\n")
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

// validateConfigLogic reports settings that are valid but likely unintended
func validateConfigLogic(cfg *config.Config) []string {
	var warnings []string

	if cfg.Learning.MaxFeatures < 100 {
		warnings = append(warnings, fmt.Sprintf("max_features is %d - small vocabularies generalize poorly", cfg.Learning.MaxFeatures))
	}
	if cfg.Learning.MaxNGram == 1 {
		warnings = append(warnings, "max_ngram is 1 - word pairs such as 'click here' will not be learned")
	}
	if cfg.Learning.TestSplit == 0 {
		warnings = append(warnings, "test_split is 0 - training will not report evaluation metrics")
	}
	if cfg.Milter.RejectEnabled && cfg.Milter.RejectThreshold < cfg.Detection.PhishingThreshold {
		warnings = append(warnings, "milter reject_threshold is below phishing_threshold - messages may be rejected without being flagged")
	}
	if cfg.Learning.Backend == "mysql" && cfg.Learning.SQL.MySQLDSN == config.DefaultConfig().Learning.SQL.MySQLDSN {
		warnings = append(warnings, "mysql_dsn is the placeholder default")
	}

	return warnings
}

func init() {
	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configGenCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
