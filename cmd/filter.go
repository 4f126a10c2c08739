package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/filter"
)

var (
	filterInput      string
	filterClean      string
	filterPhishing   string
	filterThreshold  float64
	filterConcurrent int
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Sort a directory of emails into clean and phishing folders",
	Long: `Classify every email file under --input with the trained model and move
messages whose phishing probability reaches the threshold to --phishing, and
the rest to --clean. Without destinations, files are only classified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("threshold") {
			cfg.Detection.PhishingThreshold = filterThreshold
		}
		if cmd.Flags().Changed("concurrent") {
			cfg.Detection.MaxConcurrentEmails = filterConcurrent
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		model, err := loadModel(ctx, cfg, cfg.Learning.ModelName, logger)
		if err != nil {
			return err
		}

		pf := filter.NewPhishFilter(cfg, model, logger)
		results, err := pf.ProcessEmails(ctx, filterInput, filterClean, filterPhishing)
		if err != nil {
			return fmt.Errorf("failed to process emails: %w", err)
		}

		fmt.Printf("🎣 Filtering Complete!\n")
		fmt.Printf("Emails processed: %d\n", results.Total)
		fmt.Printf("Phishing detected: %d\n", results.Phishing)
		fmt.Printf("Legitimate: %d\n", results.Legitimate)
		if results.Errors > 0 {
			fmt.Printf("Errors: %d\n", results.Errors)
		}
		fmt.Printf("Files moved: %d\n", results.Moved)
		if results.Total > 0 {
			fmt.Printf("Average processing time: %.2fms per email\n",
				float64(results.Duration.Nanoseconds())/float64(results.Total)/1e6)
		}
		fmt.Printf("Total time: %v\n", results.Duration)
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVarP(&filterInput, "input", "i", "", "Input directory")
	filterCmd.Flags().StringVarP(&filterClean, "clean", "o", "", "Destination for legitimate emails")
	filterCmd.Flags().StringVarP(&filterPhishing, "phishing", "p", "", "Destination for phishing emails")
	filterCmd.Flags().Float64VarP(&filterThreshold, "threshold", "t", 0.5, "Phishing probability threshold (overrides config)")
	filterCmd.Flags().IntVarP(&filterConcurrent, "concurrent", "j", 20, "Number of concurrent workers (overrides config)")

	filterCmd.MarkFlagRequired("input")
}
