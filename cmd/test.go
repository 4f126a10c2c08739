package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/email"
)

var (
	testSubject   string
	testBody      string
	testModelName string
	testJSON      bool
)

var testCmd = &cobra.Command{
	Use:   "test [email-file]",
	Short: "Classify a single email",
	Long: `Classify an email file, or a subject and body given as flags, and show the
prediction, its confidence and the terms that weighed most.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, body := testSubject, testBody
		source := "flags"

		if len(args) == 1 {
			parsed, err := email.NewParser().ParseFromFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse email: %w", err)
			}
			subject, body = parsed.Subject, parsed.Body
			source = args[0]
		} else if subject == "" || body == "" {
			return fmt.Errorf("provide an email file or both --subject and --body")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		name := cfg.Learning.ModelName
		if testModelName != "" {
			name = testModelName
		}
		model, err := loadModel(context.Background(), cfg, name, logger)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := model.Predict(subject, body)
		if err != nil {
			return fmt.Errorf("failed to classify email: %w", err)
		}
		duration := time.Since(start)

		if testJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		displayPrediction(subject, body, result)
		fmt.Printf("Source: %s\n", source)
		fmt.Printf("Processing time: %.2fms\n", float64(duration.Nanoseconds())/1e6)
		return nil
	},
}

func init() {
	testCmd.Flags().StringVarP(&testSubject, "subject", "s", "", "Email subject")
	testCmd.Flags().StringVarP(&testBody, "body", "b", "", "Email body")
	testCmd.Flags().StringVarP(&testModelName, "model-name", "m", "", "Model to load (overrides config)")
	testCmd.Flags().BoolVar(&testJSON, "json", false, "Print the result as JSON")
}
