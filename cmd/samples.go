package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/learning"
)

// sampleEmail is a built-in demo message
type sampleEmail struct {
	Subject string
	Body    string
}

var sampleEmails = []sampleEmail{
	{
		Subject: "URGENT: Verify Your Account Now",
		Body:    "Your account will be suspended in 24 hours. Click here immediately to verify your identity.",
	},
	{
		Subject: "Your Monthly Statement is Ready",
		Body:    "Your account statement for this month is now available. Log into your account to view transactions.",
	},
	{
		Subject: "Congratulations! You've Won $10,000",
		Body:    "You've been selected as our prize winner! Click here and provide your bank details to claim your prize.",
	},
	{
		Subject: "Team Meeting Tomorrow",
		Body:    "Reminder: Our weekly team meeting is scheduled for tomorrow at 10 AM. Please review the agenda.",
	},
	{
		Subject: "Password Expiration Warning",
		Body:    "Your password will expire in 2 hours. Reset it now or lose access to your account permanently.",
	},
}

var samplesIndex int

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Classify the built-in sample emails",
	Long:  `List the built-in sample emails and classify all of them, or one selected with --index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if samplesIndex < 0 || samplesIndex > len(sampleEmails) {
			return fmt.Errorf("index must be between 1 and %d", len(sampleEmails))
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

		model, err := loadModel(context.Background(), cfg, cfg.Learning.ModelName, logger)
		if err != nil {
			return err
		}

		fmt.Printf("\nSample Emails:\n")
		for i, s := range sampleEmails {
			fmt.Printf("  %d. %s...\n", i+1, truncateSubject(s.Subject, 50))
		}

		selected := sampleEmails
		if samplesIndex > 0 {
			selected = sampleEmails[samplesIndex-1 : samplesIndex]
		}

		var phishing int
		for _, s := range selected {
			result, err := model.Predict(s.Subject, s.Body)
			if err != nil {
				return fmt.Errorf("failed to classify sample: %w", err)
			}
			if result.Label == learning.Phishing {
				phishing++
			}
			displayPrediction(s.Subject, s.Body, result)
		}

		fmt.Printf("\n%d of %d samples flagged as phishing\n", phishing, len(selected))
		return nil
	},
}

func truncateSubject(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return strings.TrimSpace(string(r[:n]))
	}
	return s
}

func init() {
	samplesCmd.Flags().IntVarP(&samplesIndex, "index", "i", 0, "Classify only sample N (1-based)")
}
