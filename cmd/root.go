package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "phish-filter",
	Short: "Phishing email detector (TF-IDF + Naive Bayes)",
	Long: `phish-filter classifies emails as phishing or legitimate.

It learns a TF-IDF vocabulary of words and word pairs from labeled emails,
fits a multinomial Naive Bayes model over it, and explains each prediction
with the terms that weighed most in the message.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("phish-filter - Phishing Email Detector")
		fmt.Println("Use 'phish-filter --help' for usage information")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(milterCmd)
}
