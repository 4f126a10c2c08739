package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/dataset"
	"github.com/zpam/phish-filter/pkg/learning"
)

var (
	generateCount  int
	generateOutput string
	generateRatio  float64
	generateSeed   int64
	generateFormat string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic labeled email dataset",
	Long: `Generate synthetic phishing and legitimate emails, either as a CSV dataset
(subject, body, label) or as .eml files under phishing/ and legitimate/
subdirectories that 'train --phishing-dir/--legitimate-dir' can read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		generator := dataset.NewGenerator(generateSeed)
		examples, err := generator.Examples(generateCount, generateRatio)
		if err != nil {
			return err
		}

		counts := dataset.Counts(examples)
		fmt.Printf("🧪 Generating emails...\n")
		fmt.Printf("📧 Total emails: %d\n", len(examples))
		fmt.Printf("🚫 Phishing emails: %d (%.1f%%)\n", counts[learning.Phishing], generateRatio*100)
		fmt.Printf("✅ Legitimate emails: %d (%.1f%%)\n", counts[learning.Legitimate], (1-generateRatio)*100)

		start := time.Now()
		switch generateFormat {
		case "csv":
			if err := writeDatasetCSV(generateOutput, examples); err != nil {
				return err
			}
		case "eml":
			if err := writeDatasetEML(generator, generateOutput, examples); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (use csv or eml)", generateFormat)
		}

		fmt.Printf("📂 Output: %s\n", generateOutput)
		fmt.Printf("✅ Generation complete in %v\n", time.Since(start))
		return nil
	},
}

func writeDatasetCSV(path string, examples []learning.Example) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	defer file.Close()

	if err := dataset.WriteCSV(file, examples); err != nil {
		return err
	}
	return file.Close()
}

func writeDatasetEML(g *dataset.Generator, dir string, examples []learning.Example) error {
	index := make(map[learning.Label]int, len(learning.Labels))
	for _, l := range learning.Labels {
		if err := os.MkdirAll(filepath.Join(dir, string(l)), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	for _, ex := range examples {
		index[ex.Label]++
		name := filepath.Join(dir, string(ex.Label), fmt.Sprintf("%s_%04d.eml", ex.Label, index[ex.Label]))
		if err := os.WriteFile(name, []byte(g.EML(ex)), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 100, "Number of emails to generate")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "dataset.csv", "Output CSV file or directory")
	generateCmd.Flags().Float64VarP(&generateRatio, "phishing-ratio", "r", 0.5, "Ratio of phishing emails (0.0-1.0)")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 42, "Random seed")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "csv", "Output format: csv or eml")
}
