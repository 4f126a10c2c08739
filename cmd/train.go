package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/dataset"
	"github.com/zpam/phish-filter/pkg/evaluation"
	"github.com/zpam/phish-filter/pkg/learning"
	"github.com/zpam/phish-filter/pkg/profiler"
	"go.uber.org/zap"
)

var (
	trainDataset       string
	trainPhishingDir   string
	trainLegitimateDir string
	trainTestSplit     float64
	trainSeed          int64
	trainModelName     string
	trainNoEval        bool
	trainTopTerms      int
	trainProfile       bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the phishing detection model",
	Long: `Train the TF-IDF + Naive Bayes model on labeled emails.

Examples are read from a CSV file with subject, body and label columns, and/or
from directories of .eml files. A stratified share of the examples is held
out to report accuracy, precision, recall and F1 before the model is saved to
the configured store.`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	if trainDataset == "" && trainPhishingDir == "" && trainLegitimateDir == "" {
		return fmt.Errorf("one of --dataset, --phishing-dir or --legitimate-dir must be specified")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("test-split") {
		cfg.Learning.TestSplit = trainTestSplit
	}
	if cmd.Flags().Changed("seed") {
		cfg.Learning.Seed = trainSeed
	}
	if trainModelName != "" {
		cfg.Learning.ModelName = trainModelName
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	prof := profiler.NewProfiler()
	ctx := context.Background()

	fmt.Printf("🧠 Phishing Model Training\n")
	fmt.Printf("═══════════════════════════════════════\n")

	var examples []learning.Example
	err = prof.Measure(profiler.StageLoad, func() error {
		examples, err = loadTrainingExamples(logger)
		return err
	})
	if err != nil {
		return err
	}

	counts := dataset.Counts(examples)
	fmt.Printf("📧 Examples loaded: %d\n", len(examples))
	fmt.Printf("  Phishing emails: %d\n", counts[learning.Phishing])
	fmt.Printf("  Legitimate emails: %d\n", counts[learning.Legitimate])

	trainSet, testSet := examples, []learning.Example(nil)
	if !trainNoEval && cfg.Learning.TestSplit > 0 {
		err = prof.Measure(profiler.StageSplit, func() error {
			trainSet, testSet, err = dataset.StratifiedSplit(examples, cfg.Learning.TestSplit, cfg.Learning.Seed)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to split dataset: %w", err)
		}
		fmt.Printf("✂️  Split: %d training / %d test (seed %d)\n", len(trainSet), len(testSet), cfg.Learning.Seed)
	}

	fmt.Printf("\nTraining model...\n")
	start := time.Now()
	var model *learning.Model
	err = prof.Measure(profiler.StageFit, func() error {
		model, err = learning.Train(cfg.LearningSettings(), trainSet)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}
	logger.Info("model trained",
		zap.String("id", model.ID),
		zap.Int("examples", len(trainSet)),
		zap.Int("vocabulary", model.Vectorizer().Vocabulary().Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Printf("✓ Model trained in %v\n", time.Since(start))

	if len(testSet) > 0 {
		var report *evaluation.Report
		err = prof.Measure(profiler.StageEvaluate, func() error {
			report, err = evaluation.Evaluate(model, testSet)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to evaluate model: %w", err)
		}
		report.Print(os.Stdout)
	}

	if terms, err := model.TopTerms(learning.Phishing, trainTopTerms); err == nil {
		fmt.Printf("\nTop %d Phishing Indicators:\n", len(terms))
		for i, term := range terms {
			fmt.Printf("  %2d. %s\n", i+1, term)
		}
	}

	err = prof.Measure(profiler.StageSave, func() error {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open model store: %w", err)
		}
		defer store.Close()
		return store.Save(ctx, cfg.Learning.ModelName, model)
	})
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	fmt.Printf("\n💾 Model %q saved to %s backend (id %s)\n", cfg.Learning.ModelName, cfg.Learning.Backend, model.ID)

	if trainProfile {
		fmt.Printf("\n")
		prof.PrintReport(os.Stdout)
	}
	return nil
}

// loadTrainingExamples gathers examples from the CSV dataset and the
// labeled directories
func loadTrainingExamples(logger *zap.Logger) ([]learning.Example, error) {
	var examples []learning.Example

	if trainDataset != "" {
		fmt.Printf("📁 Dataset: %s\n", trainDataset)
		loaded, err := dataset.LoadCSV(trainDataset)
		if err != nil {
			return nil, err
		}
		examples = append(examples, loaded...)
	}

	skipped := func(path string, err error) {
		logger.Warn("skipping unparseable email", zap.String("path", path), zap.Error(err))
	}

	for _, src := range []struct {
		dir   string
		label learning.Label
	}{
		{trainPhishingDir, learning.Phishing},
		{trainLegitimateDir, learning.Legitimate},
	} {
		if src.dir == "" {
			continue
		}
		fmt.Printf("📁 %s directory: %s\n", src.label, src.dir)
		loaded, err := dataset.LoadDir(src.dir, src.label, skipped)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s emails: %w", src.label, err)
		}
		examples = append(examples, loaded...)
	}

	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no examples found", learning.ErrInvalidTrainingData)
	}
	return examples, nil
}

func init() {
	trainCmd.Flags().StringVarP(&trainDataset, "dataset", "d", "", "CSV file with subject, body and label columns")
	trainCmd.Flags().StringVar(&trainPhishingDir, "phishing-dir", "", "Directory containing phishing emails")
	trainCmd.Flags().StringVar(&trainLegitimateDir, "legitimate-dir", "", "Directory containing legitimate emails")
	trainCmd.Flags().Float64Var(&trainTestSplit, "test-split", 0.2, "Fraction of examples held out for evaluation")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "Random seed for the train/test split")
	trainCmd.Flags().StringVarP(&trainModelName, "model-name", "m", "", "Name to save the model under (overrides config)")
	trainCmd.Flags().BoolVar(&trainNoEval, "no-eval", false, "Train on all examples without evaluation")
	trainCmd.Flags().IntVar(&trainTopTerms, "top", 15, "Number of top phishing indicators to print")
	trainCmd.Flags().BoolVar(&trainProfile, "profile", false, "Print per-stage timings")
}
