package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/dataset"
	"github.com/zpam/phish-filter/pkg/evaluation"
	"github.com/zpam/phish-filter/pkg/learning"
	"github.com/zpam/phish-filter/pkg/profiler"
)

var (
	benchmarkDataset    string
	benchmarkGenerate   int
	benchmarkSeed       int64
	benchmarkRuns       int
	benchmarkConcurrent int
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure prediction throughput and accuracy",
	Long: `Classify a labeled dataset (or generated emails) repeatedly with a pool of
concurrent workers sharing one model, then report latency percentiles,
throughput and classification metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchmarkRuns <= 0 || benchmarkConcurrent <= 0 {
			return fmt.Errorf("runs and concurrent must be greater than 0")
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

		var examples []learning.Example
		switch {
		case benchmarkDataset != "":
			examples, err = dataset.LoadCSV(benchmarkDataset)
		case benchmarkGenerate > 0:
			examples, err = dataset.NewGenerator(benchmarkSeed).Examples(benchmarkGenerate, 0.5)
		default:
			return fmt.Errorf("one of --dataset or --generate is required")
		}
		if err != nil {
			return err
		}

		model, err := loadModel(context.Background(), cfg, cfg.Learning.ModelName, logger)
		if err != nil {
			return err
		}

		fmt.Printf("🚀 phish-filter Benchmark\n")
		fmt.Printf("📧 Emails: %d\n", len(examples))
		fmt.Printf("🔄 Runs: %d\n", benchmarkRuns)
		fmt.Printf("⚡ Concurrent workers: %d\n\n", benchmarkConcurrent)

		result := runBenchmark(model, examples, benchmarkRuns, benchmarkConcurrent)
		displayBenchmarkResults(result)

		report, err := evaluation.Compare(result.Actual, result.Predicted)
		if err != nil {
			return err
		}
		report.Print(os.Stdout)
		return nil
	},
}

// BenchmarkResult contains performance metrics for one benchmark
type BenchmarkResult struct {
	TotalEmails int
	TotalTime   time.Duration
	Errors      int

	// Per-prediction timings
	Profile *profiler.Profiler

	// Labels from the last run, parallel to the input
	Actual    []learning.Label
	Predicted []learning.Label
}

// EmailsPerSecond returns wall-clock throughput
func (r *BenchmarkResult) EmailsPerSecond() float64 {
	if r.TotalTime <= 0 {
		return 0
	}
	return float64(r.TotalEmails) / r.TotalTime.Seconds()
}

// runBenchmark classifies examples runs times with concurrent workers
func runBenchmark(p evaluation.Predictor, examples []learning.Example, runs, concurrent int) *BenchmarkResult {
	result := &BenchmarkResult{
		TotalEmails: len(examples) * runs,
		Profile:     profiler.NewProfiler(),
		Actual:      make([]learning.Label, len(examples)),
		Predicted:   make([]learning.Label, len(examples)),
	}
	for i, ex := range examples {
		result.Actual[i] = ex.Label
	}

	jobs := make(chan int)
	var mu sync.Mutex
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < concurrent; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ex := examples[i]
				timer := result.Profile.Start(profiler.StagePredict)
				res, err := p.Predict(ex.Subject, ex.Body)
				timer.Stop()

				mu.Lock()
				if err != nil {
					result.Errors++
					// errors count as misclassifications
					if ex.Label == learning.Phishing {
						result.Predicted[i] = learning.Legitimate
					} else {
						result.Predicted[i] = learning.Phishing
					}
				} else {
					result.Predicted[i] = res.Label
				}
				mu.Unlock()
			}
		}()
	}

	for run := 0; run < runs; run++ {
		for i := range examples {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()
	result.TotalTime = time.Since(start)

	return result
}

// displayBenchmarkResults shows formatted benchmark results
func displayBenchmarkResults(result *BenchmarkResult) {
	s := result.Profile.GetStats(profiler.StagePredict)

	fmt.Printf("📊 Benchmark Results\n")
	fmt.Printf("═══════════════════════════════════════\n\n")

	fmt.Printf("⚡ Performance Metrics:\n")
	fmt.Printf("  Total emails processed: %d\n", result.TotalEmails)
	fmt.Printf("  Total time: %v\n", result.TotalTime)
	fmt.Printf("  Average time per email: %s\n", profiler.FormatDuration(s.Average))
	fmt.Printf("  Emails per second: %.0f\n", result.EmailsPerSecond())
	fmt.Printf("  Errors: %d\n", result.Errors)
	fmt.Printf("\n")

	fmt.Printf("📈 Time Distribution:\n")
	fmt.Printf("  Min time: %s\n", profiler.FormatDuration(s.Min))
	fmt.Printf("  Max time: %s\n", profiler.FormatDuration(s.Max))
	fmt.Printf("  Median time: %s\n", profiler.FormatDuration(s.Median))
	fmt.Printf("  95th percentile: %s\n", profiler.FormatDuration(s.P95))
	fmt.Printf("  99th percentile: %s\n", profiler.FormatDuration(s.P99))

	fmt.Printf("\n🏆 Performance Assessment:\n")
	switch {
	case s.Average < time.Millisecond:
		fmt.Printf("  ✅ EXCELLENT: average %s < 1 ms\n", profiler.FormatDuration(s.Average))
	case s.Average < 5*time.Millisecond:
		fmt.Printf("  ✅ GOOD: average %s < 5 ms\n", profiler.FormatDuration(s.Average))
	default:
		fmt.Printf("  ❌ SLOW: average %s > 5 ms\n", profiler.FormatDuration(s.Average))
	}
}

func init() {
	benchmarkCmd.Flags().StringVarP(&benchmarkDataset, "dataset", "d", "", "Labeled CSV dataset to classify")
	benchmarkCmd.Flags().IntVarP(&benchmarkGenerate, "generate", "g", 0, "Classify N generated emails instead of a dataset")
	benchmarkCmd.Flags().Int64Var(&benchmarkSeed, "seed", 42, "Seed for generated emails")
	benchmarkCmd.Flags().IntVarP(&benchmarkRuns, "runs", "r", 1, "Number of passes over the emails")
	benchmarkCmd.Flags().IntVarP(&benchmarkConcurrent, "concurrent", "j", 4, "Number of concurrent workers")
}
