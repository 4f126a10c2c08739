package filter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zpam/phish-filter/pkg/config"
	"github.com/zpam/phish-filter/pkg/dataset"
	"github.com/zpam/phish-filter/pkg/email"
	"github.com/zpam/phish-filter/pkg/learning"
	"go.uber.org/zap"
)

// Predictor labels an email; *learning.Model satisfies it
type Predictor interface {
	Predict(subject, body string) (*learning.Result, error)
}

// FilterResults contains the results of filtering a directory
type FilterResults struct {
	Total      int
	Phishing   int
	Legitimate int
	Errors     int
	Moved      int
	Duration   time.Duration
}

// PhishFilter sorts email files into clean and phishing directories
type PhishFilter struct {
	parser        *email.Parser
	model         Predictor
	threshold     float64
	maxConcurrent int
	logger        *zap.Logger
}

// NewPhishFilter creates a filter flagging messages whose phishing
// probability reaches the configured threshold
func NewPhishFilter(cfg *config.Config, model Predictor, logger *zap.Logger) *PhishFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lm, ok := model.(*learning.Model); ok && lm != nil {
		model = lm.WithTopIndicators(cfg.Detection.TopIndicators)
	}
	maxConcurrent := cfg.Detection.MaxConcurrentEmails
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &PhishFilter{
		parser:        email.NewParser(),
		model:         model,
		threshold:     cfg.Detection.PhishingThreshold,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// TestEmail classifies one email file and reports whether it is flagged
func (pf *PhishFilter) TestEmail(path string) (*learning.Result, bool, error) {
	parsed, err := pf.parser.ParseFromFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse email: %w", err)
	}

	result, err := pf.model.Predict(parsed.Subject, parsed.Body)
	if err != nil {
		return nil, false, err
	}
	return result, pf.IsPhishing(result), nil
}

// IsPhishing applies the threshold to a result
func (pf *PhishFilter) IsPhishing(result *learning.Result) bool {
	return result.Probabilities[learning.Phishing] >= pf.threshold
}

// ProcessEmails classifies every email file under inputPath and moves it to
// cleanPath or phishingPath. An empty destination leaves those files in place.
func (pf *PhishFilter) ProcessEmails(ctx context.Context, inputPath, cleanPath, phishingPath string) (*FilterResults, error) {
	for _, dir := range []string{cleanPath, phishingPath} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var emailFiles []string
	err := filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !dataset.IsEmailFile(path) {
			return nil
		}
		emailFiles = append(emailFiles, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pf.processParallel(ctx, inputPath, emailFiles, cleanPath, phishingPath), nil
}

type emailResult struct {
	path     string
	phishing bool
	err      error
}

// processParallel fans files out to a worker pool and moves them as results
// arrive
func (pf *PhishFilter) processParallel(ctx context.Context, inputPath string, files []string, cleanPath, phishingPath string) *FilterResults {
	start := time.Now()
	out := &FilterResults{}

	jobs := make(chan string)
	results := make(chan emailResult)

	var workers sync.WaitGroup
	for i := 0; i < pf.maxConcurrent; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for path := range jobs {
				result, isPhishing, err := pf.TestEmail(path)
				if err == nil {
					pf.logger.Debug("email classified",
						zap.String("path", path),
						zap.String("label", string(result.Label)),
						zap.Float64("phishing_probability", result.Probabilities[learning.Phishing]),
					)
				}
				results <- emailResult{path: path, phishing: isPhishing, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workers.Wait()
		close(results)
	}()

	for res := range results {
		out.Total++
		if res.err != nil {
			out.Errors++
			pf.logger.Warn("failed to process email", zap.String("path", res.path), zap.Error(res.err))
			continue
		}

		dest := cleanPath
		if res.phishing {
			out.Phishing++
			dest = phishingPath
		} else {
			out.Legitimate++
		}
		if dest == "" {
			continue
		}
		target, err := moveFile(res.path, destinationPath(inputPath, res.path, dest))
		if err != nil {
			pf.logger.Warn("failed to move email", zap.String("path", res.path), zap.Error(err))
			continue
		}
		pf.logger.Debug("email moved", zap.String("path", res.path), zap.String("target", target))
		out.Moved++
	}

	out.Duration = time.Since(start)
	return out
}

// destinationPath keeps the file's path relative to the input directory
func destinationPath(inputPath, path, dest string) string {
	rel, err := filepath.Rel(inputPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.Join(dest, rel)
}

// moveFile moves src to dst, creating parent directories. An existing dst
// is never replaced: a numeric suffix is added before the extension. The
// final path is returned.
func moveFile(src, dst string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	ext := filepath.Ext(dst)
	stem := strings.TrimSuffix(dst, ext)
	target := dst
	for i := 1; ; i++ {
		_, err := os.Lstat(target)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", err
		}
		target = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}

	if err := os.Rename(src, target); err != nil {
		return "", err
	}
	return target, nil
}
