// Package dataset loads labeled training emails and splits them for
// evaluation.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zpam/phish-filter/pkg/email"
	"github.com/zpam/phish-filter/pkg/learning"
)

// LoadCSV reads a CSV file with a header containing subject, body and
// label columns. Column order is free; extra columns are ignored.
func LoadCSV(path string) ([]learning.Example, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV reads labeled examples from r
func ReadCSV(r io.Reader) ([]learning.Example, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: dataset has no header", learning.ErrInvalidTrainingData)
		}
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	cols := map[string]int{"subject": -1, "body": -1, "label": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[name]; ok {
			cols[name] = i
		}
	}
	for name, idx := range cols {
		if idx < 0 {
			return nil, fmt.Errorf("%w: dataset is missing column %q", learning.ErrInvalidTrainingData, name)
		}
	}

	var examples []learning.Example
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset line %d: %w", line, err)
		}

		field := func(name string) string {
			if idx := cols[name]; idx < len(record) {
				return record[idx]
			}
			return ""
		}

		label, err := learning.ParseLabel(strings.ToLower(strings.TrimSpace(field("label"))))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, learning.Example{
			Subject: field("subject"),
			Body:    field("body"),
			Label:   label,
		})
	}

	return examples, nil
}

// WriteCSV writes examples with a subject,body,label header
func WriteCSV(w io.Writer, examples []learning.Example) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"subject", "body", "label"}); err != nil {
		return err
	}
	for _, ex := range examples {
		if err := writer.Write([]string{ex.Subject, ex.Body, string(ex.Label)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadDir parses every email file under dir and labels it. Files that fail
// to parse are reported through skipped and otherwise ignored.
func LoadDir(dir string, label learning.Label, skipped func(path string, err error)) ([]learning.Example, error) {
	if !label.Valid() {
		return nil, fmt.Errorf("%w: unknown label %q", learning.ErrInvalidTrainingData, label)
	}

	parser := email.NewParser()
	var examples []learning.Example

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsEmailFile(path) {
			return nil
		}

		parsed, err := parser.ParseFromFile(path)
		if err != nil {
			if skipped != nil {
				skipped(path, err)
			}
			return nil
		}

		examples = append(examples, learning.Example{
			Subject: parsed.Subject,
			Body:    parsed.Body,
			Label:   label,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return examples, nil
}

// IsEmailFile reports whether path looks like a stored email
func IsEmailFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml", ".msg", ".email", "":
		return true
	}
	return false
}

// Counts returns the number of examples per label
func Counts(examples []learning.Example) map[learning.Label]int {
	counts := make(map[learning.Label]int, len(learning.Labels))
	for _, ex := range examples {
		counts[ex.Label]++
	}
	return counts
}

// StratifiedSplit shuffles each label's examples with seed and moves
// testFraction of them (rounded up, but never all of a label with more than
// one example) into the test set. Order is deterministic for a given seed.
func StratifiedSplit(examples []learning.Example, testFraction float64, seed int64) (train, test []learning.Example, err error) {
	if testFraction < 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in [0, 1), got %f", testFraction)
	}

	byLabel := make(map[learning.Label][]learning.Example)
	var labels []learning.Label
	for _, ex := range examples {
		if _, ok := byLabel[ex.Label]; !ok {
			labels = append(labels, ex.Label)
		}
		byLabel[ex.Label] = append(byLabel[ex.Label], ex)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	rng := rand.New(rand.NewSource(seed))
	for _, label := range labels {
		group := byLabel[label]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })

		n := int(math.Ceil(float64(len(group))*testFraction - 1e-9))
		if n >= len(group) && len(group) > 1 {
			n = len(group) - 1
		}
		test = append(test, group[:n]...)
		train = append(train, group[n:]...)
	}

	return train, test, nil
}
