// Package evaluation scores a trained model against held-out examples.
package evaluation

import (
	"fmt"
	"io"

	"github.com/zpam/phish-filter/pkg/learning"
)

// Predictor is anything that labels an email
type Predictor interface {
	Predict(subject, body string) (*learning.Result, error)
}

// ClassMetrics holds per-class precision, recall and F1
type ClassMetrics struct {
	Label     learning.Label `json:"label"`
	Precision float64        `json:"precision"`
	Recall    float64        `json:"recall"`
	F1        float64        `json:"f1"`
	Support   int            `json:"support"`
}

// Report summarizes predictions against true labels. Phishing is the
// positive class for the headline precision, recall and F1.
type Report struct {
	Total     int     `json:"total"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	// Confusion[actual][predicted], indexed like learning.Labels
	Confusion [len(learning.Labels)][len(learning.Labels)]int `json:"confusion"`

	Classes []ClassMetrics `json:"classes"`
}

// Evaluate predicts every example and compares with its label
func Evaluate(p Predictor, examples []learning.Example) (*Report, error) {
	actual := make([]learning.Label, len(examples))
	predicted := make([]learning.Label, len(examples))
	for i, ex := range examples {
		result, err := p.Predict(ex.Subject, ex.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to predict example %d: %w", i, err)
		}
		actual[i] = ex.Label
		predicted[i] = result.Label
	}
	return Compare(actual, predicted)
}

// Compare builds a report from parallel label slices
func Compare(actual, predicted []learning.Label) (*Report, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("%d actual labels but %d predictions", len(actual), len(predicted))
	}

	r := &Report{Total: len(actual)}
	correct := 0
	for i := range actual {
		a, ok := labelIndex(actual[i])
		if !ok {
			return nil, fmt.Errorf("unknown actual label %q", actual[i])
		}
		p, ok := labelIndex(predicted[i])
		if !ok {
			return nil, fmt.Errorf("unknown predicted label %q", predicted[i])
		}
		r.Confusion[a][p]++
		if a == p {
			correct++
		}
	}
	if r.Total > 0 {
		r.Accuracy = float64(correct) / float64(r.Total)
	}

	for k, label := range learning.Labels {
		r.Classes = append(r.Classes, r.classMetrics(k, label))
	}

	positive := r.Classes[len(r.Classes)-1]
	r.Precision = positive.Precision
	r.Recall = positive.Recall
	r.F1 = positive.F1
	return r, nil
}

func labelIndex(l learning.Label) (int, bool) {
	for k, label := range learning.Labels {
		if label == l {
			return k, true
		}
	}
	return 0, false
}

func (r *Report) classMetrics(k int, label learning.Label) ClassMetrics {
	var predictedK, actualK int
	for i := range r.Confusion {
		predictedK += r.Confusion[i][k]
		actualK += r.Confusion[k][i]
	}
	tp := r.Confusion[k][k]

	m := ClassMetrics{Label: label, Support: actualK}
	if predictedK > 0 {
		m.Precision = float64(tp) / float64(predictedK)
	}
	if actualK > 0 {
		m.Recall = float64(tp) / float64(actualK)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Print writes the report in the training banner style
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "%s\n", "==================================================")
	fmt.Fprintf(w, "MODEL PERFORMANCE\n")
	fmt.Fprintf(w, "%s\n", "==================================================")
	fmt.Fprintf(w, "Accuracy:  %.2f%%\n", r.Accuracy*100)
	fmt.Fprintf(w, "Precision: %.2f%%\n", r.Precision*100)
	fmt.Fprintf(w, "Recall:    %.2f%%\n", r.Recall*100)
	fmt.Fprintf(w, "F1-Score:  %.2f%%\n", r.F1*100)

	fmt.Fprintf(w, "\nConfusion Matrix:\n")
	fmt.Fprintf(w, "                Predicted\n")
	fmt.Fprintf(w, "                Legit  Phishing\n")
	fmt.Fprintf(w, "Actual Legit    %5d  %5d\n", r.Confusion[0][0], r.Confusion[0][1])
	fmt.Fprintf(w, "       Phishing %5d  %5d\n", r.Confusion[1][0], r.Confusion[1][1])

	fmt.Fprintf(w, "\nClassification Report:\n")
	fmt.Fprintf(w, "%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(w, "%12s %10.2f %10.2f %10.2f %10d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(w, "%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Total)
}
