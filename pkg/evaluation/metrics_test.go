package evaluation

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/zpam/phish-filter/pkg/learning"
)

const (
	P = learning.Phishing
	L = learning.Legitimate
)

func TestCompare(t *testing.T) {
	actual := []learning.Label{P, P, P, P, L, L, L, L}
	predicted := []learning.Label{P, P, P, L, L, L, L, P}

	r, err := Compare(actual, predicted)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if r.Confusion[0][0] != 3 || r.Confusion[0][1] != 1 || r.Confusion[1][0] != 1 || r.Confusion[1][1] != 3 {
		t.Errorf("unexpected confusion matrix %v", r.Confusion)
	}
	if math.Abs(r.Accuracy-0.75) > 1e-12 {
		t.Errorf("accuracy = %f, expected 0.75", r.Accuracy)
	}
	if math.Abs(r.Precision-0.75) > 1e-12 || math.Abs(r.Recall-0.75) > 1e-12 || math.Abs(r.F1-0.75) > 1e-12 {
		t.Errorf("unexpected phishing metrics %+v", r)
	}
	if r.Classes[0].Support != 4 || r.Classes[1].Support != 4 {
		t.Errorf("unexpected support %+v", r.Classes)
	}
}

func TestCompareNoPositivePredictions(t *testing.T) {
	r, err := Compare([]learning.Label{P, L}, []learning.Label{L, L})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if r.Precision != 0 || r.Recall != 0 || r.F1 != 0 {
		t.Errorf("expected zero phishing metrics, got %+v", r)
	}
	if r.Accuracy != 0.5 {
		t.Errorf("accuracy = %f, expected 0.5", r.Accuracy)
	}
}

func TestCompareErrors(t *testing.T) {
	if _, err := Compare([]learning.Label{P}, nil); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := Compare([]learning.Label{"spam"}, []learning.Label{P}); err == nil {
		t.Error("expected error for unknown label")
	}
}

type fixedPredictor map[string]learning.Label

func (f fixedPredictor) Predict(subject, body string) (*learning.Result, error) {
	return &learning.Result{Label: f[subject]}, nil
}

func TestEvaluateAndPrint(t *testing.T) {
	examples := []learning.Example{
		{Subject: "a", Label: P},
		{Subject: "b", Label: L},
	}
	r, err := Evaluate(fixedPredictor{"a": P, "b": L}, examples)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if r.Accuracy != 1 {
		t.Errorf("accuracy = %f, expected 1", r.Accuracy)
	}

	var buf bytes.Buffer
	r.Print(&buf)
	for _, want := range []string{"Accuracy:  100.00%", "Confusion Matrix", "phishing"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("report missing %q:\n%s", want, buf.String())
		}
	}
}
