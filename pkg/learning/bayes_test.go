package learning

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
)

func fitSample(t *testing.T) (*Vectorizer, *Classifier) {
	t.Helper()

	docs, labels := corpusOf(sampleExamples())
	v := NewVectorizer(nil)
	if _, _, err := v.Fit(docs); err != nil {
		t.Fatalf("Fit vectorizer failed: %v", err)
	}
	vecs, err := v.Transform(docs)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	c := NewClassifier()
	if err := c.Fit(vecs, labels); err != nil {
		t.Fatalf("Fit classifier failed: %v", err)
	}
	return v, c
}

func TestClassifierTwoDocumentScenario(t *testing.T) {
	docs := []string{"win free prize click now", "team meeting tomorrow agenda"}
	labels := []Label{Phishing, Legitimate}

	v := NewVectorizer(nil)
	if _, _, err := v.Fit(docs); err != nil {
		t.Fatalf("Fit vectorizer failed: %v", err)
	}
	vecs, err := v.Transform(docs)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	c := NewClassifier()
	if err := c.Fit(vecs, labels); err != nil {
		t.Fatalf("Fit classifier failed: %v", err)
	}

	vec, err := v.TransformOne("click now to win")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	label, probs, err := c.Predict(vec)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if label != Phishing {
		t.Errorf("expected phishing, got %s", label)
	}
	if probs[Phishing] <= 0.5 {
		t.Errorf("expected phishing probability > 0.5, got %f", probs[Phishing])
	}
}

func TestClassifierZeroVectorUsesPriors(t *testing.T) {
	v, c := fitSample(t)

	vec, err := v.TransformOne("")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	label, probs, err := c.Predict(vec)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	// the sample corpus is balanced, so the priors tie
	if label != Legitimate {
		t.Errorf("expected tie to resolve to legitimate, got %s", label)
	}
	if math.Abs(probs[Phishing]-0.5) > 1e-9 || math.Abs(probs[Legitimate]-0.5) > 1e-9 {
		t.Errorf("expected prior probabilities, got %v", probs)
	}
}

func TestClassifierSkewedPriors(t *testing.T) {
	vecs := []SparseVector{
		NewSparseVector(2, map[int]float64{0: 1}),
		NewSparseVector(2, map[int]float64{0: 1}),
		NewSparseVector(2, map[int]float64{0: 1}),
		NewSparseVector(2, map[int]float64{1: 1}),
	}
	labels := []Label{Phishing, Phishing, Phishing, Legitimate}

	c := NewClassifier()
	if err := c.Fit(vecs, labels); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	label, probs, err := c.Predict(NewSparseVector(2, nil))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if label != Phishing {
		t.Errorf("expected phishing from priors, got %s", label)
	}
	if math.Abs(probs[Phishing]-0.75) > 1e-9 {
		t.Errorf("expected phishing probability 0.75, got %f", probs[Phishing])
	}
}

func TestClassifierProbabilityLaw(t *testing.T) {
	v, c := fitSample(t)

	texts := []string{
		"",
		"Click here to claim your prize",
		"Team meeting agenda for Friday",
		"verify verify verify verify verify account password bank",
		"completely unrelated vocabulary",
	}
	for _, text := range texts {
		vec, _ := v.TransformOne(text)
		_, probs, err := c.Predict(vec)
		if err != nil {
			t.Fatalf("Predict(%q) failed: %v", text, err)
		}
		sum := 0.0
		for _, p := range probs {
			if p < 0 || p > 1 {
				t.Errorf("probability %f out of range for %q", p, text)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("probabilities for %q sum to %f", text, sum)
		}
	}
}

func TestClassifierSmoothingIsFinite(t *testing.T) {
	_, c := fitSample(t)

	for _, label := range Labels {
		probs := c.FeatureLogProbs(label)
		if len(probs) != c.Dim() {
			t.Fatalf("expected %d log-probabilities, got %d", c.Dim(), len(probs))
		}
		for i, lp := range probs {
			if math.IsInf(lp, 0) || math.IsNaN(lp) {
				t.Errorf("log-probability %d for %s is not finite: %f", i, label, lp)
			}
		}
	}
}

func TestClassifierMonotonicReinforcement(t *testing.T) {
	v, c := fitSample(t)

	base := "team meeting agenda"
	prev := -1.0
	var first, last float64
	for reps := 1; reps <= 8; reps++ {
		text := base + strings.Repeat(" verify", reps)
		vec, err := v.TransformOne(text)
		if err != nil {
			t.Fatalf("Transform failed: %v", err)
		}
		_, probs, err := c.Predict(vec)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		p := probs[Phishing]
		if p < prev {
			t.Errorf("phishing probability decreased at %d repetitions: %f < %f", reps, p, prev)
		}
		if reps == 1 {
			first = p
		}
		last = p
		prev = p
	}
	if last <= first {
		t.Errorf("expected phishing probability to grow, first=%f last=%f", first, last)
	}
}

func TestClassifierExplain(t *testing.T) {
	c := NewClassifier()
	err := c.Fit([]SparseVector{
		NewSparseVector(10, map[int]float64{0: 1}),
		NewSparseVector(10, map[int]float64{1: 1}),
	}, []Label{Phishing, Legitimate})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	vec := NewSparseVector(10, map[int]float64{3: 0.2, 7: 0.9})
	got, err := c.Explain(vec, Phishing, 5)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 contributions, got %d", len(got))
	}
	if got[0].Index != 7 || got[1].Index != 3 {
		t.Errorf("unexpected order: %v", got)
	}

	tied := NewSparseVector(10, map[int]float64{5: 0.5, 2: 0.5, 9: 0.1})
	got, err = c.Explain(tied, Legitimate, 2)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if len(got) != 2 || got[0].Index != 2 || got[1].Index != 5 {
		t.Errorf("expected ties by ascending index, got %v", got)
	}

	got, err = c.Explain(NewSparseVector(10, nil), Legitimate, 5)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no contributions for zero vector, got %v", got)
	}
}

func TestClassifierErrors(t *testing.T) {
	c := NewClassifier()
	vec := NewSparseVector(3, map[int]float64{0: 1})

	if _, _, err := c.Predict(vec); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted from Predict, got %v", err)
	}
	if _, err := c.Explain(vec, Phishing, 3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted from Explain, got %v", err)
	}

	vecs := []SparseVector{vec, vec, vec}
	tests := []struct {
		name    string
		vectors []SparseVector
		labels  []Label
	}{
		{"Unknown label", vecs, []Label{"phishing", "legitimate", "spam"}},
		{"Mismatched lengths", vecs, []Label{Phishing, Legitimate}},
		{"Empty", nil, nil},
		{"Mixed dimensions", []SparseVector{vec, NewSparseVector(4, nil)}, []Label{Phishing, Legitimate}},
		{"Index out of range", []SparseVector{vec, {Dim: 3, Indices: []int{7}, Values: []float64{1}}}, []Label{Phishing, Legitimate}},
		{"Negative weight", []SparseVector{vec, {Dim: 3, Indices: []int{1}, Values: []float64{-2}}}, []Label{Phishing, Legitimate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Fit(tt.vectors, tt.labels); !errors.Is(err, ErrInvalidTrainingData) {
				t.Errorf("expected ErrInvalidTrainingData, got %v", err)
			}
		})
	}

	if err := c.Fit(vecs[:2], []Label{Phishing, Legitimate}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, _, err := c.Predict(NewSparseVector(5, nil)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	malformed := []struct {
		name string
		vec  SparseVector
	}{
		{"Index out of range", SparseVector{Dim: 3, Indices: []int{7}, Values: []float64{1}}},
		{"Negative index", SparseVector{Dim: 3, Indices: []int{-1}, Values: []float64{1}}},
		{"Unsorted indices", SparseVector{Dim: 3, Indices: []int{2, 0}, Values: []float64{1, 1}}},
		{"Duplicate indices", SparseVector{Dim: 3, Indices: []int{1, 1}, Values: []float64{1, 1}}},
		{"Length mismatch", SparseVector{Dim: 3, Indices: []int{0, 1}, Values: []float64{1}}},
		{"Negative weight", SparseVector{Dim: 3, Indices: []int{0}, Values: []float64{-2}}},
		{"NaN weight", SparseVector{Dim: 3, Indices: []int{0}, Values: []float64{math.NaN()}}},
	}
	for _, tt := range malformed {
		t.Run("Predict "+tt.name, func(t *testing.T) {
			if _, _, err := c.Predict(tt.vec); !errors.Is(err, ErrMalformedVector) {
				t.Errorf("expected ErrMalformedVector from Predict, got %v", err)
			}
			if _, err := c.Explain(tt.vec, Phishing, 3); !errors.Is(err, ErrMalformedVector) {
				t.Errorf("expected ErrMalformedVector from Explain, got %v", err)
			}
		})
	}
}

func TestClassifierConcurrentPredict(t *testing.T) {
	v, c := fitSample(t)

	want, _ := v.TransformOne("Claim your prize now by providing your bank details")
	expectedLabel, expectedProbs, _ := c.Predict(want)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := v.TransformOne("Claim your prize now by providing your bank details")
			if err != nil {
				errs <- err.Error()
				return
			}
			label, probs, err := c.Predict(vec)
			if err != nil {
				errs <- err.Error()
				return
			}
			if label != expectedLabel || probs[Phishing] != expectedProbs[Phishing] {
				errs <- "concurrent prediction differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestClassifierTopFeatures(t *testing.T) {
	v, c := fitSample(t)

	indices, err := c.TopFeatures(Phishing, 5)
	if err != nil {
		t.Fatalf("TopFeatures failed: %v", err)
	}
	if len(indices) != 5 {
		t.Fatalf("expected 5 indices, got %d", len(indices))
	}
	probs := c.FeatureLogProbs(Phishing)
	for i := 1; i < len(indices); i++ {
		if probs[indices[i]] > probs[indices[i-1]] {
			t.Errorf("top features not sorted at %d", i)
		}
	}
	if term := v.Vocabulary().Term(indices[0]); term == "" {
		t.Error("top feature has no term")
	}
}
