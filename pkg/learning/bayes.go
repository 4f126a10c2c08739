package learning

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Classifier is a multinomial Naive Bayes model over TF-IDF vectors
type Classifier struct {
	mu sync.RWMutex

	fitted bool
	dim    int

	// Per class, indexed like Labels
	classCounts [len(Labels)]int
	logPriors   [len(Labels)]float64
	logProbs    [len(Labels)][]float64
}

// NewClassifier creates an unfitted classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Contribution is one non-zero component of an input vector
type Contribution struct {
	Index  int     `json:"index"`
	Weight float64 `json:"weight"`
}

// Fit learns class statistics from labeled vectors, replacing any
// previous fitted state.
func (c *Classifier) Fit(vectors []SparseVector, labels []Label) error {
	if len(vectors) == 0 {
		return fmt.Errorf("%w: no training vectors", ErrInvalidTrainingData)
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("%w: %d vectors but %d labels", ErrInvalidTrainingData, len(vectors), len(labels))
	}

	dim := vectors[0].Dim
	if dim <= 0 {
		return fmt.Errorf("%w: vectors have dimension %d", ErrInvalidTrainingData, dim)
	}

	var counts [len(Labels)]int
	var totals [len(Labels)][]float64
	for k := range totals {
		totals[k] = make([]float64, dim)
	}

	for i, vec := range vectors {
		if !labels[i].Valid() {
			return fmt.Errorf("%w: unknown label %q at position %d", ErrInvalidTrainingData, labels[i], i)
		}
		if vec.Dim != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", ErrInvalidTrainingData, i, vec.Dim, dim)
		}
		if err := vec.validate(); err != nil {
			return fmt.Errorf("%w: vector %d: %v", ErrInvalidTrainingData, i, err)
		}
		k := labels[i].index()
		counts[k]++
		for j, idx := range vec.Indices {
			totals[k][idx] += vec.Values[j]
		}
	}

	var logProbs [len(Labels)][]float64
	for k := range totals {
		logProbs[k] = smoothedLogProbs(totals[k])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dim = dim
	c.classCounts = counts
	c.logPriors = logPriors(counts)
	c.logProbs = logProbs
	c.fitted = true
	return nil
}

// smoothedLogProbs applies add-one smoothing:
// log((total[i] + 1) / (sum(total) + len(total)))
func smoothedLogProbs(total []float64) []float64 {
	var sum float64
	for _, t := range total {
		sum += t
	}
	denom := math.Log(sum + float64(len(total)))

	out := make([]float64, len(total))
	for i, t := range total {
		out[i] = math.Log(t+1) - denom
	}
	return out
}

// logPriors returns log(count/total) per class. A class without examples
// gets -Inf and can never be predicted.
func logPriors(counts [len(Labels)]int) [len(Labels)]float64 {
	var total int
	for _, n := range counts {
		total += n
	}

	var priors [len(Labels)]float64
	for k, n := range counts {
		priors[k] = math.Log(float64(n) / float64(total))
	}
	return priors
}

// Predict returns the most probable label and the probability of each class
func (c *Classifier) Predict(vec SparseVector) (Label, Probabilities, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fitted {
		return "", nil, fmt.Errorf("classifier predict: %w", ErrNotFitted)
	}
	if vec.Dim != c.dim {
		return "", nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, vec.Dim, c.dim)
	}
	if err := vec.validate(); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedVector, err)
	}

	var scores [len(Labels)]float64
	for k := range Labels {
		scores[k] = c.logPriors[k] + vec.Dot(c.logProbs[k])
	}

	// Labels order breaks ties: only a strictly higher score wins
	best := 0
	for k := 1; k < len(scores); k++ {
		if scores[k] > scores[best] {
			best = k
		}
	}

	return Labels[best], normalizeLogScores(scores), nil
}

// normalizeLogScores converts log-scores to probabilities with log-sum-exp
func normalizeLogScores(scores [len(Labels)]float64) Probabilities {
	top := math.Inf(-1)
	for _, s := range scores {
		if s > top {
			top = s
		}
	}

	var exps [len(Labels)]float64
	var sum float64
	for k, s := range scores {
		exps[k] = math.Exp(s - top)
		sum += exps[k]
	}

	probs := make(Probabilities, len(Labels))
	for k, l := range Labels {
		probs[l] = exps[k] / sum
	}
	return probs
}

// Explain returns the topK non-zero components of vec with the highest raw
// weight, descending, ties by ascending index. The predicted label does not
// change the ranking.
func (c *Classifier) Explain(vec SparseVector, predicted Label, topK int) ([]Contribution, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fitted {
		return nil, fmt.Errorf("classifier explain: %w", ErrNotFitted)
	}
	if !predicted.Valid() {
		return nil, fmt.Errorf("explain: unknown label %q", predicted)
	}
	if vec.Dim != c.dim {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, vec.Dim, c.dim)
	}
	if err := vec.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVector, err)
	}

	contributions := make([]Contribution, 0, vec.NonZero())
	for i, idx := range vec.Indices {
		if vec.Values[i] != 0 {
			contributions = append(contributions, Contribution{Index: idx, Weight: vec.Values[i]})
		}
	}

	sort.Slice(contributions, func(i, j int) bool {
		if contributions[i].Weight != contributions[j].Weight {
			return contributions[i].Weight > contributions[j].Weight
		}
		return contributions[i].Index < contributions[j].Index
	})

	if topK >= 0 && len(contributions) > topK {
		contributions = contributions[:topK]
	}
	return contributions, nil
}

// TopFeatures returns the n indices with the highest log-probability under
// label, descending, ties by ascending index.
func (c *Classifier) TopFeatures(label Label, n int) ([]int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fitted {
		return nil, ErrNotFitted
	}
	if !label.Valid() {
		return nil, fmt.Errorf("unknown label %q", label)
	}

	probs := c.logProbs[label.index()]
	indices := make([]int, len(probs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return probs[indices[i]] > probs[indices[j]]
	})

	if n > 0 && len(indices) > n {
		indices = indices[:n]
	}
	return indices, nil
}

// FeatureLogProbs returns a copy of the per-token log-probabilities of label
func (c *Classifier) FeatureLogProbs(label Label) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fitted || !label.Valid() {
		return nil
	}
	out := make([]float64, c.dim)
	copy(out, c.logProbs[label.index()])
	return out
}

// ClassCount returns the number of training examples with label
func (c *Classifier) ClassCount(label Label) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !label.Valid() {
		return 0
	}
	return c.classCounts[label.index()]
}

// LogPrior returns the prior log-probability of label
func (c *Classifier) LogPrior(label Label) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !label.Valid() {
		return math.Inf(-1)
	}
	return c.logPriors[label.index()]
}

// Dim returns the vector dimension the classifier was fitted with
func (c *Classifier) Dim() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dim
}

// Fitted reports whether Fit has completed
func (c *Classifier) Fitted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fitted
}

// restore installs previously fitted class statistics
func (c *Classifier) restore(counts [len(Labels)]int, logProbs [len(Labels)][]float64) error {
	dim := len(logProbs[0])
	if dim == 0 {
		return ErrEmptyVocabulary
	}
	for k := range logProbs {
		if len(logProbs[k]) != dim {
			return fmt.Errorf("class %s has %d log-probabilities, expected %d", Labels[k], len(logProbs[k]), dim)
		}
		for i, lp := range logProbs[k] {
			if math.IsNaN(lp) || math.IsInf(lp, 0) {
				return fmt.Errorf("class %s: log-probability %d is not finite", Labels[k], i)
			}
		}
	}
	if counts[0]+counts[1] == 0 {
		return fmt.Errorf("%w: no class counts", ErrInvalidTrainingData)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dim = dim
	c.classCounts = counts
	c.logPriors = logPriors(counts)
	c.logProbs = logProbs
	c.fitted = true
	return nil
}
