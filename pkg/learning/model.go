package learning

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
)

// Example is one labeled training email
type Example struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Label   Label  `json:"label"`
}

// Document joins subject and body with a single space
func Document(subject, body string) string {
	return subject + " " + body
}

// Model is a fitted vectorizer and classifier pair. It is safe for
// concurrent use once returned by Train or Decode.
type Model struct {
	ID        string
	TrainedAt time.Time
	Config    *Config

	vectorizer *Vectorizer
	classifier *Classifier
}

// Indicator is a term that contributed to a prediction
type Indicator struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Result is the outcome of classifying one email
type Result struct {
	Label         Label         `json:"label"`
	Confidence    float64       `json:"confidence"`
	Probabilities Probabilities `json:"probabilities"`
	Indicators    []Indicator   `json:"indicators"`
}

// IsPhishing reports whether the predicted label is phishing
func (r *Result) IsPhishing() bool {
	return r.Label == Phishing
}

// Train fits a vectorizer and classifier on examples
func Train(config *Config, examples []Example) (*Model, error) {
	config = config.withDefaults()

	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no examples", ErrInvalidTrainingData)
	}

	corpus := make([]string, len(examples))
	labels := make([]Label, len(examples))
	for i, ex := range examples {
		if !ex.Label.Valid() {
			return nil, fmt.Errorf("%w: unknown label %q at example %d", ErrInvalidTrainingData, ex.Label, i)
		}
		corpus[i] = Document(ex.Subject, ex.Body)
		labels[i] = ex.Label
	}

	vectorizer := NewVectorizer(config)
	if _, _, err := vectorizer.Fit(corpus); err != nil {
		return nil, fmt.Errorf("failed to fit vectorizer: %w", err)
	}

	vectors, err := vectorizer.Transform(corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize corpus: %w", err)
	}

	classifier := NewClassifier()
	if err := classifier.Fit(vectors, labels); err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}

	return &Model{
		ID:         uuid.NewString(),
		TrainedAt:  time.Now().UTC(),
		Config:     config,
		vectorizer: vectorizer,
		classifier: classifier,
	}, nil
}

// Vectorizer returns the fitted vectorizer
func (m *Model) Vectorizer() *Vectorizer {
	return m.vectorizer
}

// Classifier returns the fitted classifier
func (m *Model) Classifier() *Classifier {
	return m.classifier
}

// WithTopIndicators returns a model sharing m's fitted state that reports k
// indicators per prediction. k <= 0 keeps the trained setting.
func (m *Model) WithTopIndicators(k int) *Model {
	if k <= 0 || k == m.Config.TopIndicators {
		return m
	}
	config := *m.Config
	config.TopIndicators = k
	out := *m
	out.Config = &config
	return &out
}

// Predict classifies an email and explains the decision with the
// Config.TopIndicators highest weighted terms of its vector.
func (m *Model) Predict(subject, body string) (*Result, error) {
	return m.PredictTopK(subject, body, m.Config.TopIndicators)
}

// PredictTopK is Predict reporting at most k indicators
func (m *Model) PredictTopK(subject, body string, k int) (*Result, error) {
	vec, err := m.vectorizer.TransformOne(Document(subject, body))
	if err != nil {
		return nil, err
	}

	label, probs, err := m.classifier.Predict(vec)
	if err != nil {
		return nil, err
	}

	contributions, err := m.classifier.Explain(vec, label, k)
	if err != nil {
		return nil, err
	}

	vocab := m.vectorizer.Vocabulary()
	indicators := make([]Indicator, 0, len(contributions))
	for _, c := range contributions {
		indicators = append(indicators, Indicator{Term: vocab.Term(c.Index), Weight: c.Weight})
	}

	return &Result{
		Label:         label,
		Confidence:    probs[label],
		Probabilities: probs,
		Indicators:    indicators,
	}, nil
}

// TopTerms returns the n terms with the highest log-probability under label
func (m *Model) TopTerms(label Label, n int) ([]string, error) {
	indices, err := m.classifier.TopFeatures(label, n)
	if err != nil {
		return nil, err
	}
	vocab := m.vectorizer.Vocabulary()
	terms := make([]string, len(indices))
	for i, idx := range indices {
		terms[i] = vocab.Term(idx)
	}
	return terms, nil
}

// ModelInfo contains model information
type ModelInfo struct {
	ID               string    `json:"id"`
	TrainedAt        time.Time `json:"trained_at"`
	PhishingExamples int       `json:"phishing_examples"`
	LegitExamples    int       `json:"legitimate_examples"`
	VocabularySize   int       `json:"vocabulary_size"`
	Config           *Config   `json:"config"`
}

// Info returns information about the trained model
func (m *Model) Info() *ModelInfo {
	return &ModelInfo{
		ID:               m.ID,
		TrainedAt:        m.TrainedAt,
		PhishingExamples: m.classifier.ClassCount(Phishing),
		LegitExamples:    m.classifier.ClassCount(Legitimate),
		VocabularySize:   m.vectorizer.Vocabulary().Len(),
		Config:           m.Config,
	}
}

// PrintStats prints model statistics and the strongest terms per class
func (m *Model) PrintStats(w io.Writer, topN int) {
	info := m.Info()

	fmt.Fprintf(w, "🧠 Phishing Detection Model\n")
	fmt.Fprintf(w, "════════════════════════════════════════\n")
	fmt.Fprintf(w, "Model ID: %s\n", info.ID)
	if !info.TrainedAt.IsZero() {
		fmt.Fprintf(w, "Trained: %s\n", info.TrainedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Training Data:\n")
	fmt.Fprintf(w, "  Phishing emails: %d\n", info.PhishingExamples)
	fmt.Fprintf(w, "  Legitimate emails: %d\n", info.LegitExamples)
	fmt.Fprintf(w, "  Vocabulary size: %d (max %d)\n", info.VocabularySize, info.Config.MaxFeatures)

	for _, section := range []struct {
		title string
		label Label
	}{
		{"📈 Top Phishing Indicators", Phishing},
		{"📉 Top Legitimate Indicators", Legitimate},
	} {
		terms, err := m.TopTerms(section.label, topN)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", section.title)
		for i, term := range terms {
			fmt.Fprintf(w, "  %2d. %s\n", i+1, term)
		}
	}
	fmt.Fprintf(w, "\n")
}

// snapshot is the persisted form of a Model. Priors are recomputed from
// class counts on load so that a class without examples survives JSON.
type snapshot struct {
	ID                  string              `json:"id"`
	TrainedAt           time.Time           `json:"trained_at"`
	Config              *Config             `json:"config"`
	Vocabulary          []string            `json:"vocabulary"`
	DocumentFrequencies DocumentFrequencies `json:"document_frequencies"`
	ClassCounts         map[Label]int       `json:"class_counts"`
	FeatureLogProbs     map[Label][]float64 `json:"feature_log_probs"`
}

// MarshalJSON encodes the fitted state
func (m *Model) MarshalJSON() ([]byte, error) {
	if !m.vectorizer.Fitted() || !m.classifier.Fitted() {
		return nil, ErrNotFitted
	}

	s := snapshot{
		ID:                  m.ID,
		TrainedAt:           m.TrainedAt,
		Config:              m.Config,
		Vocabulary:          m.vectorizer.Vocabulary().Terms(),
		DocumentFrequencies: m.vectorizer.DocumentFrequencies(),
		ClassCounts:         make(map[Label]int, len(Labels)),
		FeatureLogProbs:     make(map[Label][]float64, len(Labels)),
	}
	for _, l := range Labels {
		s.ClassCounts[l] = m.classifier.ClassCount(l)
		s.FeatureLogProbs[l] = m.classifier.FeatureLogProbs(l)
	}
	return json.Marshal(s)
}

// UnmarshalJSON restores the fitted state written by MarshalJSON
func (m *Model) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	config := s.Config.withDefaults()

	vectorizer := NewVectorizer(config)
	if err := vectorizer.restore(s.Vocabulary, s.DocumentFrequencies); err != nil {
		return fmt.Errorf("failed to restore vectorizer: %w", err)
	}

	var counts [len(Labels)]int
	var logProbs [len(Labels)][]float64
	for k, l := range Labels {
		counts[k] = s.ClassCounts[l]
		logProbs[k] = s.FeatureLogProbs[l]
	}

	classifier := NewClassifier()
	if err := classifier.restore(counts, logProbs); err != nil {
		return fmt.Errorf("failed to restore classifier: %w", err)
	}
	if classifier.Dim() != vectorizer.Vocabulary().Len() {
		return fmt.Errorf("%w: classifier has %d features, vocabulary has %d",
			ErrDimensionMismatch, classifier.Dim(), vectorizer.Vocabulary().Len())
	}

	m.ID = s.ID
	m.TrainedAt = s.TrainedAt
	m.Config = config
	m.vectorizer = vectorizer
	m.classifier = classifier
	return nil
}

// Encode writes the model snapshot as indented JSON
func (m *Model) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Decode reads a model snapshot written by Encode
func Decode(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &m, nil
}

// confidencePercent formats a probability for reports
func confidencePercent(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", p*100)
}

// Summary renders a one-line description of r
func (r *Result) Summary() string {
	return fmt.Sprintf("%s (confidence %s)", r.Label, confidencePercent(r.Confidence))
}
