package learning

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Vocabulary maps tokens to dense indices in [0, Len()). It is never
// modified after it is built.
type Vocabulary struct {
	terms []string
	index map[string]int
}

func newVocabulary(terms []string) Vocabulary {
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return Vocabulary{terms: terms, index: index}
}

// Len returns the number of tokens
func (v Vocabulary) Len() int {
	return len(v.terms)
}

// Lookup returns the index of a token
func (v Vocabulary) Lookup(token string) (int, bool) {
	i, ok := v.index[token]
	return i, ok
}

// Term returns the token at index i
func (v Vocabulary) Term(i int) string {
	if i < 0 || i >= len(v.terms) {
		return ""
	}
	return v.terms[i]
}

// Terms returns a copy of the tokens in index order
func (v Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// DocumentFrequencies holds, per vocabulary index, the number of training
// documents containing the token, and the size of the training corpus.
type DocumentFrequencies struct {
	Counts    []int `json:"counts"`
	Documents int   `json:"documents"`
}

// Vectorizer converts documents into L2-normalized TF-IDF vectors over
// unigrams and bigrams. Fit takes the write lock; Transform only reads.
type Vectorizer struct {
	mu sync.RWMutex

	config    *Config
	tokenizer *Tokenizer

	fitted bool
	vocab  Vocabulary
	df     DocumentFrequencies
	idf    []float64
}

// NewVectorizer creates an unfitted vectorizer
func NewVectorizer(config *Config) *Vectorizer {
	config = config.withDefaults()
	return &Vectorizer{
		config:    config,
		tokenizer: NewTokenizer(config),
	}
}

// candidate is a token seen during fit
type candidate struct {
	token     string
	frequency int
	documents int
	firstSeen int
}

// Fit builds the vocabulary and document-frequency table from corpus,
// replacing any previous fitted state.
func (v *Vectorizer) Fit(corpus []string) (Vocabulary, DocumentFrequencies, error) {
	if len(corpus) == 0 {
		return Vocabulary{}, DocumentFrequencies{}, fmt.Errorf("%w: empty corpus", ErrInvalidTrainingData)
	}

	candidates := make(map[string]*candidate)
	var order []*candidate

	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range v.tokenizer.Tokens(doc) {
			c, ok := candidates[tok]
			if !ok {
				c = &candidate{token: tok, firstSeen: len(order)}
				candidates[tok] = c
				order = append(order, c)
			}
			c.frequency++
			if _, dup := seen[tok]; !dup {
				seen[tok] = struct{}{}
				c.documents++
			}
		}
	}

	if len(order) == 0 {
		return Vocabulary{}, DocumentFrequencies{}, ErrEmptyVocabulary
	}

	// order is already in first-encounter order, so a stable sort keeps ties
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].frequency > order[j].frequency
	})
	if len(order) > v.config.MaxFeatures {
		order = order[:v.config.MaxFeatures]
	}

	terms := make([]string, len(order))
	df := DocumentFrequencies{
		Counts:    make([]int, len(order)),
		Documents: len(corpus),
	}
	for i, c := range order {
		terms[i] = c.token
		df.Counts[i] = c.documents
	}

	vocab := newVocabulary(terms)

	v.mu.Lock()
	v.vocab = vocab
	v.df = df
	v.idf = inverseDocumentFrequencies(df)
	v.fitted = true
	v.mu.Unlock()

	return vocab, df, nil
}

// inverseDocumentFrequencies computes log((1+N)/(1+df)) per index
func inverseDocumentFrequencies(df DocumentFrequencies) []float64 {
	n := float64(df.Documents)
	idf := make([]float64, len(df.Counts))
	for i, c := range df.Counts {
		idf[i] = math.Log((1 + n) / (1 + float64(c)))
	}
	return idf
}

// Transform converts each document into a feature vector of length
// Vocabulary().Len(). Tokens outside the vocabulary are ignored.
func (v *Vectorizer) Transform(docs []string) ([]SparseVector, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.fitted {
		return nil, fmt.Errorf("vectorizer transform: %w", ErrNotFitted)
	}

	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		out[i] = v.transformOne(doc)
	}
	return out, nil
}

// TransformOne is Transform for a single document
func (v *Vectorizer) TransformOne(doc string) (SparseVector, error) {
	vecs, err := v.Transform([]string{doc})
	if err != nil {
		return SparseVector{}, err
	}
	return vecs[0], nil
}

func (v *Vectorizer) transformOne(doc string) SparseVector {
	tf := make(map[int]float64)
	for _, tok := range v.tokenizer.Tokens(doc) {
		if idx, ok := v.vocab.Lookup(tok); ok {
			tf[idx]++
		}
	}
	for idx, count := range tf {
		tf[idx] = count * v.idf[idx]
	}

	sv := NewSparseVector(v.vocab.Len(), tf)
	sv.normalize()
	return sv
}

// Fitted reports whether Fit has completed
func (v *Vectorizer) Fitted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fitted
}

// Vocabulary returns the fitted vocabulary
func (v *Vectorizer) Vocabulary() Vocabulary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vocab
}

// DocumentFrequencies returns a copy of the fitted document frequencies
func (v *Vectorizer) DocumentFrequencies() DocumentFrequencies {
	v.mu.RLock()
	defer v.mu.RUnlock()
	counts := make([]int, len(v.df.Counts))
	copy(counts, v.df.Counts)
	return DocumentFrequencies{Counts: counts, Documents: v.df.Documents}
}

// restore installs previously fitted state
func (v *Vectorizer) restore(terms []string, df DocumentFrequencies) error {
	if len(terms) == 0 {
		return ErrEmptyVocabulary
	}
	if len(terms) != len(df.Counts) {
		return fmt.Errorf("vocabulary has %d terms but %d document frequencies", len(terms), len(df.Counts))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.vocab = newVocabulary(terms)
	v.df = df
	v.idf = inverseDocumentFrequencies(df)
	v.fitted = true
	return nil
}
