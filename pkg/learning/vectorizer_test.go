package learning

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestVectorizerFitVocabularyOrder(t *testing.T) {
	v := NewVectorizer(nil)

	vocab, df, err := v.Fit([]string{"gamma", "alpha gamma"})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	expected := []string{"gamma", "alpha", "alpha gamma"}
	if !reflect.DeepEqual(vocab.Terms(), expected) {
		t.Errorf("vocabulary = %v, expected %v", vocab.Terms(), expected)
	}
	if !reflect.DeepEqual(df.Counts, []int{2, 1, 1}) {
		t.Errorf("document frequencies = %v", df.Counts)
	}
	if df.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", df.Documents)
	}
}

func TestVectorizerVocabularyBound(t *testing.T) {
	v := NewVectorizer(&Config{MaxFeatures: 2})

	vocab, _, err := v.Fit([]string{"alpha beta gamma"})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if vocab.Len() != 2 {
		t.Fatalf("expected 2 terms, got %d", vocab.Len())
	}
	// equal frequencies keep first-encounter order
	if vocab.Term(0) != "alpha" || vocab.Term(1) != "beta" {
		t.Errorf("unexpected vocabulary: %v", vocab.Terms())
	}

	docs, _ := corpusOf(sampleExamples())
	for _, max := range []int{1, 10, 50, 1000} {
		v := NewVectorizer(&Config{MaxFeatures: max})
		vocab, _, err := v.Fit(docs)
		if err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		if vocab.Len() > max {
			t.Errorf("vocabulary size %d exceeds max_features %d", vocab.Len(), max)
		}
	}
}

func TestVectorizerFitErrors(t *testing.T) {
	v := NewVectorizer(nil)

	if _, _, err := v.Fit(nil); !errors.Is(err, ErrInvalidTrainingData) {
		t.Errorf("expected ErrInvalidTrainingData for empty corpus, got %v", err)
	}
	if _, _, err := v.Fit([]string{"the and of", "a"}); !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("expected ErrEmptyVocabulary, got %v", err)
	}
	if v.Fitted() {
		t.Error("vectorizer should not be fitted after failed fits")
	}
}

func TestVectorizerTransformNotFitted(t *testing.T) {
	v := NewVectorizer(nil)
	if _, err := v.Transform([]string{"hello"}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
}

func TestVectorizerTransformWeights(t *testing.T) {
	v := NewVectorizer(nil)
	if _, _, err := v.Fit([]string{"gamma", "alpha gamma"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	vecs, err := v.Transform([]string{"alpha alpha beta gamma"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	vec := vecs[0]

	// gamma appears in every training document, so its idf is zero
	if vec.At(0) != 0 {
		t.Errorf("expected zero weight for gamma, got %f", vec.At(0))
	}
	// alpha is the only remaining term and is normalized to one
	if math.Abs(vec.At(1)-1) > 1e-12 {
		t.Errorf("expected unit weight for alpha, got %f", vec.At(1))
	}
	if vec.Dim != 3 {
		t.Errorf("expected dimension 3, got %d", vec.Dim)
	}
}

func TestVectorizerNormalization(t *testing.T) {
	docs, _ := corpusOf(sampleExamples())
	v := NewVectorizer(nil)
	if _, _, err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	vecs, err := v.Transform(append(docs, "claim your prize now", "unrelated words only"))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for i, vec := range vecs {
		if vec.IsZero() {
			continue
		}
		if math.Abs(vec.L2Norm()-1) > 1e-9 {
			t.Errorf("vector %d has norm %f", i, vec.L2Norm())
		}
	}
}

func TestVectorizerDeterminism(t *testing.T) {
	docs, _ := corpusOf(sampleExamples())
	v := NewVectorizer(nil)
	if _, _, err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	doc := "Click here to verify your bank account details immediately"
	first, _ := v.TransformOne(doc)
	second, _ := v.TransformOne(doc)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("transform is not deterministic: %v vs %v", first, second)
	}
}

func TestVectorizerEmptyDocument(t *testing.T) {
	docs, _ := corpusOf(sampleExamples())
	v := NewVectorizer(nil)
	if _, _, err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	vec, err := v.TransformOne("")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !vec.IsZero() {
		t.Errorf("expected zero vector, got %v", vec)
	}
	if vec.Dim != v.Vocabulary().Len() {
		t.Errorf("zero vector has dimension %d, expected %d", vec.Dim, v.Vocabulary().Len())
	}
}
