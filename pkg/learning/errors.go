package learning

import "errors"

var (
	// ErrNotFitted is returned when transform, predict or explain is called
	// before the corresponding fit.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrInvalidTrainingData is returned for empty corpora, mismatched
	// vector/label counts and labels outside the two known classes.
	ErrInvalidTrainingData = errors.New("invalid training data")

	// ErrEmptyVocabulary is returned when fitting keeps no tokens at all.
	ErrEmptyVocabulary = errors.New("empty vocabulary")

	// ErrDimensionMismatch is returned when a vector does not match the
	// dimension the classifier was fitted with.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrMalformedVector is returned when a vector has out-of-range or
	// unordered indices, unequal index/value lengths or negative weights.
	ErrMalformedVector = errors.New("malformed vector")

	// ErrModelNotFound is returned by a ModelStore when no snapshot exists.
	ErrModelNotFound = errors.New("model not found")
)
