package learning

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns a document into unigram and bigram tokens
type Tokenizer struct {
	minLength int
	maxNGram  int
	stopWords map[string]struct{}
}

// NewTokenizer creates a tokenizer with the English stop-word list
func NewTokenizer(config *Config) *Tokenizer {
	config = config.withDefaults()
	return &Tokenizer{
		minLength: config.MinTokenLength,
		maxNGram:  config.MaxNGram,
		stopWords: englishStopWords,
	}
}

// Words returns the normalized words of text in order, with stop words and
// words shorter than the minimum length removed.
func (t *Tokenizer) Words(text string) []string {
	// cases.Caser keeps state, so it is not shared between calls
	text = cases.Lower(language.Und).String(norm.NFKC.String(text))

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < t.minLength {
			continue
		}
		if t.isStopWord(f) {
			continue
		}
		words = append(words, f)
	}
	return words
}

// Tokens returns every unigram followed by every bigram of text. Bigrams
// join adjacent surviving words with a single space.
func (t *Tokenizer) Tokens(text string) []string {
	words := t.Words(text)
	if len(words) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(words)*t.maxNGram)
	tokens = append(tokens, words...)

	for n := 2; n <= t.maxNGram; n++ {
		for i := 0; i+n <= len(words); i++ {
			tokens = append(tokens, strings.Join(words[i:i+n], " "))
		}
	}
	return tokens
}

// isStopWord reports whether a lowercased word is in the stop-word list
func (t *Tokenizer) isStopWord(word string) bool {
	_, ok := t.stopWords[word]
	return ok
}
