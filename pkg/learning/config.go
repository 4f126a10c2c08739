package learning

// Config holds vectorizer and explanation settings
type Config struct {
	// Vocabulary
	MaxFeatures    int `json:"max_features"`
	MinTokenLength int `json:"min_token_length"`
	MaxNGram       int `json:"max_ngram"`

	// Explanation
	TopIndicators int `json:"top_indicators"`
}

// DefaultConfig returns default learning configuration
func DefaultConfig() *Config {
	return &Config{
		MaxFeatures:    1000,
		MinTokenLength: 2,
		MaxNGram:       2,
		TopIndicators:  5,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.MaxFeatures <= 0 {
		out.MaxFeatures = def.MaxFeatures
	}
	if out.MinTokenLength <= 0 {
		out.MinTokenLength = def.MinTokenLength
	}
	if out.MaxNGram <= 0 {
		out.MaxNGram = def.MaxNGram
	}
	if out.TopIndicators <= 0 {
		out.TopIndicators = def.TopIndicators
	}
	return &out
}
