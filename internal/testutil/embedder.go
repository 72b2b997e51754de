package testutil

import (
	"context"
	"strings"
)

// KeywordEmbedder is a deterministic embedder for routing tests. Component i
// of a vector counts occurrences of Keywords[i] in the lowercased text, so
// tests can reason about which descriptor a query matches.
type KeywordEmbedder struct {
	Keywords []string
	// Fail lists texts (exact match) for which Embed returns an error.
	Fail map[string]bool
}

// NewKeywordEmbedder returns a KeywordEmbedder over keywords.
func NewKeywordEmbedder(keywords ...string) *KeywordEmbedder {
	return &KeywordEmbedder{Keywords: keywords, Fail: map[string]bool{}}
}

// Embed implements embedding.Embedder.
func (k *KeywordEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if k.Fail[text] {
		return nil, ErrEmbedFailed
	}
	lower := strings.ToLower(text)
	vec := make([]float64, len(k.Keywords))
	for i, kw := range k.Keywords {
		vec[i] = float64(strings.Count(lower, strings.ToLower(kw)))
	}
	return vec, nil
}
