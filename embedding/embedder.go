package embedding

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// ErrEmptyEmbedding is returned when a provider yields a zero-length vector.
var ErrEmptyEmbedding = errors.New("embedding provider returned an empty vector")

// Embedder derives a vector from text. Implementations must be deterministic
// for a given model and safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}

// HashEmbedder is a bag-of-words feature-hashing embedder. Each lower-cased
// token is hashed into one of Dim buckets with a hash-derived sign, and the
// result is L2-normalized so dot products behave like cosine similarity.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a HashEmbedder with dim buckets (256 when dim <= 0).
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{Dim: dim}
}

// Embed implements Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, h.Dim)
	for _, tok := range tokenize(text) {
		sum := xxhash.Sum64String(tok)
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1.0
		}
		vec[sum%uint64(h.Dim)] += sign
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
