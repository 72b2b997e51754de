package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

var (
	// ErrEmptyIndex is returned by Query when no entry holds a valid embedding.
	ErrEmptyIndex = errors.New("embedding index is empty")

	// ErrDimensionMismatch is returned when a vector's length differs from the index's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Entry is one key/text pair to embed.
type Entry struct {
	Key  string
	Text string
}

// Match is the best-scoring key for a query.
type Match struct {
	Key   string
	Score float64
}

// Options configures an Index.
type Options struct {
	// QueryCacheSize bounds the LRU cache of query embeddings. Zero disables it.
	QueryCacheSize int
	// Concurrency bounds parallel provider calls in AddAll.
	Concurrency int
	Logger      logging.Logger
}

// Index stores one vector per key in registration order.
type Index struct {
	*core.LoggerAdapter
	embedder    Embedder
	concurrency int
	cache       *lru.Cache

	mu        sync.RWMutex
	keys      []string
	vectors   [][]float64
	positions map[string]int
	dim       int
}

// NewIndex creates an empty Index backed by embedder.
func NewIndex(embedder Embedder, optFns ...func(o *Options)) *Index {
	opts := Options{
		QueryCacheSize: 512,
		Concurrency:    4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	idx := &Index{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		embedder:      embedder,
		concurrency:   opts.Concurrency,
		positions:     make(map[string]int),
	}
	if idx.concurrency <= 0 {
		idx.concurrency = 1
	}
	if opts.QueryCacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		idx.cache, _ = lru.New(opts.QueryCacheSize)
	}
	return idx
}

// Add embeds text and stores the vector under key. If the provider fails the
// entry is omitted and the error returned; omitted entries never match. A
// key that was already registered is removed, not left on its old vector.
func (i *Index) Add(ctx context.Context, key, text string) error {
	vec, err := i.embed(ctx, text)
	if err != nil {
		i.LogError("Failed to generate embedding", "key", key, "error", err)
		i.Remove(key)
		return fmt.Errorf("embed %q: %w", key, err)
	}
	return i.AddVector(key, vec)
}

// AddAll embeds entries concurrently and inserts the successful ones in the
// order given, so tie-breaking follows entries order regardless of which
// provider call finished first. The returned error joins per-entry failures.
func (i *Index) AddAll(ctx context.Context, entries []Entry) (int, error) {
	vectors := make([][]float64, len(entries))
	errs := make([]error, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for n, e := range entries {
		g.Go(func() error {
			vec, err := i.embed(gctx, e.Text)
			if err != nil {
				errs[n] = fmt.Errorf("embed %q: %w", e.Key, err)
				return nil
			}
			vectors[n] = vec
			return nil
		})
	}
	_ = g.Wait()

	added := 0
	for n, e := range entries {
		if errs[n] != nil {
			i.LogError("Failed to generate embedding", "key", e.Key, "error", errs[n])
			i.Remove(e.Key)
			continue
		}
		if err := i.AddVector(e.Key, vectors[n]); err != nil {
			errs[n] = err
			continue
		}
		added++
	}
	return added, errors.Join(errs...)
}

// AddVector stores a precomputed vector under key. Re-adding an existing key
// replaces its vector but keeps its original position.
func (i *Index) AddVector(key string, vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("add %q: %w", key, ErrEmptyEmbedding)
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dim != 0 && len(vec) != i.dim {
		return fmt.Errorf("add %q: got %d, want %d: %w", key, len(vec), i.dim, ErrDimensionMismatch)
	}
	i.dim = len(vec)

	stored := append([]float64(nil), vec...)
	if pos, ok := i.positions[key]; ok {
		i.vectors[pos] = stored
		return nil
	}
	i.positions[key] = len(i.keys)
	i.keys = append(i.keys, key)
	i.vectors = append(i.vectors, stored)
	return nil
}

// Remove drops key from the index. The remaining keys keep their relative
// order. It reports whether key was present.
func (i *Index) Remove(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	pos, ok := i.positions[key]
	if !ok {
		return false
	}
	i.keys = append(i.keys[:pos], i.keys[pos+1:]...)
	i.vectors = append(i.vectors[:pos], i.vectors[pos+1:]...)
	delete(i.positions, key)
	for n := pos; n < len(i.keys); n++ {
		i.positions[i.keys[n]] = n
	}
	if len(i.keys) == 0 {
		i.dim = 0
	}
	return true
}

// Query embeds text and returns the key with maximal dot product. Exact ties
// resolve to the earliest registered key.
func (i *Index) Query(ctx context.Context, text string) (Match, error) {
	if i.Len() == 0 {
		return Match{}, ErrEmptyIndex
	}

	q, err := i.queryVector(ctx, text)
	if err != nil {
		return Match{}, fmt.Errorf("embed query: %w", err)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(q) != i.dim {
		return Match{}, fmt.Errorf("query has %d dimensions, index has %d: %w", len(q), i.dim, ErrDimensionMismatch)
	}

	best := -1
	var bestScore float64
	for n, vec := range i.vectors {
		score := Dot(vec, q)
		if best == -1 || score > bestScore {
			best, bestScore = n, score
		}
	}
	return Match{Key: i.keys[best], Score: bestScore}, nil
}

// Len returns the number of entries with a valid embedding.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.keys)
}

// Keys returns the registered keys in registration order.
func (i *Index) Keys() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]string(nil), i.keys...)
}

func (i *Index) queryVector(ctx context.Context, text string) ([]float64, error) {
	if i.cache != nil {
		if v, ok := i.cache.Get(text); ok {
			return v.([]float64), nil
		}
	}
	vec, err := i.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if i.cache != nil {
		i.cache.Add(text, vec)
	}
	return vec, nil
}

func (i *Index) embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return vec, nil
}

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b []float64) float64 {
	var sum float64
	for n := range a {
		sum += a[n] * b[n]
	}
	return sum
}
