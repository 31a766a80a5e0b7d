package embedder

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// Cached wraps a Provider with a ristretto cache for single-text embeddings.
// Retrieval embeds the same observation repeatedly (reflection topics, repeated
// questions), so Embed results are cached by text. EmbedBatch passes through.
type Cached struct {
	Provider
	cache *ristretto.Cache
}

// NewCached creates a cache holding up to maxEntries query vectors.
func NewCached(p Provider, maxEntries int64) (*Cached, error) {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder cache: %w", err)
	}
	return &Cached{Provider: p, cache: cache}, nil
}

// Embed returns a cached vector when present, otherwise embeds and caches it.
func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float64); ok {
			return vec, nil
		}
	}
	vec, err := c.Provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, 1)
	return vec, nil
}

// Wait blocks until buffered cache writes are applied.
func (c *Cached) Wait() {
	c.cache.Wait()
}

// Close closes the cache and the wrapped provider.
func (c *Cached) Close() error {
	c.cache.Close()
	return c.Provider.Close()
}
