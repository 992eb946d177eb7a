package embedding

import (
	"context"
	"fmt"
)

// CachedEmbedder serves repeated texts from an LRU cache and forwards misses.
type CachedEmbedder struct {
	inner Embedder
	cache *EmbeddingCache
}

// NewCachedEmbedder wraps inner with a cache of the given capacity.
// A capacity of zero or less disables caching and returns inner's results directly.
func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	var c *EmbeddingCache
	if capacity > 0 {
		c = NewEmbeddingCache(capacity)
	}
	return &CachedEmbedder{inner: inner, cache: c}
}

// Embed returns the cached embedding for text or computes and stores it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(text); ok {
			return v, nil
		}
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(text, v)
	}
	return v, nil
}

// EmbedBatch embeds only the texts missing from the cache, in one inner call.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.cache == nil {
		return c.inner.EmbedBatch(ctx, texts)
	}
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	embs, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(embs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embs), len(missing))
	}
	for j, v := range embs {
		out[missingIdx[j]] = v
		c.cache.Set(missing[j], v)
	}
	return out, nil
}

// Stats returns cache hits and misses; zero when caching is disabled.
func (c *CachedEmbedder) Stats() (hits, misses uint64) {
	if c.cache == nil {
		return 0, 0
	}
	return c.cache.Stats()
}

// Dimensions returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the wrapped embedder.
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}
