package embedding

import (
	"container/list"
	"sync"
)

// EmbeddingCache is a bounded LRU of embeddings keyed by the embedded text.
// Vectors are copied in and out so callers may modify what they get back.
type EmbeddingCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	items    map[string]*list.Element
	hits     uint64
	misses   uint64
}

type cached struct {
	text string
	vec  []float32
}

// NewEmbeddingCache creates a cache holding at most capacity vectors (at least 1).
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: max(capacity, 1),
		order:    list.New(),
		items:    make(map[string]*list.Element, max(capacity, 1)),
	}
}

// Get returns a copy of the vector cached for text.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[text]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return append([]float32(nil), el.Value.(*cached).vec...), true
}

// Set caches a copy of vec for text, evicting the least recently used entry when full.
func (c *EmbeddingCache) Set(text string, vec []float32) {
	vec = append([]float32(nil), vec...)
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[text]; ok {
		el.Value.(*cached).vec = vec
		c.order.MoveToFront(el)
		return
	}
	c.items[text] = c.order.PushFront(&cached{text: text, vec: vec})
	for c.order.Len() > c.capacity {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*cached).text)
	}
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts since creation.
func (c *EmbeddingCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
