package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memoryEntry struct {
	id  string
	vec []float32 // unit length, or all zeros
}

// MemoryIndex scores every stored vector per query. Vectors are normalized on
// insert so a search is one inner product per chunk. Equal scores keep insertion
// order, which is document order for a policy set.
type MemoryIndex struct {
	dimensions int
	mu         sync.RWMutex
	entries    []memoryEntry
	byID       map[string]int
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &MemoryIndex{dimensions: dimensions, byID: make(map[string]int)}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string { return string(IndexTypeMemory) }

// Add stores vectors under ids. Re-adding an id replaces its vector in place.
// The batch is validated before anything is stored.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("vector %q dimension mismatch: got %d, expected %d", ids[i], len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := append([]float32(nil), vectors[i]...)
		Normalize(vec)
		if at, ok := m.byID[id]; ok {
			m.entries[at].vec = vec
			continue
		}
		m.byID[id] = len(m.entries)
		m.entries = append(m.entries, memoryEntry{id: id, vec: vec})
	}
	return nil
}

// Search returns up to k hits, best first.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	q := append([]float32(nil), query...)
	if !Normalize(q) {
		return nil, fmt.Errorf("query vector has zero norm")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}
	results := make([]*VectorResult, len(m.entries))
	for i, e := range m.entries {
		results[i] = &VectorResult{ID: e.id, Score: clamp(InnerProduct(q, e.vec))}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results[:min(k, len(results))], nil
}

// Size returns the number of stored vectors.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close releases the stored vectors.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.byID = make(map[string]int)
	return nil
}
