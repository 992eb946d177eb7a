package vector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VectorIndex holds the embeddings of one policy set and answers
// nearest-chunk queries by cosine similarity.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Size() int
	Type() string
	Close() error
}

// VectorResult is one search hit; ID is the policy chunk ID.
type VectorResult struct {
	ID    string
	Score float64 // cosine similarity in [-1, 1]
}

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search.
	IndexTypeMemory IndexType = "memory"
	// IndexTypePgVector stores vectors in Postgres with the pgvector extension.
	IndexTypePgVector IndexType = "pgvector"
)

// Factory creates one vector index per policy set.
type Factory struct {
	Type  IndexType
	Pool  *pgxpool.Pool // required for pgvector
	Table string
}

// NewVectorIndex creates a vector index of the configured type.
// Supported types: "memory" (default), "pgvector".
func (f *Factory) NewVectorIndex(dimensions int) (VectorIndex, error) {
	switch f.Type {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypePgVector:
		return NewPgVectorIndex(f.Pool, f.Table, dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, pgvector)", f.Type)
	}
}
