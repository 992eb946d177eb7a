package vector

import (
	"context"
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PgVectorIndex stores vectors in a Postgres table with the pgvector extension.
// Every index instance writes under its own namespace so concurrent batches
// sharing one table never see each other's chunks. Close removes the namespace.
type PgVectorIndex struct {
	pool       *pgxpool.Pool
	table      string
	namespace  string
	dimensions int
	size       atomic.Int64
}

// EnsurePgVectorSchema creates the extension, table, and cosine index if missing.
func EnsurePgVectorSchema(ctx context.Context, pool *pgxpool.Pool, table string, dimensions int) error {
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding vector(%d),
			PRIMARY KEY (namespace, id)
		)`, table, dimensions)
	if _, err := pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`, table, table)
	if _, err := pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// NewPgVectorIndex returns an index bound to a fresh namespace in table.
// The schema must already exist (see EnsurePgVectorSchema).
func NewPgVectorIndex(pool *pgxpool.Pool, table string, dimensions int) (*PgVectorIndex, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgvector index requires a connection pool")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PgVectorIndex{
		pool:       pool,
		table:      table,
		namespace:  uuid.New().String(),
		dimensions: dimensions,
	}, nil
}

// Type returns the index type identifier.
func (p *PgVectorIndex) Type() string {
	return string(IndexTypePgVector)
}

// Add inserts vectors in a single transaction.
func (p *PgVectorIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (namespace, id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, id) DO UPDATE SET embedding = EXCLUDED.embedding`, p.table)
	for i, id := range ids {
		if len(vectors[i]) != p.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), p.dimensions)
		}
		if _, err := tx.Exec(ctx, stmt, p.namespace, id, pgvector.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert vector %s: %w", id, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.size.Add(int64(len(ids)))
	return nil
}

// Search returns the top-k vectors by cosine similarity (1 - cosine distance).
func (p *PgVectorIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != p.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), p.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`
		SELECT id, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE namespace = $2
		ORDER BY embedding <=> $1
		LIMIT $3`, p.table)
	rows, err := p.pool.Query(ctx, q, pgvector.NewVector(query), p.namespace, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var results []*VectorResult
	for rows.Next() {
		var r VectorResult
		if err := rows.Scan(&r.ID, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// Size returns the number of vectors added through this index.
func (p *PgVectorIndex) Size() int {
	return int(p.size.Load())
}

// Close deletes this index's namespace. The pool is owned by the caller.
func (p *PgVectorIndex) Close() error {
	_, err := p.pool.Exec(context.Background(),
		fmt.Sprintf("DELETE FROM %s WHERE namespace = $1", p.table), p.namespace)
	return err
}
