// Package policy holds the policy chunks a batch is judged against, with keyword and
// vector indices for retrieving the chunks most relevant to a record.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/vector"
	"go.uber.org/zap"
)

const (
	defaultKeywordWeight  = 0.3
	defaultSemanticWeight = 0.7
	minCandidates         = 20
)

// Set is an immutable, indexed collection of policy chunks. It is safe for
// concurrent use. Sets are reference counted: Retain adds a reference and each
// Close drops one; indices are released when the last reference is dropped.
type Set struct {
	source         string
	chunks         []models.PolicyChunk
	vectors        [][]float32
	order          map[string]int
	vectorIndex    vector.VectorIndex
	keywords       *keywordIndex
	keywordWeight  float64
	semanticWeight float64
	logger         *zap.Logger

	refs      atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Set.
type Option func(*Set)

// WithWeights sets the keyword and semantic weights used by Relevant.
func WithWeights(keyword, semantic float64) Option {
	return func(s *Set) {
		if keyword >= 0 && semantic >= 0 && keyword+semantic > 0 {
			s.keywordWeight = keyword
			s.semanticWeight = semantic
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Set) { s.logger = l }
}

// WithSource records where the policy came from (filename or path).
func WithSource(src string) Option {
	return func(s *Set) { s.source = src }
}

// NewSet indexes chunks. Every chunk must carry an embedding of the same length.
// factory may be nil, in which case an in-memory vector index is used.
func NewSet(ctx context.Context, chunks []models.PolicyChunk, factory *vector.Factory, opts ...Option) (*Set, error) {
	s := &Set{
		chunks:         chunks,
		vectors:        make([][]float32, len(chunks)),
		order:          make(map[string]int, len(chunks)),
		keywordWeight:  defaultKeywordWeight,
		semanticWeight: defaultSemanticWeight,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.refs.Store(1)

	ids := make([]string, len(chunks))
	dims := 0
	for i, ch := range chunks {
		if len(ch.Embedding) == 0 {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("policy chunk %d has no embedding", ch.Index)}
		}
		if dims == 0 {
			dims = len(ch.Embedding)
		} else if len(ch.Embedding) != dims {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("policy chunk %d has dimension %d, want %d", ch.Index, len(ch.Embedding), dims)}
		}
		if _, dup := s.order[ch.ID]; dup {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("duplicate policy chunk id %q", ch.ID)}
		}
		ids[i] = ch.ID
		s.vectors[i] = ch.Embedding
		s.order[ch.ID] = i
	}

	kw, err := newKeywordIndex()
	if err != nil {
		return nil, err
	}
	s.keywords = kw
	for _, ch := range chunks {
		if err := kw.add(ch.ID, ch.Text); err != nil {
			_ = kw.close()
			return nil, fmt.Errorf("index policy chunk %s: %w", ch.ID, err)
		}
	}

	if len(chunks) > 0 {
		if factory == nil {
			factory = &vector.Factory{Type: vector.IndexTypeMemory}
		}
		vi, err := factory.NewVectorIndex(dims)
		if err != nil {
			_ = kw.close()
			return nil, fmt.Errorf("create policy vector index: %w", err)
		}
		if err := vi.Add(ctx, ids, s.vectors); err != nil {
			_ = vi.Close()
			_ = kw.close()
			return nil, fmt.Errorf("index policy vectors: %w", err)
		}
		s.vectorIndex = vi
	}
	s.logger.Debug("policy set indexed",
		zap.String("source", s.source),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", dims))
	return s, nil
}

// Source returns the policy's filename or path.
func (s *Set) Source() string { return s.source }

// Len returns the number of chunks.
func (s *Set) Len() int { return len(s.chunks) }

// Chunks returns the chunks in document order. The slice must not be modified.
func (s *Set) Chunks() []models.PolicyChunk { return s.chunks }

// Vectors returns every chunk embedding in document order. The slice must not be modified.
func (s *Set) Vectors() [][]float32 { return s.vectors }

// Relevant returns the texts of the k chunks most relevant to a record, fusing
// keyword hits for query with vector hits for vec. k <= 0 returns every chunk in
// document order. Either query or vec may be empty.
func (s *Set) Relevant(ctx context.Context, query string, vec []float32, k int) ([]string, error) {
	if k <= 0 || k >= len(s.chunks) {
		return s.texts(), nil
	}
	candidates := k * 2
	if candidates < minCandidates {
		candidates = minCandidates
	}

	kwScores := map[string]float64{}
	if query != "" {
		hits, err := s.keywords.search(query, candidates)
		if err != nil {
			return nil, err
		}
		kwScores = normalizeKeywordScores(hits)
	}
	semScores := map[string]float64{}
	if vector.L2Norm(vec) > 0 && s.vectorIndex != nil {
		results, err := s.vectorIndex.Search(ctx, vec, candidates)
		if err != nil {
			return nil, fmt.Errorf("policy vector search: %w", err)
		}
		semScores = semanticScores(results)
	}

	fused := fuse(kwScores, semScores, s.keywordWeight, s.semanticWeight, s.order)
	out := make([]string, 0, k)
	for _, r := range fused {
		if len(out) == k {
			break
		}
		i, ok := s.order[r.ID]
		if !ok {
			continue
		}
		out = append(out, s.chunks[i].Text)
	}
	// Pad in document order when neither index found enough hits.
	if len(out) < k {
		seen := make(map[string]bool, len(fused))
		for _, r := range fused {
			seen[r.ID] = true
		}
		for _, ch := range s.chunks {
			if len(out) == k {
				break
			}
			if !seen[ch.ID] {
				out = append(out, ch.Text)
			}
		}
	}
	return out, nil
}

func (s *Set) texts() []string {
	out := make([]string, len(s.chunks))
	for i, ch := range s.chunks {
		out[i] = ch.Text
	}
	return out
}

// Retain adds a reference. Each Retain must be paired with a Close.
func (s *Set) Retain() *Set {
	s.refs.Add(1)
	return s
}

// Close drops a reference and releases the indices when none remain.
func (s *Set) Close() error {
	if s.refs.Add(-1) > 0 {
		return nil
	}
	s.closeOnce.Do(func() {
		var errs []error
		if s.vectorIndex != nil {
			errs = append(errs, s.vectorIndex.Close())
		}
		if s.keywords != nil {
			errs = append(errs, s.keywords.close())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
