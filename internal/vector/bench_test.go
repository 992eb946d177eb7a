package vector

import (
	"context"
	"fmt"
	"testing"
)

func benchVectors(n, dims int) [][]float32 {
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = make([]float32, dims)
		vecs[i][0] = float32(i) / float32(n)
		vecs[i][i%dims] += 1
	}
	return vecs
}

func BenchmarkMaxCosine(b *testing.B) {
	refs := benchVectors(200, 768)
	query := benchVectors(1, 768)[0]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MaxCosine(query, refs)
	}
}

func BenchmarkMemoryIndexSearch(b *testing.B) {
	idx, _ := NewMemoryIndex(384)
	ctx := context.Background()
	vecs := benchVectors(1000, 384)
	ids := make([]string, len(vecs))
	for i := range ids {
		ids[i] = fmt.Sprintf("chunk-%d", i)
	}
	_ = idx.Add(ctx, ids, vecs)
	query := make([]float32, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, query, 10)
	}
}
