package policy

import (
	"sort"

	"github.com/hyperjump/shinsa/internal/vector"
)

// fusedChunk holds a chunk ID and its fused keyword/semantic scores.
type fusedChunk struct {
	ID            string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// normalizeKeywordScores scales keyword scores to [0,1] by the maximum.
func normalizeKeywordScores(hits []keywordHit) map[string]float64 {
	normalized := make(map[string]float64, len(hits))
	maxScore := 0.0
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	for _, h := range hits {
		if maxScore > 0 {
			normalized[h.ID] = h.Score / maxScore
		} else {
			normalized[h.ID] = 0
		}
	}
	return normalized
}

// semanticScores returns cosine scores by chunk ID.
func semanticScores(results []*vector.VectorResult) map[string]float64 {
	out := make(map[string]float64, len(results))
	for _, r := range results {
		out[r.ID] = r.Score
	}
	return out
}

// fuse merges keyword and semantic scores with weights. Ties are broken by
// order, which maps chunk ID to its position in the policy document.
func fuse(keywordScores, semantic map[string]float64, keywordWeight, semanticWeight float64, order map[string]int) []*fusedChunk {
	byID := make(map[string]*fusedChunk, len(keywordScores)+len(semantic))
	for id, s := range keywordScores {
		byID[id] = &fusedChunk{ID: id, KeywordScore: s}
	}
	for id, s := range semantic {
		if r, ok := byID[id]; ok {
			r.SemanticScore = s
		} else {
			byID[id] = &fusedChunk{ID: id, SemanticScore: s}
		}
	}
	results := make([]*fusedChunk, 0, len(byID))
	for _, r := range byID {
		r.Score = keywordWeight*r.KeywordScore + semanticWeight*r.SemanticScore
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return order[results[i].ID] < order[results[j].ID]
	})
	return results
}
