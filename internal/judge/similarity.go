package judge

import (
	"context"

	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/policy"
	"github.com/hyperjump/shinsa/internal/vector"
)

// SimilarityJudge marks a record Compliant when its embedding is close enough to
// some policy chunk. The receipt score is reported but does not decide.
type SimilarityJudge struct {
	threshold float64
}

// NewSimilarityJudge returns a judge with the given cosine threshold.
func NewSimilarityJudge(threshold float64) *SimilarityJudge {
	return &SimilarityJudge{threshold: threshold}
}

// Mode returns "similarity".
func (j *SimilarityJudge) Mode() string { return ModeSimilarity }

// Threshold returns the cosine threshold.
func (j *SimilarityJudge) Threshold() float64 { return j.threshold }

// Judge scores the pair against every policy chunk.
func (j *SimilarityJudge) Judge(ctx context.Context, pair models.MatchedPair, set *policy.Set) Decision {
	rec := pair.Record
	if rec.EmbedError != "" {
		return errorDecision("record embedding failed: %s", rec.EmbedError)
	}
	if err := ctx.Err(); err != nil {
		return errorDecision("similarity check cancelled: %v", err)
	}
	var refs [][]float32
	if set != nil {
		refs = set.Vectors()
	}
	score, err := vector.MaxCosine(rec.Embedding, refs)
	if err != nil {
		return errorDecision("similarity check failed: %v", err)
	}

	d := Decision{SimilarityRecord: models.Float64Ptr(score)}
	if rc := pair.Receipt; rc != nil && len(rc.Embedding) > 0 {
		if rs, err := vector.MaxCosine(rc.Embedding, refs); err == nil {
			d.SimilarityReceipt = models.Float64Ptr(rs)
		}
	}
	if score >= j.threshold {
		d.Compliance = models.Compliant
		d.Explanation = "record similarity " + formatScore(score) + " meets threshold " + formatScore(j.threshold)
	} else {
		d.Compliance = models.NonCompliant
		d.Explanation = "record similarity " + formatScore(score) + " below threshold " + formatScore(j.threshold)
	}
	return d
}

var _ Judge = (*SimilarityJudge)(nil)
