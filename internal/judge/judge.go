// Package judge decides compliance for records that passed the deterministic rules.
package judge

import (
	"context"
	"fmt"

	"github.com/hyperjump/shinsa/internal/config"
	"github.com/hyperjump/shinsa/internal/llm"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/policy"
	"go.uber.org/zap"
)

// Judge modes.
const (
	ModeSimilarity = "similarity"
	ModeGenerative = "generative"
)

// Decision is a judge's output for one pair.
type Decision struct {
	Compliance        models.Compliance
	Explanation       string
	Label             string
	SimilarityRecord  *float64
	SimilarityReceipt *float64
}

// Judge decides compliance for a matched pair against a policy. Implementations
// never panic and never return an error: failures become Error decisions. They
// are safe for concurrent use and hold no per-record state.
type Judge interface {
	Judge(ctx context.Context, pair models.MatchedPair, set *policy.Set) Decision
	Mode() string
}

func errorDecision(format string, args ...any) Decision {
	return Decision{Compliance: models.Error, Explanation: fmt.Sprintf(format, args...)}
}

// New builds the judge for mode. gen is required for generative mode.
func New(mode string, cfg *config.Config, gen llm.Generator, logger *zap.Logger) (Judge, error) {
	switch mode {
	case ModeSimilarity, "":
		return NewSimilarityJudge(cfg.Judge.ThresholdOrDefault()), nil
	case ModeGenerative:
		if gen == nil {
			return nil, fmt.Errorf("generative judge needs an LLM provider")
		}
		return NewGenerativeJudge(gen,
			WithOptions(llm.Options{MaxTokens: cfg.LLM.MaxTokens, Temperature: cfg.LLM.Temperature}),
			WithTopK(cfg.Judge.PolicyTopK),
			WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("unknown judge mode %q (supported: %s, %s)", mode, ModeSimilarity, ModeGenerative)
	}
}
