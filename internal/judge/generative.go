package judge

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/shinsa/internal/llm"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/policy"
	"go.uber.org/zap"
)

const (
	defaultMaxTokens   = 300
	defaultTemperature = 0.1
)

// GenerativeJudge asks an LLM to audit the record against the policy text.
type GenerativeJudge struct {
	gen    llm.Generator
	opts   llm.Options
	topK   int
	logger *zap.Logger
}

// GenerativeOption configures a GenerativeJudge.
type GenerativeOption func(*GenerativeJudge)

// WithOptions sets generation options; zero values keep the defaults.
func WithOptions(o llm.Options) GenerativeOption {
	return func(j *GenerativeJudge) {
		if o.MaxTokens > 0 {
			j.opts.MaxTokens = o.MaxTokens
		}
		if o.Temperature > 0 {
			j.opts.Temperature = o.Temperature
		}
	}
}

// WithTopK limits the prompt to the k most relevant policy chunks; k <= 0 sends all.
func WithTopK(k int) GenerativeOption {
	return func(j *GenerativeJudge) { j.topK = k }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) GenerativeOption {
	return func(j *GenerativeJudge) {
		if l != nil {
			j.logger = l
		}
	}
}

// NewGenerativeJudge returns a judge backed by gen.
func NewGenerativeJudge(gen llm.Generator, opts ...GenerativeOption) *GenerativeJudge {
	j := &GenerativeJudge{
		gen:    gen,
		opts:   llm.Options{MaxTokens: defaultMaxTokens, Temperature: defaultTemperature},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Mode returns "generative".
func (j *GenerativeJudge) Mode() string { return ModeGenerative }

// Judge builds the audit prompt, calls the model and parses its label.
func (j *GenerativeJudge) Judge(ctx context.Context, pair models.MatchedPair, set *policy.Set) Decision {
	var policies []string
	if set != nil {
		var err error
		policies, err = set.Relevant(ctx, recordQuery(pair.Record), pair.Record.Embedding, j.topK)
		if err != nil {
			return errorDecision("policy retrieval failed: %v", err)
		}
	}
	prompt, err := BuildPrompt(pair, policies)
	if err != nil {
		return errorDecision("build prompt: %v", err)
	}

	text, err := j.gen.Generate(ctx, prompt, j.opts)
	if err != nil {
		j.logger.Debug("generation failed", zap.String("record_id", pair.Record.ID), zap.Error(err))
		return errorDecision("generation failed: %v", err)
	}
	text = strings.TrimSpace(text)
	res, err := ParseResult(text)
	if errors.Is(err, ErrUnrecognizedLabel) {
		j.logger.Debug("unrecognized label", zap.String("record_id", pair.Record.ID), zap.String("label", res.Label))
		return Decision{Compliance: models.Error, Explanation: text, Label: res.Label}
	}
	return Decision{Compliance: res.Compliance, Explanation: text, Label: res.Label}
}

func recordQuery(r models.ExpenseRecord) string {
	return strings.TrimSpace(r.Category + " " + r.Description)
}

var _ Judge = (*GenerativeJudge)(nil)
