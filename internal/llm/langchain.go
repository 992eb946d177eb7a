package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/shinsa/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// LangChainGenerator generates text with any langchaingo model (ollama, openai, azure).
type LangChainGenerator struct {
	model    llms.Model
	provider string
}

// NewLangChainGenerator wraps model. provider names it in errors and logs.
func NewLangChainGenerator(model llms.Model, provider string) *LangChainGenerator {
	return &LangChainGenerator{model: model, provider: provider}
}

// Generate sends prompt as a single human message.
func (g *LangChainGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, callOpts...)
	if err != nil {
		return "", &models.ExternalServiceError{Provider: g.provider, Op: "generate", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &models.ExternalServiceError{Provider: g.provider, Op: "generate", Err: errors.New("empty response")}
	}
	return text, nil
}
