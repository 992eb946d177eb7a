package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/shinsa/internal/models"
	"google.golang.org/genai"
)

// GeminiModels is the subset of genai.Models used for generation.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates text with the Gemini API.
type GeminiGenerator struct {
	models GeminiModels
	model  string
}

// NewGeminiGenerator returns a generator calling model through m (typically client.Models).
func NewGeminiGenerator(m GeminiModels, model string) *GeminiGenerator {
	return &GeminiGenerator{models: m, model: model}
}

// Generate sends prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", &models.ExternalServiceError{Provider: "gemini", Op: "generate", Err: err}
	}
	if resp == nil {
		return "", &models.ExternalServiceError{Provider: "gemini", Op: "generate", Err: errors.New("nil response")}
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &models.ExternalServiceError{Provider: "gemini", Op: "generate", Err: errors.New("empty response")}
	}
	return text, nil
}
