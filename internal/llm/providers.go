package llm

import (
	"context"
	"fmt"

	"github.com/hyperjump/shinsa/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"
)

// LangChainLLM is a langchaingo client that can both generate and embed.
type LangChainLLM interface {
	llms.Model
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderOptions describe one langchaingo-backed provider.
type ProviderOptions struct {
	Provider       string // ollama, openai, azure
	Model          string
	EmbeddingModel string
	BaseURL        string
	APIKey         string
	APIVersion     string
}

// NewLangChainLLM builds the langchaingo client for opts.Provider.
func NewLangChainLLM(opts ProviderOptions) (LangChainLLM, error) {
	switch opts.Provider {
	case "ollama":
		o := []ollama.Option{ollama.WithModel(opts.Model)}
		if opts.BaseURL != "" {
			o = append(o, ollama.WithServerURL(opts.BaseURL))
		}
		m, err := ollama.New(o...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		return m, nil
	case "openai", "azure":
		o := []openai.Option{openai.WithToken(opts.APIKey), openai.WithModel(opts.Model)}
		if opts.EmbeddingModel != "" {
			o = append(o, openai.WithEmbeddingModel(opts.EmbeddingModel))
		}
		if opts.BaseURL != "" {
			o = append(o, openai.WithBaseURL(opts.BaseURL))
		}
		if opts.Provider == "azure" {
			o = append(o, openai.WithAPIType(openai.APITypeAzure), openai.WithAPIVersion(opts.APIVersion))
		}
		m, err := openai.New(o...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", opts.Provider, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported langchain provider %q", opts.Provider)
	}
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// New builds the configured Generator, rate limited when requests_per_second is positive.
func New(ctx context.Context, cfg *config.LLMConfig) (Generator, error) {
	var g Generator
	switch cfg.Provider {
	case "mock":
		g = &MockGenerator{}
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		g = NewGeminiGenerator(client.Models, cfg.Model)
	default:
		m, err := NewLangChainLLM(ProviderOptions{
			Provider:   cfg.Provider,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			APIVersion: cfg.APIVersion,
		})
		if err != nil {
			return nil, err
		}
		g = NewLangChainGenerator(m, cfg.Provider)
	}
	if cfg.RequestsPerSecond > 0 {
		g = NewRateLimited(g, cfg.RequestsPerSecond, cfg.Burst)
	}
	return g, nil
}
