// Package embedding turns record, receipt and policy text into vectors.
package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/shinsa/internal/config"
	"github.com/hyperjump/shinsa/internal/llm"
)

// Embedder produces vector embeddings for text. EmbedBatch returns one vector per
// input text, in input order; a failure fails the whole batch.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the configured embedder wrapped in an LRU cache.
func New(ctx context.Context, cfg *config.EmbeddingConfig) (Embedder, error) {
	var e Embedder
	switch cfg.Provider {
	case "mock":
		e = NewMockEmbedder(cfg.Dimensions)
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		e = NewGeminiEmbedder(client.Models, cfg.Model, cfg.Dimensions)
	case "ollama", "openai", "azure":
		m, err := llm.NewLangChainLLM(llm.ProviderOptions{
			Provider:       cfg.Provider,
			Model:          cfg.Model,
			EmbeddingModel: cfg.Model,
			BaseURL:        cfg.BaseURL,
			APIKey:         cfg.APIKey,
			APIVersion:     cfg.APIVersion,
		})
		if err != nil {
			return nil, err
		}
		e = NewLLMEmbedder(m, cfg.Provider, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
	return NewCachedEmbedder(e, cfg.CacheSize), nil
}
