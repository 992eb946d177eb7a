package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/shinsa/internal/models"
)

// EmbeddingClient is the embedding half of a langchaingo LLM (ollama.LLM, openai.LLM).
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMEmbedder adapts a langchaingo embedding client to Embedder.
type LLMEmbedder struct {
	client     EmbeddingClient
	provider   string
	dimensions int
}

// NewLLMEmbedder wraps client. dimensions is the expected vector size; 0 skips the check.
func NewLLMEmbedder(client EmbeddingClient, provider string, dimensions int) *LLMEmbedder {
	return &LLMEmbedder{client: client, provider: provider, dimensions: dimensions}
}

// Embed embeds a single text.
func (e *LLMEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embs[0], nil
}

// EmbedBatch embeds texts in one provider call.
func (e *LLMEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	embs, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, &models.ExternalServiceError{Provider: e.provider, Op: "embed", Err: err}
	}
	if len(embs) != len(texts) {
		return nil, &models.ExternalServiceError{
			Provider: e.provider,
			Op:       "embed",
			Err:      fmt.Errorf("got %d embeddings for %d texts", len(embs), len(texts)),
		}
	}
	if e.dimensions > 0 {
		for i, v := range embs {
			if len(v) != e.dimensions {
				return nil, &models.InvalidInputError{
					Reason: fmt.Sprintf("embedding %d has dimension %d, expected %d", i, len(v), e.dimensions),
				}
			}
		}
	}
	return embs, nil
}

// Dimensions returns the configured embedding dimension.
func (e *LLMEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; langchaingo clients hold no resources.
func (e *LLMEmbedder) Close() error {
	return nil
}
