package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/shinsa/internal/models"
	"google.golang.org/genai"
)

// GeminiModels is the subset of genai.Models used for embeddings.
type GeminiModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder produces embeddings with the Gemini API.
type GeminiEmbedder struct {
	models     GeminiModels
	model      string
	dimensions int
}

// NewGeminiEmbedder returns an embedder calling model through m (typically client.Models).
func NewGeminiEmbedder(m GeminiModels, model string, dimensions int) *GeminiEmbedder {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{models: m, model: model, dimensions: dimensions}
}

// Embed embeds a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embs[0], nil
}

// EmbedBatch embeds texts in one request.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := e.models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, &models.ExternalServiceError{Provider: "gemini", Op: "embed", Err: err}
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, &models.ExternalServiceError{
			Provider: "gemini",
			Op:       "embed",
			Err:      fmt.Errorf("got %d embeddings for %d texts", got, len(texts)),
		}
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, &models.ExternalServiceError{Provider: "gemini", Op: "embed", Err: fmt.Errorf("empty embedding %d", i)}
		}
		if e.dimensions > 0 && len(emb.Values) != e.dimensions {
			return nil, &models.InvalidInputError{
				Reason: fmt.Sprintf("embedding %d has dimension %d, expected %d", i, len(emb.Values), e.dimensions),
			}
		}
		out[i] = emb.Values
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *GeminiEmbedder) Close() error {
	return nil
}
