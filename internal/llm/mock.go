package llm

import "context"

// MockResponse is what MockGenerator returns when no function is set.
const MockResponse = "Compliant: no policy violations detected (mock provider)"

// MockGenerator is a deterministic generator for tests and offline runs.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, opts Options) (string, error)
}

// Generate calls GenerateFunc when set, otherwise returns MockResponse.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return MockResponse, nil
}
