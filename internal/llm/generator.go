// Package llm provides text-generation providers used by the generative compliance judge.
package llm

import "context"

// Options bound one generation call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Generator turns a prompt into text. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
