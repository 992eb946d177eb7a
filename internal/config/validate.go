package config

import (
	"errors"
	"fmt"
)

var (
	validProviders = map[string]bool{"ollama": true, "openai": true, "azure": true, "gemini": true, "mock": true}
	validModes     = map[string]bool{"similarity": true, "generative": true}
	validBackends  = map[string]bool{"memory": true, "pgvector": true}
)

// Validate reports every problem in cfg at once. Call after ApplyDefaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, fmt.Errorf("embedding.provider %q is not supported", c.Embedding.Provider))
	}
	if !validProviders[c.LLM.Provider] {
		errs = append(errs, fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.Embedding.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must not be negative"))
	}
	for _, p := range []struct {
		name, provider, key, url string
	}{
		{"embedding", c.Embedding.Provider, c.Embedding.APIKey, c.Embedding.BaseURL},
		{"llm", c.LLM.Provider, c.LLM.APIKey, c.LLM.BaseURL},
	} {
		switch p.provider {
		case "openai", "gemini":
			if p.key == "" {
				errs = append(errs, fmt.Errorf("%s.api_key is required for provider %s", p.name, p.provider))
			}
		case "azure":
			if p.key == "" || p.url == "" {
				errs = append(errs, fmt.Errorf("%s.api_key and %s.base_url are required for provider azure", p.name, p.name))
			}
		}
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 1, got %g", c.LLM.Temperature))
	}
	if !validModes[c.Judge.Mode] {
		errs = append(errs, fmt.Errorf("judge.mode must be similarity or generative, got %q", c.Judge.Mode))
	}
	if t := c.Judge.ThresholdOrDefault(); t < -1 || t > 1 {
		errs = append(errs, fmt.Errorf("judge.threshold must be between -1 and 1, got %g", t))
	}
	if c.Audit.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("audit.concurrency must be positive"))
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap (%d) must be smaller than chunk_size (%d)", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize))
	}
	if !validBackends[c.Vector.Backend] {
		errs = append(errs, fmt.Errorf("vector.backend must be memory or pgvector, got %q", c.Vector.Backend))
	}
	if c.Vector.Backend == "pgvector" && c.Vector.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("vector.database_url is required for the pgvector backend"))
	}
	return errors.Join(errs...)
}
