package config

// DefaultThreshold is the similarity threshold used when none is configured.
const DefaultThreshold = 0.8

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 300
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shinsa/data/reports.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "gemini":
			cfg.Embedding.Model = "text-embedding-004"
		case "openai", "azure":
			cfg.Embedding.Model = "text-embedding-3-small"
		default:
			cfg.Embedding.Model = "nomic-embed-text:latest"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case "gemini":
			cfg.Embedding.Dimensions = 768
		case "openai", "azure":
			cfg.Embedding.Dimensions = 1536
		case "mock":
			cfg.Embedding.Dimensions = 256
		default:
			cfg.Embedding.Dimensions = 768
		}
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.Model = "gemini-2.0-flash"
		case "openai", "azure":
			cfg.LLM.Model = "gpt-4o-mini"
		default:
			cfg.LLM.Model = "mistral"
		}
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.Provider == "ollama" && cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434"
	}
	if cfg.LLM.Provider == "azure" && cfg.LLM.APIVersion == "" {
		cfg.LLM.APIVersion = "2024-02-01"
	}
	if cfg.Embedding.Provider == "azure" && cfg.Embedding.APIVersion == "" {
		cfg.Embedding.APIVersion = "2024-02-01"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 300
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.LLM.RequestsPerSecond == 0 {
		cfg.LLM.RequestsPerSecond = 5
	}
	if cfg.LLM.Burst == 0 {
		cfg.LLM.Burst = 1
	}
	if cfg.Judge.Mode == "" {
		cfg.Judge.Mode = "similarity"
	}
	if cfg.Audit.Concurrency == 0 {
		cfg.Audit.Concurrency = 4
	}
	if cfg.Audit.RecordTimeoutSeconds == 0 {
		cfg.Audit.RecordTimeoutSeconds = 60
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 200
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 50
	}
	if cfg.Policy.KeywordWeight == 0 && cfg.Policy.SemanticWeight == 0 {
		cfg.Policy.KeywordWeight = 0.3
		cfg.Policy.SemanticWeight = 0.7
	}
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = "memory"
	}
	if cfg.Vector.Table == "" {
		cfg.Vector.Table = "policy_vectors"
	}
}
