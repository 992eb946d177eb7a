// Package config provides configuration loading and structs for the shinsa server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Judge     JudgeConfig     `yaml:"judge"`
	Audit     AuditConfig     `yaml:"audit"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Policy    PolicyConfig    `yaml:"policy"`
	Vector    VectorConfig    `yaml:"vector"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	// RequestTimeoutSeconds bounds one compliance request end to end.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// StorageConfig holds the report database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // ollama, openai, azure, gemini, mock
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig selects and configures the text-generation provider.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // ollama, openai, azure, gemini, mock
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	APIVersion        string  `yaml:"api_version"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// JudgeConfig holds compliance judge settings.
type JudgeConfig struct {
	Mode      string   `yaml:"mode"` // similarity or generative
	Threshold *float64 `yaml:"threshold"`
	// PolicyTopK limits the policy chunks placed in the generative prompt; 0 sends all.
	PolicyTopK int `yaml:"policy_top_k"`
}

// ThresholdOrDefault returns the similarity threshold; defaults to 0.8 when unset.
func (j *JudgeConfig) ThresholdOrDefault() float64 {
	if j.Threshold != nil {
		return *j.Threshold
	}
	return DefaultThreshold
}

// AuditConfig holds batch evaluation settings.
type AuditConfig struct {
	Concurrency          int `yaml:"concurrency"`
	RecordTimeoutSeconds int `yaml:"record_timeout_seconds"`
}

// RecordTimeout returns the per-record timeout as a duration.
func (a *AuditConfig) RecordTimeout() time.Duration {
	return time.Duration(a.RecordTimeoutSeconds) * time.Second
}

// IngestConfig holds policy chunking settings (in words).
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// PolicyConfig holds the standing policy and retrieval settings.
type PolicyConfig struct {
	// Path is an optional policy document used when a request carries none.
	Path           string  `yaml:"path"`
	Watch          bool    `yaml:"watch"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
}

// VectorConfig selects the vector index backend for policy chunks.
type VectorConfig struct {
	Backend     string `yaml:"backend"` // memory or pgvector
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

// Load reads and parses the config file at path, expands paths, applies env overrides and defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	loadDotEnv(configDir)
	MergeEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Policy.Path != "" {
		cfg.Policy.Path = expandPath(cfg.Policy.Path, configDir)
	}

	return &cfg, nil
}

// Default returns a config with env overrides and defaults applied, for runs without a config file.
func Default() *Config {
	var cfg Config
	if cwd, err := os.Getwd(); err == nil {
		loadDotEnv(cwd)
	}
	MergeEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// loadDotEnv loads a .env file next to the config, if present. Existing env vars win.
func loadDotEnv(dir string) {
	p := filepath.Join(dir, ".env")
	if _, err := os.Stat(p); err == nil {
		_ = godotenv.Load(p)
	}
}

// MergeEnv overrides secrets and endpoints from the environment.
func MergeEnv(cfg *Config) {
	if v := os.Getenv("SHINSA_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("SHINSA_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("SHINSA_DATABASE_URL"); v != "" {
		cfg.Vector.DatabaseURL = v
	}
	if v := os.Getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
		if cfg.LLM.Provider == "azure" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = v
		}
		if cfg.Embedding.Provider == "azure" && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = v
		}
	}
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
		if cfg.LLM.Provider == "azure" && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
		if cfg.Embedding.Provider == "azure" && cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if cfg.LLM.Provider == "gemini" && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
		if cfg.Embedding.Provider == "gemini" && cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
