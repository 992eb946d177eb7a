package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
judge:
  mode: generative
  threshold: 0.65
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Judge.Mode != "generative" {
		t.Errorf("judge mode: got %s, want generative", cfg.Judge.Mode)
	}
	if got := cfg.Judge.ThresholdOrDefault(); got != 0.65 {
		t.Errorf("threshold: got %v, want 0.65", got)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/reports.db"
policy:
  path: "./policies/travel.pdf"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "reports.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantPolicy := filepath.Join(dir, "policies", "travel.pdf")
	if cfg.Policy.Path != wantPolicy {
		t.Errorf("policy path = %s, want %s", cfg.Policy.Path, wantPolicy)
	}
}

func TestLoad_dotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SHINSA_LLM_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SHINSA_LLM_API_KEY") })
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "from-dotenv" {
		t.Errorf("api key: got %q, want from-dotenv", cfg.LLM.APIKey)
	}
}

func TestMergeEnv_azure(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "secret")
	cfg := &Config{LLM: LLMConfig{Provider: "azure"}}
	MergeEnv(cfg)
	if cfg.LLM.BaseURL != "https://example.openai.azure.com" || cfg.LLM.APIKey != "secret" {
		t.Errorf("azure llm config: got %+v", cfg.LLM)
	}
	if cfg.Embedding.APIKey != "" {
		t.Error("embedding key should stay empty for non-azure provider")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Judge.Mode != "similarity" {
		t.Errorf("default mode: got %s", cfg.Judge.Mode)
	}
	if cfg.Judge.ThresholdOrDefault() != 0.8 {
		t.Errorf("default threshold: got %v", cfg.Judge.ThresholdOrDefault())
	}
	if cfg.LLM.MaxTokens != 300 || cfg.LLM.Temperature != 0.1 {
		t.Errorf("default llm sampling: got max_tokens=%d temperature=%v", cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	}
	if cfg.Ingest.ChunkSize != 200 || cfg.Ingest.ChunkOverlap != 50 {
		t.Errorf("default chunking: got %d/%d", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Audit.Concurrency != 4 {
		t.Errorf("default concurrency: got %d", cfg.Audit.Concurrency)
	}
	if cfg.Vector.Backend != "memory" {
		t.Errorf("default vector backend: got %s", cfg.Vector.Backend)
	}
}

func TestJudgeConfig_ThresholdOrDefault(t *testing.T) {
	t.Run("nil_returns_default", func(t *testing.T) {
		j := &JudgeConfig{}
		if got := j.ThresholdOrDefault(); got != DefaultThreshold {
			t.Errorf("ThresholdOrDefault() = %v, want %v", got, DefaultThreshold)
		}
	})
	t.Run("explicit_zero", func(t *testing.T) {
		z := 0.0
		j := &JudgeConfig{Threshold: &z}
		if got := j.ThresholdOrDefault(); got != 0 {
			t.Errorf("ThresholdOrDefault() = %v, want 0", got)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.Judge.Mode = "vibes" }, "judge.mode"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "bard" }, "llm.provider"},
		{"openai needs key", func(c *Config) { c.LLM.Provider = "openai" }, "llm.api_key"},
		{"azure needs url", func(c *Config) { c.Embedding.Provider = "azure"; c.Embedding.APIKey = "k"; c.Embedding.BaseURL = "" }, "embedding.base_url"},
		{"overlap too large", func(c *Config) { c.Ingest.ChunkOverlap = 500 }, "chunk_overlap"},
		{"pgvector needs url", func(c *Config) { c.Vector.Backend = "pgvector" }, "database_url"},
		{"temperature range", func(c *Config) { c.LLM.Temperature = 1.5 }, "temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate: got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
