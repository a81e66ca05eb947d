package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking defaults = %d/%d, want 500/50", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.MaxFilesPerUpload != 3 || cfg.MaxFileSizeMB != 5 || cfg.MaxChunksTotal != 50 {
		t.Errorf("ingest guardrail defaults = %d/%d/%d, want 3/5/50",
			cfg.MaxFilesPerUpload, cfg.MaxFileSizeMB, cfg.MaxChunksTotal)
	}
	if cfg.MaxQueriesPerSession != 10 || cfg.MinQuestionLength != 5 || cfg.TopK != 3 {
		t.Errorf("query defaults = %d/%d/%d, want 10/5/3",
			cfg.MaxQueriesPerSession, cfg.MinQuestionLength, cfg.TopK)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Errorf("SessionIdleTTL = %v, want 30m", cfg.SessionIdleTTL)
	}
	if cfg.AIProvider != "openai" {
		t.Errorf("AIProvider = %q, want openai", cfg.AIProvider)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" || cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("model defaults = %q/%q", cfg.EmbeddingModel, cfg.ChatModel)
	}
	if got := cfg.MaxFileSizeBytes(); got != 5*1024*1024 {
		t.Errorf("MaxFileSizeBytes = %d", got)
	}
}

func TestLoadConfigGoogleModelDefaults(t *testing.T) {
	t.Setenv("AI_PROVIDER", "google")
	t.Setenv("GEMINI_API_KEY", "fake-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.EmbeddingModel != "text-embedding-004" || cfg.ChatModel != "gemini-2.0-flash" {
		t.Errorf("google model defaults = %q/%q", cfg.EmbeddingModel, cfg.ChatModel)
	}
}

func TestLoadConfigRejectsMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
}

func TestValidateRejectsBadChunking(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantMsg string
	}{
		{"zero size", 0, 0, "CHUNK_SIZE"},
		{"negative overlap", 500, -1, "CHUNK_OVERLAP"},
		{"overlap equals size", 500, 500, "CHUNK_OVERLAP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ChunkSize:    tt.size,
				ChunkOverlap: tt.overlap,
				TopK:         3,
				EmbedWorkers: 4,
				AIProvider:   "openai",
				OpenAIAPIKey: "sk-test",
			}
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %s", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := &Config{
		ChunkSize:    500,
		ChunkOverlap: 50,
		TopK:         3,
		EmbedWorkers: 4,
		AIProvider:   "anthropic",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("CHUNK_OVERLAP", "100")
	t.Setenv("SESSION_IDLE_TTL", "10m")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-large")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ChunkSize != 800 || cfg.ChunkOverlap != 100 {
		t.Errorf("overrides not applied: %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.SessionIdleTTL != 10*time.Minute {
		t.Errorf("SessionIdleTTL = %v, want 10m", cfg.SessionIdleTTL)
	}
	if cfg.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("EmbeddingModel override not applied: %q", cfg.EmbeddingModel)
	}
}
