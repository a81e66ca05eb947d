package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Session guardrails
	MaxFilesPerUpload    int
	MaxFileSizeMB        int64
	MaxChunksTotal       int
	MaxQueriesPerSession int
	MinQuestionLength    int
	MinExtractedTextLen  int
	TopK                 int
	SessionIdleTTL       time.Duration

	// Provider selection and credentials
	AIProvider     string // "openai" (default), "google"
	OpenAIAPIKey   string
	GeminiAPIKey   string
	EmbeddingModel string
	ChatModel      string

	// Provider call behavior
	ProviderTimeout time.Duration
	EmbedWorkers    int
	ProviderRPM     int

	// HTTP rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTELEndpoint string
	OTELEnabled  bool
}

// LoadConfig resolves all configuration once at process start. Provider
// credentials are injected into the adapters from here; nothing else reads
// the environment.
func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),

		MaxFilesPerUpload:    getEnvInt("MAX_FILES_PER_UPLOAD", 3),
		MaxFileSizeMB:        getEnvInt64("MAX_FILE_SIZE_MB", 5),
		MaxChunksTotal:       getEnvInt("MAX_CHUNKS_TOTAL", 50),
		MaxQueriesPerSession: getEnvInt("MAX_QUERIES_PER_SESSION", 10),
		MinQuestionLength:    getEnvInt("MIN_QUESTION_LENGTH", 5),
		MinExtractedTextLen:  getEnvInt("MIN_EXTRACTED_TEXT_LEN", 50),
		TopK:                 getEnvInt("TOP_K", 3),
		SessionIdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),

		AIProvider:     getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", ""),
		ChatModel:      getEnv("CHAT_MODEL", ""),

		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		EmbedWorkers:    getEnvInt("EMBED_WORKERS", 4),
		ProviderRPM:     getEnvInt("PROVIDER_RPM", 60),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTELEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
	}

	applyModelDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fails fast on configuration that would break the pipeline at
// runtime. A non-positive chunk stride would make ingestion loop forever.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid configuration: CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("invalid configuration: CHUNK_OVERLAP must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d",
			c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("invalid configuration: TOP_K must be positive, got %d", c.TopK)
	}
	if c.EmbedWorkers <= 0 {
		return fmt.Errorf("invalid configuration: EMBED_WORKERS must be positive, got %d", c.EmbedWorkers)
	}
	switch c.AIProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("invalid configuration: missing OPENAI_API_KEY for provider %q", c.AIProvider)
		}
	case "google":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("invalid configuration: missing GEMINI_API_KEY for provider %q", c.AIProvider)
		}
	default:
		return fmt.Errorf("invalid configuration: unknown AI_PROVIDER %q", c.AIProvider)
	}
	return nil
}

func applyModelDefaults(c *Config) {
	if c.EmbeddingModel == "" {
		switch c.AIProvider {
		case "google":
			c.EmbeddingModel = "text-embedding-004"
		default:
			c.EmbeddingModel = "text-embedding-3-small"
		}
	}
	if c.ChatModel == "" {
		switch c.AIProvider {
		case "google":
			c.ChatModel = "gemini-2.0-flash"
		default:
			c.ChatModel = "gpt-4o-mini"
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// MaxFileSizeBytes returns the per-file upload cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}
