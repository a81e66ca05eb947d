package ai

import (
	"context"
	"fmt"
	"strings"

	"invoice-qa-platform/internal/config"
	"invoice-qa-platform/internal/telemetry"
)

// Embedder converts text into a fixed-length vector. Implementations
// normalize the input (newlines collapsed to spaces) before calling the
// remote provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Completer calls a remote chat-completion function. Temperature 0 requests
// deterministic sampling.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// Provider bundles both remote functions of one vendor.
type Provider interface {
	Embedder
	Completer
	Name() string
	Close() error
}

// NewProvider builds the configured provider with credentials injected from
// the resolved configuration.
func NewProvider(cfg *config.Config, metrics *telemetry.Metrics) (Provider, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "openai":
		return NewOpenAIProvider(cfg, metrics)
	case "google":
		return NewGeminiProvider(cfg, metrics)
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.AIProvider)
	}
}

// normalizeInput collapses newlines to spaces before embedding, matching the
// embedding model's expected input shape.
func normalizeInput(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}
