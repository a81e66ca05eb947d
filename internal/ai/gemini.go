package ai

import (
	"context"
	"errors"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"invoice-qa-platform/internal/config"
	"invoice-qa-platform/internal/telemetry"
)

// GeminiProvider adapts Google Generative AI embeddings (text-embedding-004)
// and chat completion (gemini-2.0-flash).
type GeminiProvider struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
	timeout        time.Duration
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	metrics        *telemetry.Metrics
}

func NewGeminiProvider(cfg *config.Config, metrics *telemetry.Metrics) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	p := &GeminiProvider{
		client:         client,
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		timeout:        cfg.ProviderTimeout,
		rateLimiter:    newProviderLimiter(cfg.ProviderRPM),
		metrics:        metrics,
	}
	p.breaker = newProviderBreaker("GeminiAPI", metrics)
	return p, nil
}

func (p *GeminiProvider) Name() string { return "google" }

func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// Embed returns an embedding vector for the given text.
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	tracer := otel.Tracer("gemini-provider")
	ctx, span := tracer.Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", p.embeddingModel))

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, wrapError(OpEmbedding, p.Name(), classFromContext(ctx, ClassRateLimit, err), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	result, err := p.breaker.Execute(func() (interface{}, error) {
		model := p.client.EmbeddingModel(p.embeddingModel)
		resp, err := model.EmbedContent(callCtx, genai.Text(normalizeInput(text)))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, errors.New("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	p.recordCall("embed", time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		return nil, wrapError(OpEmbedding, p.Name(), p.classify(callCtx, err), err)
	}

	raw := result.([]float32)
	vector := make([]float64, len(raw))
	for i, v := range raw {
		vector[i] = float64(v)
	}
	span.SetAttributes(attribute.Int("gemini.embedding_dim", len(vector)))
	return vector, nil
}

// Complete generates an answer with the system instruction attached to the
// model and the user prompt as the single content part.
func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	tracer := otel.Tracer("gemini-provider")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", p.chatModel))

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", wrapError(OpSynthesis, p.Name(), classFromContext(ctx, ClassRateLimit, err), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	result, err := p.breaker.Execute(func() (interface{}, error) {
		model := p.client.GenerativeModel(p.chatModel)
		model.SetTemperature(temperature)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}

		resp, err := model.GenerateContent(callCtx, genai.Text(userPrompt))
		if err != nil {
			return nil, err
		}
		text := collectText(resp)
		if text == "" {
			return nil, errors.New("no completion returned")
		}
		return text, nil
	})
	p.recordCall("complete", time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		return "", wrapError(OpSynthesis, p.Name(), p.classify(callCtx, err), err)
	}

	return result.(string), nil
}

func (p *GeminiProvider) classify(ctx context.Context, err error) FailureClass {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ClassTransport
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return ClassAuth
		case 429:
			return ClassRateLimit
		}
	}
	return classFromContext(ctx, ClassTransport, err)
}

func (p *GeminiProvider) recordCall(kind string, d time.Duration, err error) {
	if p.metrics != nil {
		p.metrics.RecordProviderCall(kind, p.Name(), d.Seconds(), err == nil)
	}
}

func collectText(resp *genai.GenerateContentResponse) string {
	out := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	return out
}
