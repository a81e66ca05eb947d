package ai

import (
	"context"
	"errors"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"invoice-qa-platform/internal/config"
	"invoice-qa-platform/internal/logger"
	"invoice-qa-platform/internal/telemetry"
)

// OpenAIProvider adapts the OpenAI embeddings and chat-completion APIs. This
// is the provider the invoice QA flow was built against; models default to
// text-embedding-3-small and gpt-4o-mini.
type OpenAIProvider struct {
	client         *openai.Client
	embeddingModel string
	chatModel      string
	timeout        time.Duration
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	metrics        *telemetry.Metrics
}

func NewOpenAIProvider(cfg *config.Config, metrics *telemetry.Metrics) (*OpenAIProvider, error) {
	p := &OpenAIProvider{
		client:         openai.NewClient(cfg.OpenAIAPIKey),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		timeout:        cfg.ProviderTimeout,
		rateLimiter:    newProviderLimiter(cfg.ProviderRPM),
		metrics:        metrics,
	}
	p.breaker = newProviderBreaker("OpenAIAPI", metrics)
	return p, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Close() error { return nil }

// Embed returns an embedding vector for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	tracer := otel.Tracer("openai-provider")
	ctx, span := tracer.Start(ctx, "openai.embed")
	defer span.End()
	span.SetAttributes(attribute.String("openai.model", p.embeddingModel))

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, wrapError(OpEmbedding, p.Name(), classFromContext(ctx, ClassRateLimit, err), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	result, err := p.breaker.Execute(func() (interface{}, error) {
		resp, err := p.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
			Input: []string{normalizeInput(text)},
			Model: openai.EmbeddingModel(p.embeddingModel),
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, errors.New("no embedding returned")
		}
		return resp.Data[0].Embedding, nil
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
	span.SetAttributes(attribute.Int("openai.embedding_dim", len(vector)))
	return vector, nil
}

// Complete sends a system + user message pair to the chat completion API and
// returns the generated text verbatim.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	tracer := otel.Tracer("openai-provider")
	ctx, span := tracer.Start(ctx, "openai.complete")
	defer span.End()
	span.SetAttributes(attribute.String("openai.model", p.chatModel))

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", wrapError(OpSynthesis, p.Name(), classFromContext(ctx, ClassRateLimit, err), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// The SDK drops a zero temperature from the JSON body, so the API would
	// fall back to its default of 1. Smallest nonzero still samples greedily.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	result, err := p.breaker.Execute(func() (interface{}, error) {
		resp, err := p.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       p.chatModel,
			Temperature: temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("no completion returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
	p.recordCall("complete", time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		return "", wrapError(OpSynthesis, p.Name(), p.classify(callCtx, err), err)
	}

	return result.(string), nil
}

func (p *OpenAIProvider) classify(ctx context.Context, err error) FailureClass {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ClassTransport
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return ClassAuth
		case 429:
			return ClassRateLimit
		}
	}
	return classFromContext(ctx, ClassTransport, err)
}

func (p *OpenAIProvider) recordCall(kind string, d time.Duration, err error) {
	if p.metrics != nil {
		p.metrics.RecordProviderCall(kind, p.Name(), d.Seconds(), err == nil)
	}
}

// newProviderLimiter builds a client-side limiter from a requests-per-minute
// budget, with a small burst so batch ingestion is not serialized.
func newProviderLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		rpm = 60
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), burst)
}

// newProviderBreaker builds the shared circuit breaker configuration used by
// both provider adapters.
func newProviderBreaker(name string, metrics *telemetry.Metrics) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if metrics != nil {
				metrics.RecordCircuitBreakerState(name, to.String())
			}
		},
	})
}
