package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	ChunksIngested      metric.Int64Counter
	QueriesAnswered     metric.Int64Counter
	ProviderCallTime    metric.Float64Histogram
	PDFProcessingTime   metric.Float64Histogram
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("invoice-qa-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIngested, err := meter.Int64Counter(
		"ingest.chunks.total",
		metric.WithDescription("Total chunks committed to session indexes"),
	)
	if err != nil {
		return nil, err
	}

	queriesAnswered, err := meter.Int64Counter(
		"qa.queries.total",
		metric.WithDescription("Total accepted questions"),
	)
	if err != nil {
		return nil, err
	}

	providerCallTime, err := meter.Float64Histogram(
		"provider.call.duration",
		metric.WithDescription("Remote provider call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pdfProcessingTime, err := meter.Float64Histogram(
		"pdf.processing.duration",
		metric.WithDescription("PDF extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		ChunksIngested:      chunksIngested,
		QueriesAnswered:     queriesAnswered,
		ProviderCallTime:    providerCallTime,
		PDFProcessingTime:   pdfProcessingTime,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordChunksIngested records chunks committed by a successful ingestion batch
func (m *Metrics) RecordChunksIngested(count int64, provider string) {
	m.ChunksIngested.Add(context.Background(), count,
		metric.WithAttributes(attribute.String("ai.provider", provider)))
}

// RecordQuery records an accepted question
func (m *Metrics) RecordQuery(provider string) {
	m.QueriesAnswered.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("ai.provider", provider)))
}

// RecordProviderCall records a remote provider call duration
func (m *Metrics) RecordProviderCall(kind, provider string, duration float64, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("call.kind", kind),
		attribute.String("ai.provider", provider),
		attribute.Bool("call.success", success),
	}

	m.ProviderCallTime.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordPDFProcessing records PDF extraction metrics
func (m *Metrics) RecordPDFProcessing(duration float64, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("pdf.status", status),
		attribute.String("service", "pdf_extractor"),
	}

	m.PDFProcessingTime.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
