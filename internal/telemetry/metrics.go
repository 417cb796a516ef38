package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics records nothing, so
// callers that run without telemetry need no guards.
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	ResumesIngested     metric.Int64Counter
	ExtractionDuration  metric.Float64Histogram
	EmbeddingDuration   metric.Float64Histogram
	RankingDuration     metric.Float64Histogram
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("cv-screening-platform")

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

	resumesIngested, err := meter.Int64Counter(
		"resumes.ingested.total",
		metric.WithDescription("Total resumes ingested"),
	)
	if err != nil {
		return nil, err
	}

	extractionDuration, err := meter.Float64Histogram(
		"resume.extraction.duration",
		metric.WithDescription("Resume text extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingDuration, err := meter.Float64Histogram(
		"embedding.batch.duration",
		metric.WithDescription("Embedding batch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rankingDuration, err := meter.Float64Histogram(
		"ranking.duration",
		metric.WithDescription("Candidate ranking duration in seconds"),
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
		ResumesIngested:     resumesIngested,
		ExtractionDuration:  extractionDuration,
		EmbeddingDuration:   embeddingDuration,
		RankingDuration:     rankingDuration,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordResumeIngested records one ingested resume and its terminal status
func (m *Metrics) RecordResumeIngested(status string) {
	if m == nil {
		return
	}
	m.ResumesIngested.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("resume.status", status)))
}

// RecordExtraction records resume extraction metrics
func (m *Metrics) RecordExtraction(duration float64, method string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("extraction.method", method),
	}
	m.ExtractionDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordEmbeddingBatch records embedding batch metrics
func (m *Metrics) RecordEmbeddingBatch(duration float64, size int) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Int("embedding.batch_size", size),
	}
	m.EmbeddingDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordRanking records ranking metrics
func (m *Metrics) RecordRanking(duration float64, candidates int, cached bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Int("ranking.candidates", candidates),
		attribute.Bool("ranking.cached", cached),
	}
	m.RankingDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
