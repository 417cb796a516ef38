package telemetry

import "testing"

func TestInitMetrics(t *testing.T) {
	m, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	m.RecordResumeIngested("completed")
	m.RecordExtraction(0.5, "poppler")
	m.RecordEmbeddingBatch(1.2, 8)
	m.RecordRanking(0.1, 3, false)
	m.RecordCircuitBreakerState("GeminiExtraction", "open")
}

func TestMetricsNilReceiver(t *testing.T) {
	// Components built without telemetry pass a nil *Metrics; every recorder
	// must be a no-op rather than a panic.
	var m *Metrics
	m.RecordRequest("GET", "/search/rank", "200", 0.01)
	m.RecordResumeIngested("failed")
	m.RecordExtraction(0.5, "plain-text")
	m.RecordEmbeddingBatch(1.2, 8)
	m.RecordRanking(0.1, 3, true)
	m.RecordCircuitBreakerState("GeminiExtraction", "half-open")
}
