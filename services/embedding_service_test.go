package services

import (
	"context"
	"os"
	"testing"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/config"
)

func TestEmbedderRoundTrip(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("config load failed: %v", err)
	}

	embedder, err := ai.NewEmbedder(context.Background(), cfg)
	if err != nil {
		t.Fatalf("embedder init failed: %v", err)
	}
	defer embedder.Close()

	vec, err := embedder.Embed(context.Background(), "distributed systems engineer")
	if err != nil {
		t.Fatalf("embedding error: %v", err)
	}
	if len(vec) == 0 {
		t.Fatalf("empty embedding")
	}

	vectors, err := embedder.EmbedBatch(context.Background(), []ai.EmbedInput{
		{Key: "a", Text: "Python"},
		{Key: "b", Text: ""},
		{Key: "c", Text: "SQL"},
	})
	if err != nil {
		t.Fatalf("batch embedding error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors (empty text filtered), got %d", len(vectors))
	}
	if _, ok := vectors["b"]; ok {
		t.Fatalf("empty text must not produce a vector")
	}
}
