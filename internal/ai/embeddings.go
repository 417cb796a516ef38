package ai

import (
	"context"
	"fmt"

	"cv-screening-platform/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// EmbedInput is one text to embed, keyed so the caller can correlate the
// returned vector with the row it came from regardless of batch order.
type EmbedInput struct {
	Key  string
	Text string
}

// Embedder produces embedding vectors for section and catalog texts.
// Default provider is Google Generative AI (text-embedding-004).
type Embedder struct {
	cfg    *config.Config
	client *genai.Client
}

func NewEmbedder(ctx context.Context, cfg *config.Config) (*Embedder, error) {
	switch cfg.EmbeddingsProvider {
	case "google", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		return &Embedder{cfg: cfg, client: client}, nil

	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}

// Embed returns an embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.cfg.GoogleEmbeddingsModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds all inputs in one API call and returns key -> vector.
// Inputs with empty text are filtered out before the call and simply absent
// from the result. A count mismatch between request and response fails the
// whole batch: partial correlation would silently attach vectors to the
// wrong keys.
func (e *Embedder) EmbedBatch(ctx context.Context, inputs []EmbedInput) (map[string][]float32, error) {
	keys := make([]string, 0, len(inputs))
	model := e.client.EmbeddingModel(e.cfg.GoogleEmbeddingsModel)
	batch := model.NewBatch()
	for _, in := range inputs {
		if in.Text == "" {
			continue
		}
		keys = append(keys, in.Key)
		batch = batch.AddContent(genai.Text(in.Text))
	}
	if len(keys) == 0 {
		return map[string][]float32{}, nil
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(keys) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(keys), len(resp.Embeddings))
	}

	vectors := make(map[string][]float32, len(keys))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("nil embedding at position %d", i)
		}
		vectors[keys[i]] = emb.Values
	}
	return vectors, nil
}

func (e *Embedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
