package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/matching"
)

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0}, nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, inputs []ai.EmbedInput) (map[string][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

func TestEmbedSectionsToleratesFailure(t *testing.T) {
	svc := &IngestService{embedder: stubEmbedder{err: errors.New("quota exhausted")}}
	rows := []matching.SectionRow{{SectionID: "s1"}, {SectionID: "s2"}}

	vectors := svc.embedSections(context.Background(), primitive.NewObjectID(), rows, []string{"a", "b"})
	if vectors != nil {
		t.Fatalf("failed batch must yield no vectors, got %d", len(vectors))
	}

	// Pipeline continues with zero vectors rather than failing the candidate.
	count, err := svc.upsertSectionVectors(context.Background(), primitive.NewObjectID(), vectors)
	if err != nil {
		t.Fatalf("empty vector set must not error: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestEmbedSectionsKeyedBySectionID(t *testing.T) {
	svc := &IngestService{embedder: stubEmbedder{vectors: map[string][]float32{
		"s1": {1, 0},
		"s2": {0, 1},
	}}}
	rows := []matching.SectionRow{{SectionID: "s1"}, {SectionID: "s2"}}

	vectors := svc.embedSections(context.Background(), primitive.NewObjectID(), rows, []string{"a", "b"})
	if len(vectors) != 2 {
		t.Fatalf("vectors = %d, want 2", len(vectors))
	}
	if _, ok := vectors["s1"]; !ok {
		t.Fatal("vector for s1 missing")
	}
}

func TestReplaceSectionsIdempotent(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database("cv_screening_test")
	svc := &IngestService{
		sectionsCol: db.Collection("sections"),
		vectorsCol:  db.Collection("section_vectors"),
	}
	candidateID := primitive.NewObjectID()
	defer func() {
		svc.sectionsCol.DeleteMany(context.Background(), bson.M{"candidate_id": candidateID})
		svc.vectorsCol.DeleteMany(context.Background(), bson.M{"candidate_id": candidateID})
	}()

	first := []matching.SectionRow{{SectionID: "a1"}, {SectionID: "a2"}, {SectionID: "a3"}}
	if err := svc.replaceSections(ctx, candidateID, first); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// A redelivery builds fresh section IDs; the old set must be replaced,
	// not doubled.
	second := []matching.SectionRow{{SectionID: "b1"}, {SectionID: "b2"}}
	if err := svc.replaceSections(ctx, candidateID, second); err != nil {
		t.Fatalf("second insert failed: %v", err)
	}

	count, err := svc.sectionsCol.CountDocuments(ctx, bson.M{"candidate_id": candidateID})
	if err != nil {
		t.Fatal(err)
	}
	if count != int64(len(second)) {
		t.Fatalf("sections = %d after re-run, want %d", count, len(second))
	}
}
