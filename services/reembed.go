package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/config"
	"cv-screening-platform/internal/logger"
	"cv-screening-platform/models"
)

// ReembedService periodically finds sections that have no vector (a crash
// between section insert and vector write, or a failed embedding batch) and
// embeds them. Until then such sections exist but are invisible to matching.
type ReembedService struct {
	config      *config.Config
	sectionsCol *mongo.Collection
	vectorsCol  *mongo.Collection
	embedder    *ai.Embedder
	rankCache   *RankCache
	stopChan    chan struct{}
}

func NewReembedService(cfg *config.Config, db *mongo.Database, embedder *ai.Embedder, rankCache *RankCache) *ReembedService {
	return &ReembedService{
		config:      cfg,
		sectionsCol: db.Collection("sections"),
		vectorsCol:  db.Collection("section_vectors"),
		embedder:    embedder,
		rankCache:   rankCache,
		stopChan:    make(chan struct{}),
	}
}

// Start runs the reconciliation loop until Stop is called.
func (r *ReembedService) Start() {
	interval := time.Duration(r.config.ReembedIntervalSec) * time.Second
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Starting re-embed reconciler", "interval", interval.String())

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := r.ScanOnce(ctx); err != nil {
				logger.Error("Re-embed scan failed", "error", err)
			}
			cancel()

		case <-r.stopChan:
			logger.Info("Stopping re-embed reconciler")
			return
		}
	}
}

func (r *ReembedService) Stop() {
	close(r.stopChan)
}

// ScanOnce embeds up to one batch of vectorless sections.
func (r *ReembedService) ScanOnce(ctx context.Context) error {
	sections, err := r.findVectorless(ctx, 100)
	if err != nil {
		return err
	}
	if len(sections) == 0 {
		return nil
	}

	inputs := make([]ai.EmbedInput, 0, len(sections))
	byID := make(map[string]models.Section, len(sections))
	for _, s := range sections {
		inputs = append(inputs, ai.EmbedInput{Key: s.SectionID, Text: s.EmbeddingText})
		byID[s.SectionID] = s
	}

	vectors, err := r.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		return err
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(vectors))
	for sectionID, vector := range vectors {
		section := byID[sectionID]
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"section_id": sectionID}).
			SetUpdate(bson.M{"$set": models.SectionVector{
				SectionID:   sectionID,
				CandidateID: section.CandidateID,
				Vector:      vector,
				CreatedAt:   now,
			}}).
			SetUpsert(true))
	}
	if len(writes) == 0 {
		return nil
	}

	if _, err := r.vectorsCol.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return err
	}

	if r.rankCache != nil {
		r.rankCache.Invalidate(ctx)
	}

	logger.Info("Re-embedded orphaned sections", "count", len(writes))
	return nil
}

// findVectorless returns sections whose section_id has no row in the vectors
// collection.
func (r *ReembedService) findVectorless(ctx context.Context, limit int64) ([]models.Section, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "section_vectors",
			"localField":   "section_id",
			"foreignField": "section_id",
			"as":           "vectors",
		}}},
		{{Key: "$match", Value: bson.M{"vectors": bson.M{"$size": 0}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"vectors": 0}}},
	}

	cursor, err := r.sectionsCol.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sections []models.Section
	if err := cursor.All(ctx, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}
