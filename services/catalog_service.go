package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/config"
	"cv-screening-platform/internal/logger"
	"cv-screening-platform/internal/matching"
	"cv-screening-platform/models"
)

// CatalogService owns the weighted target skill catalog.
type CatalogService struct {
	config    *config.Config
	skillsCol *mongo.Collection
	embedder  *ai.Embedder
	rankCache *RankCache
}

func NewCatalogService(cfg *config.Config, db *mongo.Database, embedder *ai.Embedder, rankCache *RankCache) *CatalogService {
	return &CatalogService{
		config:    cfg,
		skillsCol: db.Collection("skill_vectors"),
		embedder:  embedder,
		rankCache: rankCache,
	}
}

// CatalogLoadResult reports a catalog submission outcome.
type CatalogLoadResult struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// weights builds the normalization policy from configuration.
func (cs *CatalogService) weights() matching.Weights {
	return matching.Weights{
		Categories: map[string]float64{
			"essential":    cs.config.WeightEssential,
			"nice-to-have": cs.config.WeightNiceToHave,
		},
		Default: cs.config.WeightDefault,
		Flat:    cs.config.WeightFlat,
	}
}

// LoadCatalog decodes a raw catalog payload, normalizes it, embeds every
// entry in one batch, and upserts by skill name. Re-submitting a skill
// overwrites its description, weight, and vector.
func (cs *CatalogService) LoadCatalog(ctx context.Context, payload []byte) (*CatalogLoadResult, error) {
	input, err := matching.DecodeCatalogInput(payload)
	if err != nil {
		return nil, err
	}

	skills, skipped := matching.Normalize(input, cs.weights())
	if len(skills) == 0 {
		return &CatalogLoadResult{Loaded: 0, Skipped: skipped}, nil
	}

	inputs := make([]ai.EmbedInput, len(skills))
	for i, s := range skills {
		inputs[i] = ai.EmbedInput{Key: s.Name, Text: s.EmbeddingText}
	}
	vectors, err := cs.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("catalog embedding failed: %w", err)
	}

	writes := buildCatalogWriteModels(skills, vectors, time.Now())

	if _, err := cs.skillsCol.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return nil, fmt.Errorf("catalog upsert failed: %w", err)
	}

	if cs.rankCache != nil {
		cs.rankCache.Invalidate(ctx)
	}

	logger.Info("Catalog loaded", "entries", len(skills), "skipped", skipped)
	return &CatalogLoadResult{Loaded: len(skills), Skipped: skipped}, nil
}

// buildCatalogWriteModels turns normalized skills into $set upserts keyed by
// skill name. One row per skill: re-submitting a name overwrites its
// description, weight, and vector instead of adding a second row.
func buildCatalogWriteModels(skills []matching.NormalizedSkill, vectors map[string][]float32, now time.Time) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(skills))
	for _, s := range skills {
		entry := models.CatalogEntry{
			SkillName:     s.Name,
			Description:   s.Description,
			Category:      s.Category,
			Weight:        s.Weight,
			EmbeddingText: s.EmbeddingText,
			Vector:        vectors[s.Name],
			UpdatedAt:     now,
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"skill_name": s.Name}).
			SetUpdate(bson.M{"$set": entry}).
			SetUpsert(true))
	}
	return writes
}

// ListCatalog returns all catalog entries ordered by skill name.
func (cs *CatalogService) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "skill_name", Value: 1}})
	cursor, err := cs.skillsCol.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.CatalogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetCatalogEntry returns one catalog entry by skill name.
func (cs *CatalogService) GetCatalogEntry(ctx context.Context, skillName string) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	err := cs.skillsCol.FindOne(ctx, bson.M{"skill_name": skillName}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
