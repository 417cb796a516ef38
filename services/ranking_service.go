package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/config"
	"cv-screening-platform/internal/logger"
	"cv-screening-platform/internal/matching"
	"cv-screening-platform/internal/telemetry"
	"cv-screening-platform/models"
)

// RankingService answers ranking queries: the full catalog ranking and
// single-skill searches. Matching runs in process by default; with Atlas
// vector search enabled the candidate distances come from the store and only
// filtering, resolution, and scoring stay local.
type RankingService struct {
	config        *config.Config
	candidatesCol *mongo.Collection
	vectorsCol    *mongo.Collection
	skillsCol     *mongo.Collection
	embedder      *ai.Embedder
	matcher       matching.Matcher
	ranker        matching.Ranker
	rankCache     *RankCache
	metrics       *telemetry.Metrics
}

func NewRankingService(
	cfg *config.Config,
	db *mongo.Database,
	embedder *ai.Embedder,
	rankCache *RankCache,
	metrics *telemetry.Metrics,
) *RankingService {
	return &RankingService{
		config:        cfg,
		candidatesCol: db.Collection("candidates"),
		vectorsCol:    db.Collection("section_vectors"),
		skillsCol:     db.Collection("skill_vectors"),
		embedder:      embedder,
		matcher:       matching.NewMatcher(cfg.MatchThreshold),
		ranker:        matching.NewRanker(nil),
		rankCache:     rankCache,
		metrics:       metrics,
	}
}

// RankByCatalog ranks all candidates against the full catalog. Results are
// cached per limit until the next ingest or catalog change.
func (rs *RankingService) RankByCatalog(ctx context.Context, limit int) ([]models.RankedCandidate, error) {
	if limit <= 0 {
		limit = rs.config.DefaultRankLimit
	}
	start := time.Now()

	fingerprint := fmt.Sprintf("catalog:%d", limit)
	if cached := rs.rankCache.Get(ctx, fingerprint); cached != nil {
		if rs.metrics != nil {
			rs.metrics.RecordRanking(time.Since(start).Seconds(), len(cached), true)
		}
		return cached, nil
	}

	catalog, err := rs.loadCatalogVectors(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return []models.RankedCandidate{}, nil
	}

	weights := make(map[string]float64, len(catalog))
	for _, cv := range catalog {
		weights[cv.SkillName] = cv.Weight
	}

	records, err := rs.matchRecords(ctx, catalog)
	if err != nil {
		return nil, err
	}

	best := matching.BestMatches(records)
	results := rs.ranker.Rank(best, weights, limit)

	ranking, err := rs.hydrate(ctx, results)
	if err != nil {
		return nil, err
	}

	rs.rankCache.Set(ctx, fingerprint, ranking)
	if rs.metrics != nil {
		rs.metrics.RecordRanking(time.Since(start).Seconds(), len(ranking), false)
	}
	return ranking, nil
}

// RankBySkill ranks candidates against one skill: either a catalog entry by
// name (using its stored weight and vector) or ad-hoc text embedded on the
// fly at the flat weight. Not cached: ad-hoc queries have unbounded
// fingerprint space.
func (rs *RankingService) RankBySkill(ctx context.Context, req *models.SkillQueryRequest, catalogSvc *CatalogService) ([]models.RankedCandidate, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = rs.config.DefaultRankLimit
	}

	var target matching.CatalogVector
	switch {
	case req.SkillName != "":
		entry, err := catalogSvc.GetCatalogEntry(ctx, req.SkillName)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, fmt.Errorf("skill %q not in catalog", req.SkillName)
		}
		target = matching.CatalogVector{
			SkillName: entry.SkillName,
			Weight:    entry.Weight,
			Vector:    entry.Vector,
		}
	case req.Text != "":
		vector, err := rs.embedder.Embed(ctx, req.Text)
		if err != nil {
			return nil, fmt.Errorf("query embedding failed: %w", err)
		}
		target = matching.CatalogVector{
			SkillName: req.Text,
			Weight:    rs.config.WeightFlat,
			Vector:    vector,
		}
	default:
		return nil, fmt.Errorf("either skill_name or text is required")
	}

	catalog := []matching.CatalogVector{target}
	records, err := rs.matchRecords(ctx, catalog)
	if err != nil {
		return nil, err
	}

	best := matching.BestMatches(records)
	results := rs.ranker.Rank(best, map[string]float64{target.SkillName: target.Weight}, limit)
	return rs.hydrate(ctx, results)
}

// matchRecords produces threshold-filtered match records for the given
// catalog, via Atlas vector search when enabled, in-process otherwise.
func (rs *RankingService) matchRecords(ctx context.Context, catalog []matching.CatalogVector) ([]matching.MatchRecord, error) {
	if rs.config.VectorSearchEnabled {
		return rs.matchWithVectorSearch(ctx, catalog)
	}

	sections, err := rs.loadSectionVectors(ctx)
	if err != nil {
		return nil, err
	}
	return rs.matcher.Match(sections, catalog), nil
}

// vectorSearchLimit is the hard cap Atlas places on both $vectorSearch
// knobs. Pools within the cap get exact coverage (limit = pool size); beyond
// it recall is approximate and the in-process path stays the exact option.
const vectorSearchLimit = 10000

func vectorSearchBounds(poolSize int64) (limit, numCandidates int) {
	limit = int(poolSize)
	if limit > vectorSearchLimit {
		limit = vectorSearchLimit
	}
	numCandidates = limit * 2
	if numCandidates > vectorSearchLimit {
		numCandidates = vectorSearchLimit
	}
	return limit, numCandidates
}

// matchWithVectorSearch runs one $vectorSearch aggregation per catalog entry,
// sized to return the whole section pool so the threshold filter sees every
// candidate pair. Atlas reports cosine similarity mapped to (0, 1] as
// (1 + cos) / 2; the matcher works on cosine distance, so scores convert as
// d = 2 - 2*score.
func (rs *RankingService) matchWithVectorSearch(ctx context.Context, catalog []matching.CatalogVector) ([]matching.MatchRecord, error) {
	poolSize, err := rs.vectorsCol.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to size vector search: %w", err)
	}
	if poolSize == 0 {
		return nil, nil
	}
	limit, numCandidates := vectorSearchBounds(poolSize)

	var records []matching.MatchRecord

	for _, cv := range catalog {
		if len(cv.Vector) == 0 {
			continue
		}

		pipeline := mongo.Pipeline{
			{{Key: "$vectorSearch", Value: bson.M{
				"index":         rs.config.VectorIndexName,
				"path":          "vector",
				"queryVector":   cv.Vector,
				"numCandidates": numCandidates,
				"limit":         limit,
			}}},
			{{Key: "$project", Value: bson.M{
				"section_id":   1,
				"candidate_id": 1,
				"score":        bson.M{"$meta": "vectorSearchScore"},
			}}},
		}

		cursor, err := rs.vectorsCol.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("vector search failed for %s: %w", cv.SkillName, err)
		}

		var hits []struct {
			SectionID   string             `bson:"section_id"`
			CandidateID primitive.ObjectID `bson:"candidate_id"`
			Score       float64            `bson:"score"`
		}
		if err := cursor.All(ctx, &hits); err != nil {
			return nil, err
		}

		for _, hit := range hits {
			records = append(records, matching.MatchRecord{
				CandidateID: hit.CandidateID.Hex(),
				SectionID:   hit.SectionID,
				SkillName:   cv.SkillName,
				Distance:    2 - 2*hit.Score,
			})
		}
	}

	return rs.matcher.Filter(records), nil
}

func (rs *RankingService) loadCatalogVectors(ctx context.Context) ([]matching.CatalogVector, error) {
	cursor, err := rs.skillsCol.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.CatalogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	vectors := make([]matching.CatalogVector, 0, len(entries))
	for _, e := range entries {
		// Entries persisted without a vector (partial load) are skipped
		// here, not errors: they become matchable on the next re-submit.
		if len(e.Vector) == 0 {
			continue
		}
		vectors = append(vectors, matching.CatalogVector{
			SkillName: e.SkillName,
			Weight:    e.Weight,
			Vector:    e.Vector,
		})
	}
	return vectors, nil
}

func (rs *RankingService) loadSectionVectors(ctx context.Context) ([]matching.SectionVector, error) {
	cursor, err := rs.vectorsCol.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load section vectors: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.SectionVector
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	vectors := make([]matching.SectionVector, 0, len(docs))
	for _, d := range docs {
		vectors = append(vectors, matching.SectionVector{
			CandidateID: d.CandidateID.Hex(),
			SectionID:   d.SectionID,
			Vector:      d.Vector,
		})
	}
	return vectors, nil
}

// hydrate joins ranked results with candidate identity and rounds scores at
// this final edge. Candidates deleted since their vectors were matched are
// dropped with a warning rather than failing the whole ranking.
func (rs *RankingService) hydrate(ctx context.Context, results []matching.RankedResult) ([]models.RankedCandidate, error) {
	ranking := make([]models.RankedCandidate, 0, len(results))

	for _, r := range results {
		candidate, err := rs.findCandidate(ctx, r.CandidateID)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			logger.Warn("Ranked candidate no longer exists", "candidate_id", r.CandidateID)
			continue
		}
		ranking = append(ranking, models.RankedCandidate{
			CandidateID:   r.CandidateID,
			Name:          candidate.FullName,
			Email:         candidate.Email,
			MatchedSkills: r.MatchedSkills,
			MatchScore:    matching.RoundScore(r.TotalScore),
		})
	}
	return ranking, nil
}

func (rs *RankingService) findCandidate(ctx context.Context, hexID string) (*models.Candidate, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, fmt.Errorf("invalid candidate ID %q: %w", hexID, err)
	}
	var candidate models.Candidate
	err = rs.candidatesCol.FindOne(ctx, bson.M{"_id": id}).Decode(&candidate)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}
