package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cv-screening-platform/internal/logger"
	"cv-screening-platform/models"
)

// RankCache caches computed rankings in Redis. Invalidation is by version
// bump rather than key deletion: every ingest or catalog change INCRs a
// version counter that is part of every cache key, so stale entries are
// simply never read again and expire on their own. The cache fails open on
// every Redis error.
type RankCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRankCache(client *redis.Client, ttlSecs int) *RankCache {
	if ttlSecs <= 0 {
		ttlSecs = 60
	}
	return &RankCache{
		client: client,
		ttl:    time.Duration(ttlSecs) * time.Second,
	}
}

const rankVersionKey = "rank:version"

func (rc *RankCache) version(ctx context.Context) (int64, error) {
	v, err := rc.client.Get(ctx, rankVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// Get returns the cached ranking for a fingerprint, or nil on miss or error.
func (rc *RankCache) Get(ctx context.Context, fingerprint string) []models.RankedCandidate {
	if rc == nil || rc.client == nil {
		return nil
	}
	v, err := rc.version(ctx)
	if err != nil {
		logger.Warn("Rank cache read failed", "error", err)
		return nil
	}

	key := fmt.Sprintf("rank:v%d:%s", v, fingerprint)
	data, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Rank cache read failed", "error", err)
		}
		return nil
	}

	var ranking []models.RankedCandidate
	if err := json.Unmarshal(data, &ranking); err != nil {
		logger.Warn("Rank cache entry corrupt, dropping", "key", key, "error", err)
		rc.client.Del(ctx, key)
		return nil
	}
	return ranking
}

// Set stores a ranking under the current version. Best effort.
func (rc *RankCache) Set(ctx context.Context, fingerprint string, ranking []models.RankedCandidate) {
	if rc == nil || rc.client == nil {
		return
	}
	v, err := rc.version(ctx)
	if err != nil {
		logger.Warn("Rank cache write failed", "error", err)
		return
	}

	data, err := json.Marshal(ranking)
	if err != nil {
		return
	}

	key := fmt.Sprintf("rank:v%d:%s", v, fingerprint)
	if err := rc.client.Set(ctx, key, data, rc.ttl).Err(); err != nil {
		logger.Warn("Rank cache write failed", "key", key, "error", err)
	}
}

// Invalidate bumps the version so all cached rankings become unreachable.
func (rc *RankCache) Invalidate(ctx context.Context) {
	if rc == nil || rc.client == nil {
		return
	}
	if err := rc.client.Incr(ctx, rankVersionKey).Err(); err != nil {
		logger.Warn("Rank cache invalidation failed", "error", err)
	}
}
