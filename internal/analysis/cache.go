// internal/analysis/cache.go
package analysis

import (
	"context"
	"errors"
	"time"

	"admissions-workers/internal/common/database"
	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/models"
)

// ErrResultNotFound is returned by ResultCache.Get for unknown or expired sessions.
var ErrResultNotFound = errors.New("RESULT_NOT_FOUND")

const resultKeyPrefix = "analysis:"

// ResultCache keeps analysis results per session for the results and share views.
type ResultCache struct {
	redis *database.RedisClient
	ttl   time.Duration
}

func NewResultCache(redis *database.RedisClient, ttl time.Duration) *ResultCache {
	return &ResultCache{redis: redis, ttl: ttl}
}

func resultKey(sessionID string) string {
	return resultKeyPrefix + sessionID
}

func (c *ResultCache) Save(ctx context.Context, sessionID string, result *models.AnalysisResult) error {
	if err := c.redis.SetJSON(ctx, resultKey(sessionID), result, c.ttl); err != nil {
		return apperrors.NewResultCacheFailedError(sessionID, err)
	}
	return nil
}

func (c *ResultCache) Get(ctx context.Context, sessionID string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	err := c.redis.GetJSON(ctx, resultKey(sessionID), &result)
	if errors.Is(err, database.ErrCacheMiss) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, apperrors.NewResultCacheFailedError(sessionID, err)
	}
	return &result, nil
}
