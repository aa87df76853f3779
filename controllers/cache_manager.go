package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"library-service/services"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	MaterialListCachePrefix = "materials:v:"
	CacheVersionKey         = "materials:version"
	DefaultCacheTTL         = 10 * time.Minute
)

// CacheManager caches material search pages in Redis. Search results are
// keyed by a shared version number so a single version bump invalidates
// every cached page at once.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCacheManager(redis *redis.Client) *CacheManager {
	return &CacheManager{
		redis: redis,
		ttl:   DefaultCacheTTL,
	}
}

// GetMaterialList retrieves a cached search response for the given params.
func (cm *CacheManager) GetMaterialList(ctx context.Context, params services.MaterialSearchParams) (map[string]interface{}, bool) {
	version, err := cm.getCacheVersion(ctx)
	if err != nil || version == 0 {
		return nil, false
	}

	cacheKey := cm.generateListCacheKey(version, params)
	cachedData, err := cm.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		return nil, false
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(cachedData), &response); err != nil {
		zap.L().Warn("Failed to unmarshal cached material list", zap.Error(err))
		return nil, false
	}

	return response, true
}

// SetMaterialListAsync caches a search response without blocking the
// request that produced it.
func (cm *CacheManager) SetMaterialListAsync(params services.MaterialSearchParams, response map[string]interface{}) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil || version == 0 {
			return
		}

		cacheKey := cm.generateListCacheKey(version, params)
		jsonBytes, err := json.Marshal(response)
		if err != nil {
			zap.L().Warn("Failed to marshal material list for cache", zap.Error(err))
			return
		}

		if err := cm.redis.Set(bgCtx, cacheKey, jsonBytes, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache material list", zap.Error(err))
		}
	}()
}

// Invalidate drops every cached search page by bumping the version.
func (cm *CacheManager) Invalidate(ctx context.Context) {
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		zap.L().Error("Failed to invalidate material cache", zap.Error(err))
		return
	}
	zap.L().Info("Material cache invalidated", zap.Int64("new_version", newVersion))
}

// getCacheVersion retrieves the current cache version with retry logic.
func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}

		if err == redis.Nil {
			if err := cm.redis.Set(ctx, CacheVersionKey, 1, 0).Err(); err == nil {
				return 1, nil
			}
		}

		if i < maxRetries-1 {
			time.Sleep(time.Millisecond * 50)
		}
	}

	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}

func (cm *CacheManager) generateListCacheKey(version int64, params services.MaterialSearchParams) string {
	return fmt.Sprintf(
		"%s%d:p:%d:l:%d:k:%s:c:%s:t:%s:y:%d:s:%s",
		MaterialListCachePrefix,
		version,
		params.Page,
		params.Limit,
		params.Keyword,
		params.Category,
		params.MaterialType,
		params.PublicationYear,
		params.Sort,
	)
}
