// Package cache stores intent analyses and generated responses in a memory
// tier backed by optional Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	apperrors "vanlang-chatbot/internal/common/errors"
	"vanlang-chatbot/internal/common/metrics"
	"vanlang-chatbot/internal/models"

	"github.com/redis/go-redis/v9"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Cache struct {
	config *Config
	local  *LocalCache
	redis  *redis.Client
	log    Logger

	hits   int64
	misses int64
	sets   int64
	errors int64
}

type Stats struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Sets         int64   `json:"sets"`
	Errors       int64   `json:"errors"`
	HitRate      float64 `json:"hitRate"`
	MemoryKeys   int     `json:"memoryKeys"`
	MemoryHit    float64 `json:"memoryHitRate"`
	RedisEnabled bool    `json:"redisEnabled"`
}

// New builds the cache. redisClient may be nil, in which case only the
// memory tier is used.
func New(config *Config, redisClient *redis.Client, log Logger) *Cache {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cache{
		config: config,
		local:  NewLocalCache(config.MemoryMaxEntries, config.SweepInterval),
		redis:  redisClient,
		log:    log,
	}
}

// ==========================
// Intent namespace
// ==========================

// GetIntentAnalysis returns the stored analysis for an already normalized key.
func (c *Cache) GetIntentAnalysis(ctx context.Context, key string) (*models.IntentResult, bool) {
	raw, ok := c.get(ctx, namespaceIntent, key)
	if !ok {
		return nil, false
	}

	var result models.IntentResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		atomic.AddInt64(&c.errors, 1)
		c.log.Warn("Discarding undecodable intent cache entry", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return &result, true
}

func (c *Cache) CacheIntentAnalysis(ctx context.Context, key string, result *models.IntentResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return apperrors.NewCacheOperationError("marshal_intent", err)
	}
	return c.set(ctx, namespaceIntent, key, string(data), c.config.IntentTTL)
}

// ==========================
// Generated response namespace
// ==========================

// GetGeminiResponse looks up a response by the exact prompt it was generated for.
func (c *Cache) GetGeminiResponse(ctx context.Context, prompt string) (string, bool) {
	return c.get(ctx, namespaceGemini, prompt)
}

func (c *Cache) CacheGeminiResponse(ctx context.Context, prompt, response string) error {
	return c.set(ctx, namespaceGemini, prompt, response, c.config.ResponseTTL)
}

// ==========================
// Tiers
// ==========================

func (c *Cache) get(ctx context.Context, namespace, key string) (string, bool) {
	storageKey := c.storageKey(namespace, key)

	if val, ok := c.local.Get(storageKey); ok {
		c.recordHit(namespace)
		return val, true
	}

	if c.redis == nil {
		c.recordMiss(namespace)
		return "", false
	}

	opCtx, cancel := c.operationContext(ctx)
	defer cancel()

	val, err := c.redis.Get(opCtx, storageKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			atomic.AddInt64(&c.errors, 1)
			metrics.CacheOperationsTotal.WithLabelValues(namespace, "error").Inc()
			c.log.Warn("Redis get failed, treating as miss", map[string]interface{}{
				"namespace": namespace,
				"error":     err.Error(),
			})
		}
		c.recordMiss(namespace)
		return "", false
	}

	c.local.Set(storageKey, val, c.config.PromotionTTL)
	c.recordHit(namespace)
	return val, true
}

func (c *Cache) set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	storageKey := c.storageKey(namespace, key)

	memTTL := c.config.MemoryTTL
	if ttl > 0 && ttl < memTTL {
		memTTL = ttl
	}
	c.local.Set(storageKey, value, memTTL)
	atomic.AddInt64(&c.sets, 1)
	metrics.CacheOperationsTotal.WithLabelValues(namespace, "set").Inc()

	if c.redis == nil {
		return nil
	}

	opCtx, cancel := c.operationContext(ctx)
	defer cancel()

	if err := c.redis.Set(opCtx, storageKey, value, ttl).Err(); err != nil {
		atomic.AddInt64(&c.errors, 1)
		metrics.CacheOperationsTotal.WithLabelValues(namespace, "error").Inc()
		return apperrors.NewCacheOperationError("set_"+namespace, err)
	}
	return nil
}

func (c *Cache) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.OperationTimeout)
}

func (c *Cache) recordHit(namespace string) {
	atomic.AddInt64(&c.hits, 1)
	metrics.CacheOperationsTotal.WithLabelValues(namespace, "hit").Inc()
}

func (c *Cache) recordMiss(namespace string) {
	atomic.AddInt64(&c.misses, 1)
	metrics.CacheOperationsTotal.WithLabelValues(namespace, "miss").Inc()
}

// ==========================
// Management
// ==========================

const clearBatchSize = 100

// ClearAll empties the memory tier and deletes every key under the prefix in Redis.
func (c *Cache) ClearAll(ctx context.Context) error {
	flushed := c.local.Flush()

	var deleted int64
	if c.redis != nil {
		// deleting while the cursor is live can skip keys, so scan to completion first
		var keys []string
		iter := c.redis.Scan(ctx, 0, c.config.Prefix+"*", clearBatchSize).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return apperrors.NewCacheOperationError("clear_all", err)
		}

		for start := 0; start < len(keys); start += clearBatchSize {
			end := start + clearBatchSize
			if end > len(keys) {
				end = len(keys)
			}
			n, err := c.redis.Del(ctx, keys[start:end]...).Result()
			if err != nil {
				return apperrors.NewCacheOperationError("clear_all", err)
			}
			deleted += n
		}
	}

	c.log.Info("Cache cleared", map[string]interface{}{
		"memoryKeys": flushed,
		"redisKeys":  deleted,
	})
	return nil
}

func (c *Cache) GetStats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	var hitRate float64
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return Stats{
		Hits:         hits,
		Misses:       misses,
		Sets:         atomic.LoadInt64(&c.sets),
		Errors:       atomic.LoadInt64(&c.errors),
		HitRate:      hitRate,
		MemoryKeys:   c.local.Size(),
		MemoryHit:    c.local.HitRate(),
		RedisEnabled: c.redis != nil,
	}
}

// Health is degraded when Redis is configured but unreachable; the memory
// tier keeps serving in that case.
func (c *Cache) Health(ctx context.Context) models.ServiceHealth {
	stats := c.GetStats()
	details := map[string]interface{}{
		"memoryKeys":   stats.MemoryKeys,
		"hitRate":      stats.HitRate,
		"redisEnabled": stats.RedisEnabled,
	}

	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			details["redisError"] = fmt.Sprintf("ping failed: %v", err)
			return models.ServiceHealth{Status: models.StatusDegraded, Details: details}
		}
	}
	return models.ServiceHealth{Status: models.StatusHealthy, Details: details}
}

func (c *Cache) Close() {
	c.local.Close()
}
