package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sander-remitly/inventory-allocator/internal/allocator"
	"github.com/sander-remitly/inventory-allocator/internal/logger"
	"go.uber.org/zap"
)

const (
	// Cache TTL constants
	InitialTTL = 5 * time.Minute
	MaxTTL     = 24 * time.Hour

	// Cache key prefix
	CacheKeyPrefix = "invalloc:"

	// Stats keys
	StatsHitsKey   = "invalloc:stats:hits"
	StatsMissesKey = "invalloc:stats:misses"
)

// CachedResult represents a cached allocation result
type CachedResult struct {
	Shipment          []allocator.Parcel `json:"shipment"`
	Fulfilled         bool               `json:"fulfilled"`
	Reason            string             `json:"reason,omitempty"`
	WarehousesUsed    int                `json:"warehouses_used"`
	CalculationTimeMs int64              `json:"calculation_time_ms"`
	CachedAt          time.Time          `json:"cached_at"`
	HitCount          int                `json:"hit_count"`
	CurrentTTL        time.Duration      `json:"current_ttl"`
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalKeys  int64   `json:"total_keys"`
	MemoryUsed string  `json:"memory_used"`
	Uptime     string  `json:"uptime"`
}

// Cache handles Redis caching operations
type Cache struct {
	client  *redis.Client
	enabled bool
	ctx     context.Context
}

// NewCache creates a new cache instance
func NewCache() *Cache {
	enabled := os.Getenv("REDIS_ENABLED") == "true"

	if !enabled {
		logger.Log.Info("Redis cache is disabled")
		return &Cache{enabled: false, ctx: context.Background()}
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Warn("Failed to connect to Redis. Cache disabled.",
			zap.String("address", redisAddr),
			zap.Error(err),
		)
		return &Cache{enabled: false, ctx: ctx}
	}

	logger.Log.Info("Redis cache enabled", zap.String("address", redisAddr))
	return &Cache{
		client:  client,
		enabled: true,
		ctx:     ctx,
	}
}

// NewWithClient wraps an existing Redis client
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{
		client:  client,
		enabled: client != nil,
		ctx:     context.Background(),
	}
}

// IsEnabled returns whether caching is enabled
func (c *Cache) IsEnabled() bool {
	return c.enabled
}

// generateKey creates a cache key from an order and warehouse list.
// Both are order sensitive, so their encodings are hashed as they are.
func (c *Cache) generateKey(order *allocator.Order, warehouses []allocator.Warehouse) (string, error) {
	data, err := json.Marshal(struct {
		Order      *allocator.Order      `json:"order"`
		Warehouses []allocator.Warehouse `json:"warehouses"`
	}{order, warehouses})
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}

	// Hash it for a shorter key
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash[:16]), nil
}

// Get retrieves a cached result and updates its TTL
func (c *Cache) Get(order *allocator.Order, warehouses []allocator.Warehouse) (*CachedResult, bool) {
	if !c.enabled {
		return nil, false
	}

	key, err := c.generateKey(order, warehouses)
	if err != nil {
		logger.Log.Warn("Cache key error", zap.Error(err))
		return nil, false
	}

	// Get the cached data
	data, err := c.client.Get(c.ctx, key).Bytes()
	if err == redis.Nil {
		// Cache miss
		c.incrementMisses()
		return nil, false
	} else if err != nil {
		logger.Log.Warn("Cache get error", zap.Error(err))
		c.incrementMisses()
		return nil, false
	}

	// Deserialize
	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Log.Warn("Cache unmarshal error", zap.Error(err))
		c.incrementMisses()
		return nil, false
	}

	// Cache hit! Update TTL (double it, up to max)
	result.HitCount++
	newTTL := result.CurrentTTL * 2
	if newTTL > MaxTTL {
		newTTL = MaxTTL
	}
	result.CurrentTTL = newTTL

	// Save back with updated TTL and hit count
	if err := c.set(key, &result, newTTL); err != nil {
		logger.Log.Warn("Failed to update cache TTL", zap.Error(err))
	}

	c.incrementHits()
	return &result, true
}

// Set stores an allocation result in cache
func (c *Cache) Set(
	order *allocator.Order,
	warehouses []allocator.Warehouse,
	shipment []allocator.Parcel,
	reason string,
	calcTime int64,
) error {
	if !c.enabled {
		return nil
	}

	key, err := c.generateKey(order, warehouses)
	if err != nil {
		return err
	}

	if shipment == nil {
		shipment = []allocator.Parcel{}
	}

	cached := &CachedResult{
		Shipment:          shipment,
		Fulfilled:         reason == "",
		Reason:            reason,
		WarehousesUsed:    allocator.WarehousesUsed(shipment),
		CalculationTimeMs: calcTime,
		CachedAt:          time.Now(),
		HitCount:          0,
		CurrentTTL:        InitialTTL,
	}

	return c.set(key, cached, InitialTTL)
}

// set is an internal method to store data with a specific TTL
func (c *Cache) set(key string, result *CachedResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(c.ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// GetStats returns cache statistics
func (c *Cache) GetStats() (*CacheStats, error) {
	if !c.enabled {
		return &CacheStats{}, nil
	}

	// Get hit/miss counts
	hits, _ := c.client.Get(c.ctx, StatsHitsKey).Int64()
	misses, _ := c.client.Get(c.ctx, StatsMissesKey).Int64()

	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	keys, err := c.resultKeys()
	if err != nil {
		logger.Log.Warn("Failed to get cache keys", zap.Error(err))
	}

	// Get memory info
	info, err := c.client.Info(c.ctx, "memory", "server").Result()
	memoryUsed := "N/A"
	uptime := "N/A"

	if err == nil {
		// Parse memory and uptime from info string
		memoryUsed = parseInfoField(info, "used_memory_human")
		uptimeSecs := parseInfoField(info, "uptime_in_seconds")
		if secs, err := strconv.Atoi(uptimeSecs); err == nil {
			uptime = (time.Duration(secs) * time.Second).String()
		}
	}

	return &CacheStats{
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
		TotalKeys:  int64(len(keys)),
		MemoryUsed: memoryUsed,
		Uptime:     uptime,
	}, nil
}

// Clear removes all cache entries
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}

	keys, err := c.resultKeys()
	if err != nil {
		return fmt.Errorf("failed to get cache keys: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(c.ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	// Reset stats
	c.client.Del(c.ctx, StatsHitsKey, StatsMissesKey)

	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.enabled && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// resultKeys lists cached result keys, leaving out the stats counters
func (c *Cache) resultKeys() ([]string, error) {
	var keys []string
	iter := c.client.Scan(c.ctx, 0, CacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(c.ctx) {
		key := iter.Val()
		if key == StatsHitsKey || key == StatsMissesKey {
			continue
		}
		keys = append(keys, key)
	}
	return keys, iter.Err()
}

// incrementHits increments the cache hit counter
func (c *Cache) incrementHits() {
	c.client.Incr(c.ctx, StatsHitsKey)
}

// incrementMisses increments the cache miss counter
func (c *Cache) incrementMisses() {
	c.client.Incr(c.ctx, StatsMissesKey)
}

// parseInfoField extracts a field value from Redis INFO output
func parseInfoField(info, field string) string {
	lines := []byte(info)
	start := 0
	for i := 0; i < len(lines); i++ {
		if lines[i] == '\n' {
			line := string(lines[start:i])
			start = i + 1

			if len(line) > len(field)+1 && line[:len(field)] == field && line[len(field)] == ':' {
				return trimCR(line[len(field)+1:])
			}
		}
	}
	return ""
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
