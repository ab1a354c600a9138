package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/econdata/econfed/internal/geo"
	"github.com/econdata/econfed/internal/model"
)

// SeriesCache is the two-tier cache the Fetch Orchestrator consults before
// calling a provider adapter: an in-process LRU (sub-microsecond, bounded
// size) in front of the Redis-backed Manager (shared across instances,
// survives process restarts), with a local-then-remote lookup order and
// doubly-linked-list O(1) eviction over model.CanonicalSeries fetch
// results.
type SeriesCache struct {
	local  *seriesLRU
	remote *Manager
	config SeriesCacheConfig
	logger *zap.Logger
}

// SeriesCacheConfig mirrors config.CacheConfig's knobs.
type SeriesCacheConfig struct {
	LocalMaxSize int
	LocalTTL     time.Duration
	DefaultTTL   time.Duration
	ProviderTTL  map[string]time.Duration
	EnableLocal  bool
	EnableRedis  bool
}

// NewSeriesCache builds a SeriesCache. remote may be nil, in which case
// EnableRedis is forced off (e.g. local-only test fixtures).
func NewSeriesCache(remote *Manager, config SeriesCacheConfig, logger *zap.Logger) *SeriesCache {
	if config.LocalMaxSize <= 0 {
		config.LocalMaxSize = 1000
	}
	if config.LocalTTL <= 0 {
		config.LocalTTL = 5 * time.Minute
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = time.Hour
	}
	if remote == nil {
		config.EnableRedis = false
	}

	var local *seriesLRU
	if config.EnableLocal {
		local = newSeriesLRU(config.LocalMaxSize, config.LocalTTL)
	}

	return &SeriesCache{local: local, remote: remote, config: config, logger: logger}
}

// ttlFor returns the per-provider TTL override, looked up by the exact
// provider name and then by its lowercase form, or DefaultTTL.
func (c *SeriesCache) ttlFor(provider string) time.Duration {
	if ttl, ok := c.config.ProviderTTL[provider]; ok {
		return ttl
	}
	if ttl, ok := c.config.ProviderTTL[strings.ToLower(provider)]; ok {
		return ttl
	}
	return c.config.DefaultTTL
}

// Get looks up key, checking the local tier before falling back to Redis.
// A Redis hit is backfilled into the local tier.
func (c *SeriesCache) Get(ctx context.Context, provider, key string) (model.CanonicalSeries, bool) {
	if c.config.EnableLocal && c.local != nil {
		if series, ok := c.local.Get(key); ok {
			c.logger.Debug("series cache local hit", zap.String("key", key))
			return series, true
		}
	}

	if c.config.EnableRedis && c.remote != nil {
		var series model.CanonicalSeries
		if err := c.remote.GetJSON(ctx, redisKey(key), &series); err == nil {
			if c.config.EnableLocal && c.local != nil {
				c.local.Set(key, series)
			}
			c.logger.Debug("series cache redis hit", zap.String("key", key))
			return series, true
		} else if !IsCacheMiss(err) {
			c.logger.Warn("series cache redis get error", zap.Error(err))
		}
	}

	return model.CanonicalSeries{}, false
}

// Set writes series into both tiers, TTL chosen by provider.
func (c *SeriesCache) Set(ctx context.Context, provider, key string, series model.CanonicalSeries) {
	if c.config.EnableLocal && c.local != nil {
		c.local.Set(key, series)
	}
	if c.config.EnableRedis && c.remote != nil {
		if err := c.remote.SetJSON(ctx, redisKey(key), series, c.ttlFor(provider)); err != nil {
			c.logger.Warn("series cache redis set error", zap.Error(err))
		}
	}
}

// Invalidate drops key from both tiers — used when a learned mapping
// correction means a previously cached series is no longer trustworthy.
func (c *SeriesCache) Invalidate(ctx context.Context, key string) {
	if c.local != nil {
		c.local.Delete(key)
	}
	if c.config.EnableRedis && c.remote != nil {
		_ = c.remote.Delete(ctx, redisKey(key))
	}
}

func redisKey(key string) string {
	return "econfed:series:" + key
}

// ============================================================
// Local LRU, O(1) get/set/evict via a map + intrusive doubly-linked list.
// ============================================================

type seriesLRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*lruNode
	head     *lruNode
	tail     *lruNode
}

type lruNode struct {
	key       string
	value     model.CanonicalSeries
	expiresAt time.Time
	prev      *lruNode
	next      *lruNode
}

func newSeriesLRU(capacity int, ttl time.Duration) *seriesLRU {
	return &seriesLRU{capacity: capacity, ttl: ttl, items: make(map[string]*lruNode)}
}

func (c *seriesLRU) Get(key string) (model.CanonicalSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		return model.CanonicalSeries{}, false
	}
	if time.Now().After(node.expiresAt) {
		c.removeNode(node)
		delete(c.items, key)
		return model.CanonicalSeries{}, false
	}

	c.moveToHead(node)
	return node.value, true
}

func (c *seriesLRU) Set(key string, value model.CanonicalSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		node.value = value
		node.expiresAt = time.Now().Add(c.ttl)
		c.moveToHead(node)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictTail()
	}

	node := &lruNode{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	c.items[key] = node
	c.addToHead(node)
}

func (c *seriesLRU) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if node, ok := c.items[key]; ok {
		c.removeNode(node)
		delete(c.items, key)
	}
}

func (c *seriesLRU) addToHead(node *lruNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *seriesLRU) removeNode(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
}

func (c *seriesLRU) moveToHead(node *lruNode) {
	if node == c.head {
		return
	}
	c.removeNode(node)
	c.addToHead(node)
}

func (c *seriesLRU) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.key)
	c.removeNode(c.tail)
}

// KeyFromParams builds a stable cache key from a provider tag and a
// normalized parameter map, matching model.CacheKey's collision semantics:
// a recognized "country" value is reduced to its ISO2 code, so country=US
// and country=USA share a key.
func KeyFromParams(provider string, params map[string]string) string {
	normalized := make(map[string]string, len(params))
	for k, v := range params {
		if k == "country" {
			if iso2 := geo.Normalize(v); iso2 != "" {
				v = iso2
			}
		}
		normalized[k] = v
	}
	data, _ := json.Marshal(normalized)
	return provider + ":" + string(data)
}
