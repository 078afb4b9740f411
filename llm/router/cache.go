package router

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/pipeflow/types"
)

// CacheConfig configures the decision cache.
type CacheConfig struct {
	LocalMaxSize int           `json:"local_max_size"`
	LocalTTL     time.Duration `json:"local_ttl"`
	RedisTTL     time.Duration `json:"redis_ttl"`
	EnableLocal  bool          `json:"enable_local"`
	EnableRedis  bool          `json:"enable_redis"`
}

// DefaultCacheConfig returns sensible defaults.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		LocalMaxSize: 1000,
		LocalTTL:     5 * time.Minute,
		RedisTTL:     1 * time.Hour,
		EnableLocal:  true,
		EnableRedis:  true,
	}
}

// DecisionCache stores routing decisions in a local LRU with an optional
// Redis second level. Identical data routed through the same agent and
// model yields the same decision, so replays skip the model entirely.
type DecisionCache struct {
	local  *lruCache
	redis  *redis.Client
	config *CacheConfig
	logger *zap.Logger
}

// NewDecisionCache creates a cache. rdb may be nil when only the local
// level is wanted.
func NewDecisionCache(rdb *redis.Client, config *CacheConfig, logger *zap.Logger) *DecisionCache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var local *lruCache
	if config.EnableLocal {
		local = newLRUCache(config.LocalMaxSize, config.LocalTTL)
	}
	return &DecisionCache{local: local, redis: rdb, config: config, logger: logger}
}

// Key derives the cache key from agent name, model and the routed data.
// The engine-owned pipeline id and retry counter are left out, so the
// same data routed in different pipelines shares one key.
func (c *DecisionCache) Key(agentName, model string, data map[string]any) string {
	routed := make(map[string]any, len(data))
	for k, v := range data {
		if k == types.KeyPipelineID || k == types.KeyRetryAttempt {
			continue
		}
		routed[k] = v
	}
	raw, _ := json.Marshal(struct {
		Agent string         `json:"agent"`
		Model string         `json:"model"`
		Data  map[string]any `json:"data"`
	}{Agent: agentName, Model: model, Data: routed})
	hash := sha256.Sum256(raw)
	return hex.EncodeToString(hash[:16])
}

// Get looks the key up, local level first.
func (c *DecisionCache) Get(ctx context.Context, key string) (Decision, bool) {
	if c.config.EnableLocal && c.local != nil {
		if d, ok := c.local.get(key); ok {
			return d, true
		}
	}
	if c.config.EnableRedis && c.redis != nil {
		raw, err := c.redis.Get(ctx, c.redisKey(key)).Bytes()
		if err == nil {
			var d Decision
			if err := json.Unmarshal(raw, &d); err == nil {
				if c.config.EnableLocal && c.local != nil {
					c.local.set(key, d)
				}
				return d, true
			}
		}
	}
	return Decision{}, false
}

// Set stores the decision in every enabled level. Redis write failures
// are logged and swallowed; caching is best-effort.
func (c *DecisionCache) Set(ctx context.Context, key string, d Decision) {
	if c.config.EnableLocal && c.local != nil {
		c.local.set(key, d)
	}
	if c.config.EnableRedis && c.redis != nil {
		raw, err := json.Marshal(d)
		if err != nil {
			return
		}
		if err := c.redis.Set(ctx, c.redisKey(key), raw, c.config.RedisTTL).Err(); err != nil {
			c.logger.Warn("decision cache redis write failed", zap.Error(err))
		}
	}
}

func (c *DecisionCache) redisKey(key string) string {
	return "pipeflow:decision:" + key
}

// lruCache is a doubly-linked LRU with per-entry TTL.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*lruNode
	head     *lruNode
	tail     *lruNode
}

type lruNode struct {
	key       string
	decision  Decision
	expiresAt time.Time
	prev      *lruNode
	next      *lruNode
}

func newLRUCache(capacity int, ttl time.Duration) *lruCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &lruCache{capacity: capacity, ttl: ttl, items: make(map[string]*lruNode)}
}

func (c *lruCache) get(key string) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.items[key]
	if !ok {
		return Decision{}, false
	}
	if time.Now().After(node.expiresAt) {
		c.removeNode(node)
		delete(c.items, key)
		return Decision{}, false
	}
	c.moveToHead(node)
	return node.decision, true
}

func (c *lruCache) set(key string, d Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if node, ok := c.items[key]; ok {
		node.decision = d
		node.expiresAt = time.Now().Add(c.ttl)
		c.moveToHead(node)
		return
	}
	if len(c.items) >= c.capacity {
		c.evictTail()
	}
	node := &lruNode{key: key, decision: d, expiresAt: time.Now().Add(c.ttl)}
	c.items[key] = node
	c.addToHead(node)
}

func (c *lruCache) addToHead(node *lruNode) {
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

func (c *lruCache) removeNode(node *lruNode) {
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

func (c *lruCache) moveToHead(node *lruNode) {
	if node == c.head {
		return
	}
	c.removeNode(node)
	c.addToHead(node)
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.key)
	c.removeNode(c.tail)
}
