package router

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/pipeflow/types"
)

func newRedisCache(t *testing.T, cfg *CacheConfig) (*DecisionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewDecisionCache(rdb, cfg, zap.NewNop()), mr
}

func TestCacheKeyStability(t *testing.T) {
	c := NewDecisionCache(nil, DefaultCacheConfig(), nil)
	data := types.Data{"comment": "hi", "n": 1}

	k1 := c.Key("moderator", "gpt-4o-mini", data)
	k2 := c.Key("moderator", "gpt-4o-mini", types.Data{"n": 1, "comment": "hi"})
	assert.Equal(t, k1, k2)

	assert.NotEqual(t, k1, c.Key("moderator", "gpt-4o", data))
	assert.NotEqual(t, k1, c.Key("other", "gpt-4o-mini", data))
	assert.NotEqual(t, k1, c.Key("moderator", "gpt-4o-mini", types.Data{"comment": "bye"}))
}

func TestLocalLRUEviction(t *testing.T) {
	cache := NewDecisionCache(nil, &CacheConfig{
		LocalMaxSize: 2,
		LocalTTL:     time.Hour,
		EnableLocal:  true,
	}, nil)
	ctx := context.Background()

	cache.Set(ctx, "a", Decision{Outcome: "pass"})
	cache.Set(ctx, "b", Decision{Outcome: "reject"})

	// Touch "a" so "b" is the eviction candidate.
	_, ok := cache.Get(ctx, "a")
	require.True(t, ok)

	cache.Set(ctx, "c", Decision{Outcome: "retry"})

	_, ok = cache.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "c")
	assert.True(t, ok)
}

func TestRedisSecondLevel(t *testing.T) {
	cfg := &CacheConfig{
		LocalMaxSize: 8,
		LocalTTL:     time.Hour,
		RedisTTL:     time.Hour,
		EnableLocal:  false,
		EnableRedis:  true,
	}
	cache, mr := newRedisCache(t, cfg)
	ctx := context.Background()

	cache.Set(ctx, "k", Decision{Outcome: "pass", Reasoning: "fine"})

	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "pass", got.Outcome)
	assert.Equal(t, "fine", got.Reasoning)

	// Expiry in Redis means a miss.
	mr.FastForward(2 * time.Hour)
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisHitPopulatesLocal(t *testing.T) {
	cfg := &CacheConfig{
		LocalMaxSize: 8,
		LocalTTL:     time.Hour,
		RedisTTL:     time.Hour,
		EnableLocal:  true,
		EnableRedis:  true,
	}
	cache, mr := newRedisCache(t, cfg)
	ctx := context.Background()

	cache.Set(ctx, "k", Decision{Outcome: "reject"})

	// Drop the local level; the first Get refills it from Redis.
	cache.local = newLRUCache(cfg.LocalMaxSize, cfg.LocalTTL)
	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "reject", got.Outcome)

	// Redis can now expire; the local copy still answers.
	mr.FastForward(2 * time.Hour)
	_, ok = cache.Get(ctx, "k")
	assert.True(t, ok)
}

func TestRedisWriteFailureIsSwallowed(t *testing.T) {
	cfg := &CacheConfig{
		RedisTTL:    time.Hour,
		EnableRedis: true,
	}
	cache, mr := newRedisCache(t, cfg)
	mr.Close()

	// Best-effort: no panic, no error surfaced.
	cache.Set(context.Background(), "k", Decision{Outcome: "pass"})
	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
}
