// Package memory 提供进程内候选缓存
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
)

// CandidateCache 进程内 TTL 缓存，条目数超过上限时不再写入新键
type CandidateCache struct {
	store      *gocache.Cache
	maxEntries int
}

// NewCandidateCache 创建缓存；maxEntries<=0 表示不限
func NewCandidateCache(ttl time.Duration, maxEntries int) *CandidateCache {
	cleanup := ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &CandidateCache{
		store:      gocache.New(ttl, cleanup),
		maxEntries: maxEntries,
	}
}

// Name 后端名
func (c *CandidateCache) Name() string { return "memory" }

// Get 读取未过期的候选
func (c *CandidateCache) Get(_ context.Context, key string) ([]entity.Candidate, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	return clone(v.([]entity.Candidate)), true, nil
}

// Set 写入候选，ttl<=0 时使用默认过期时间
func (c *CandidateCache) Set(_ context.Context, key string, candidates []entity.Candidate, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	if c.maxEntries > 0 && c.store.ItemCount() >= c.maxEntries {
		if _, exists := c.store.Get(key); !exists {
			c.store.DeleteExpired()
			if c.store.ItemCount() >= c.maxEntries {
				return nil
			}
		}
	}
	c.store.Set(key, clone(candidates), ttl)
	return nil
}

// Len 当前条目数（可能包含尚未清理的过期条目）
func (c *CandidateCache) Len() int {
	return c.store.ItemCount()
}

func clone(in []entity.Candidate) []entity.Candidate {
	out := make([]entity.Candidate, len(in))
	copy(out, in)
	return out
}
