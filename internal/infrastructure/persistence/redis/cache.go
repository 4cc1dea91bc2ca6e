package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
)

// CandidateCache 以 JSON 保存短语的检索候选
type CandidateCache struct {
	client *Client
	prefix string
}

// NewCandidateCache 创建候选缓存
func NewCandidateCache(client *Client, prefix string) *CandidateCache {
	return &CandidateCache{client: client, prefix: prefix}
}

// Name 后端名
func (c *CandidateCache) Name() string { return "redis" }

// Key 拼接键前缀
func (c *CandidateCache) Key(key string) string {
	return BuildCandidateKey(c.prefix, key)
}

// Get 读取缓存；未命中返回 ok=false
func (c *CandidateCache) Get(ctx context.Context, key string) ([]entity.Candidate, bool, error) {
	ctx, span := tracer.Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, c.Key(key)).Bytes()
	if err != nil {
		if IsNil(err) {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, err
	}

	var candidates []entity.Candidate
	if err := json.Unmarshal(val, &candidates); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to unmarshal candidates: %w", err)
	}
	if candidates == nil {
		candidates = []entity.Candidate{}
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return candidates, true, nil
}

// Set 写入缓存
func (c *CandidateCache) Set(ctx context.Context, key string, candidates []entity.Candidate, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "cache.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
		))
	defer span.End()

	if candidates == nil {
		candidates = []entity.Candidate{}
	}
	bytes, err := json.Marshal(candidates)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal candidates: %w", err)
	}

	if err := c.client.rdb.Set(ctx, c.Key(key), bytes, ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// BuildCandidateKey 构建候选缓存键
func BuildCandidateKey(prefix, phraseKey string) string {
	return fmt.Sprintf("%scandidates:%s", prefix, phraseKey)
}
