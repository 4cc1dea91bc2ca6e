package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kltng/lcsh-validation-api/internal/application/admission"
)

// slidingWindowScript 剔除窗口外成员 -> 计数 -> 未满时写入 -> 续期
// 返回 {allowed, count, oldest_ms}
var slidingWindowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = now
if oldest[2] then
  oldestScore = tonumber(oldest[2])
end
return {allowed, count, oldestScore}
`)

// RateLimiter 基于有序集合的滑动窗口限流器，多实例共享窗口
type RateLimiter struct {
	client *Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client, limit int, window time.Duration, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow 与进程内滑动窗口语义一致，被拒绝的请求不写入
func (l *RateLimiter) Allow(ctx context.Context, clientID string) (admission.Decision, error) {
	key := BuildRateLimitKey(l.prefix, clientID)
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", l.limit),
		attribute.Int64("ratelimit.window_ms", l.window.Milliseconds()),
	)
	defer span.End()

	now := l.now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, l.client.rdb, []string{key},
		now, l.window.Milliseconds(), l.limit, member).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return admission.Decision{}, err
	}
	if len(res) != 3 {
		return admission.Decision{}, fmt.Errorf("unexpected script reply: %v", res)
	}

	d := decisionFromReply(res[0] == 1, res[1], res[2], now, l.limit, l.window)
	span.SetAttributes(
		attribute.Int64("ratelimit.current_count", res[1]),
		attribute.Bool("ratelimit.allowed", d.Allowed),
	)
	return d, nil
}

func decisionFromReply(allowed bool, count, oldestMs, nowMs int64, limit int, window time.Duration) admission.Decision {
	d := admission.Decision{Allowed: allowed, Limit: limit}
	if allowed {
		d.Remaining = limit - int(count)
		if d.Remaining < 0 {
			d.Remaining = 0
		}
		return d
	}
	retry := time.Duration(oldestMs+window.Milliseconds()-nowMs) * time.Millisecond
	if retry < 0 {
		retry = 0
	}
	d.RetryAfter = retry
	return d
}

// BuildRateLimitKey 构建限流键
func BuildRateLimitKey(prefix, clientID string) string {
	return fmt.Sprintf("%sratelimit:%s", prefix, clientID)
}

var _ admission.Limiter = (*RateLimiter)(nil)
