package wire

import (
	"context"
	"testing"
	"time"

	"github.com/kltng/lcsh-validation-api/internal/application/admission"
	"github.com/kltng/lcsh-validation-api/internal/config"
	"github.com/kltng/lcsh-validation-api/internal/infrastructure/persistence/redis"
)

func rateLimitConfig(enabled bool, backend string) *config.Config {
	cfg := &config.Config{}
	cfg.Security.RateLimit = config.RateLimitConfig{
		Enabled:         enabled,
		Backend:         backend,
		Limit:           10,
		Window:          time.Minute,
		CleanupInterval: time.Hour,
		KeyPrefix:       "lcsh:",
	}
	return cfg
}

func TestProvideLimiterSelectsBackend(t *testing.T) {
	ctx := context.Background()

	limiter, cleanup := ProvideLimiter(ctx, rateLimitConfig(false, "memory"), nil)
	cleanup()
	if limiter != nil {
		t.Fatalf("disabled rate limit should provide no limiter, got %T", limiter)
	}

	limiter, cleanup = ProvideLimiter(ctx, rateLimitConfig(true, "memory"), nil)
	if _, ok := limiter.(*admission.SlidingWindow); !ok {
		t.Fatalf("expected in-memory sliding window, got %T", limiter)
	}
	cleanup()

	limiter, cleanup = ProvideLimiter(ctx, rateLimitConfig(true, "redis"), nil)
	cleanup()
	if _, ok := limiter.(*redis.RateLimiter); !ok {
		t.Fatalf("expected redis limiter, got %T", limiter)
	}
}

func TestSweeperStopsWhenParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	window := admission.NewSlidingWindow(10, time.Minute)

	stop, done := startSweeper(ctx, window, time.Hour)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper still running after parent context was cancelled")
	}
	// stop 在协程退出后仍可安全调用
	stop()
}

func TestSweeperStopsOnCleanup(t *testing.T) {
	window := admission.NewSlidingWindow(10, time.Minute)

	stop, done := startSweeper(context.Background(), window, time.Hour)
	stop()

	select {
	case <-done:
	default:
		t.Fatalf("stop returned before sweeper exited")
	}
}
