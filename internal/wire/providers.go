package wire

import (
	"context"
	"time"

	"github.com/kltng/lcsh-validation-api/internal/application/admission"
	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/application/similarity"
	"github.com/kltng/lcsh-validation-api/internal/config"
	"github.com/kltng/lcsh-validation-api/internal/infrastructure/loc"
	"github.com/kltng/lcsh-validation-api/internal/infrastructure/persistence/memory"
	"github.com/kltng/lcsh-validation-api/internal/infrastructure/persistence/redis"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/handler"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
)

// ProvideRedisClientOptional 仅在缓存或限流使用 Redis 时连接
func ProvideRedisClientOptional(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.UsesRedis() {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideLOCClient 提供 id.loc.gov 检索客户端
func ProvideLOCClient(cfg *config.Config) *loc.Client {
	return loc.NewClient(&cfg.Clients.LOC)
}

// ProvideCandidateCache 按配置选择候选缓存后端，none 时返回 nil
func ProvideCandidateCache(ctx context.Context, cfg *config.Config, client *redis.Client) recommend.CandidateCache {
	switch cfg.Cache.Backend {
	case "memory":
		return memory.NewCandidateCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	case "redis":
		return redis.NewCandidateCache(client, cfg.Cache.KeyPrefix)
	default:
		logger.Info(ctx, "candidate cache disabled")
		return nil
	}
}

// ProvideVectorizer 提供 TF-IDF 向量化器
func ProvideVectorizer(cfg *config.Config) recommend.Vectorizer {
	return similarity.NewVectorizer(similarity.TokenizerOptions{
		NgramMax:       cfg.Similarity.NgramMax,
		MinTokenLength: cfg.Similarity.MinTokenLength,
		StopWords:      similarity.StopWordsByName(cfg.Similarity.StopWords),
	})
}

// ProvideRecommendOptions 编排参数
func ProvideRecommendOptions(cfg *config.Config) recommend.Options {
	rc := cfg.Recommend
	return recommend.Options{
		TopK:                  rc.TopK,
		MaxTerms:              rc.MaxTerms,
		MaxConcurrentUpstream: rc.MaxConcurrentUpstream,
		RequestTimeout:        rc.RequestTimeout,
		CacheTTL:              cfg.Cache.TTL,
		Retry: recommend.RetryPolicy{
			Attempts:   rc.Retry.Attempts,
			Initial:    rc.Retry.Backoff.Initial,
			Max:        rc.Retry.Backoff.Max,
			Multiplier: rc.Retry.Backoff.Multiplier,
		},
	}
}

// ProvideKeySet 构建 API Key 集合并记录空集合策略
func ProvideKeySet(ctx context.Context, cfg *config.Config) *admission.KeySet {
	ks := admission.NewKeySet(cfg.Security.APIKeys.Keys, cfg.Security.APIKeys.OpenWhenEmpty)
	switch {
	case ks.Open():
		logger.Warn(ctx, "no api keys configured, all requests are admitted")
	case ks.Len() == 0:
		logger.Warn(ctx, "no api keys configured, all requests are rejected")
	default:
		logger.Info(ctx, "api keys loaded", "count", ks.Len())
	}
	return ks
}

// ProvideLimiter 按配置选择限流后端；进程内实现附带周期清理，随 ctx 取消或 cleanup 停止
func ProvideLimiter(ctx context.Context, cfg *config.Config, client *redis.Client) (admission.Limiter, func()) {
	rl := cfg.Security.RateLimit
	if !rl.Enabled {
		return nil, func() {}
	}
	if rl.Backend == "redis" {
		return redis.NewRateLimiter(client, rl.Limit, rl.Window, rl.KeyPrefix), func() {}
	}

	window := admission.NewSlidingWindow(rl.Limit, rl.Window)
	stop, _ := startSweeper(ctx, window, rl.CleanupInterval)
	return window, stop
}

// startSweeper 在后台周期清理限流记录；stop 取消并等待清理协程退出
func startSweeper(ctx context.Context, window *admission.SlidingWindow, interval time.Duration) (stop func(), done <-chan struct{}) {
	sweepCtx, cancel := context.WithCancel(ctx)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		window.Run(sweepCtx, interval)
	}()
	return func() {
		cancel()
		<-exited
	}, exited
}

// ProvideRecommendHandler 提供推荐处理器
func ProvideRecommendHandler(cfg *config.Config, engine *recommend.Engine) *handler.RecommendHandler {
	return handler.NewRecommendHandler(engine, cfg.Server.HTTP.MaxBodyBytes)
}

// ProvideHealthHandler 提供健康检查处理器，未使用 Redis 时跳过其检查
func ProvideHealthHandler(cfg *config.Config, client *redis.Client) *handler.HealthHandler {
	checks := map[string]handler.HealthChecker{"redis": nil}
	if client != nil {
		checks["redis"] = client
	}
	return handler.NewHealthHandler(cfg.App.Version, checks)
}
