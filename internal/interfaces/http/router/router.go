// Package router 提供 HTTP 路由配置
package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kltng/lcsh-validation-api/internal/application/admission"
	"github.com/kltng/lcsh-validation-api/internal/config"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/handler"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/middleware"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
)

// RouterHandlers 路由依赖的处理器
type RouterHandlers struct {
	Health    *handler.HealthHandler
	Recommend *handler.RecommendHandler
}

// Guard 推荐接口的准入依赖
type Guard struct {
	Keys    *admission.KeySet
	Limiter admission.Limiter
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers RouterHandlers
	guard    Guard
}

// NewWithDeps 创建路由器
func NewWithDeps(cfg *config.Config, handlers RouterHandlers, guard Guard) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.HTTP.TrustedProxies); err != nil {
		logger.Warn(context.Background(), "invalid trusted proxies, proxy headers ignored", "error", err.Error())
		_ = engine.SetTrustedProxies(nil)
	}

	r := &Router{
		engine:   engine,
		cfg:      cfg,
		handlers: handlers,
		guard:    guard,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) systemPaths() []string {
	return []string{"/health", "/ready", "/live", r.cfg.Observability.Metrics.Path}
}

// setupMiddleware 配置全局中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, r.systemPaths()...))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.systemPaths()...))
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	if h := r.handlers.Health; h != nil {
		r.engine.GET("/health", h.Health)
		r.engine.GET("/ready", h.Ready)
		r.engine.GET("/live", h.Live)
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// 准入顺序：API Key -> 限流 -> 处理器
	guarded := []gin.HandlerFunc{
		middleware.APIKey(r.guard.Keys, r.cfg.Security.APIKeys.Header),
		middleware.RateLimit(middleware.RateLimitConfig{
			Enabled: r.cfg.Security.RateLimit.Enabled,
		}, r.guard.Limiter),
		r.handlers.Recommend.Recommend,
	}

	r.engine.POST("/recommend", guarded...)
	v1 := r.engine.Group("/v1")
	{
		v1.POST("/recommend", guarded...)
	}
}
