package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kltng/lcsh-validation-api/internal/application/admission"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/dto"
	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
	"github.com/kltng/lcsh-validation-api/pkg/metrics"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
}

// RateLimit 按客户端地址限流，限流器故障时放行
func RateLimit(cfg RateLimitConfig, limiter admission.Limiter) gin.HandlerFunc {
	// 如果未启用限流，返回空中间件
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		d, err := limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable, request admitted", "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			metrics.AdmissionRejectedTotal.WithLabelValues("rate_limited").Inc()
			dto.AbortAppError(c, apperrors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
