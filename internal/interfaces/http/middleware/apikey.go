// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kltng/lcsh-validation-api/internal/application/admission"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/dto"
	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
	"github.com/kltng/lcsh-validation-api/pkg/metrics"
)

// DefaultAPIKeyHeader 默认 API Key 请求头
const DefaultAPIKeyHeader = "X-API-Key"

// APIKey API Key 校验中间件，校验失败时直接返回 401
func APIKey(keys *admission.KeySet, header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultAPIKeyHeader
	}

	return func(c *gin.Context) {
		err := keys.Authorize(c.GetHeader(header))
		if err == nil {
			c.Next()
			return
		}

		appErr := apperrors.ErrAPIKeyInvalid
		reason := "invalid_key"
		if errors.Is(err, admission.ErrMissingKey) {
			appErr = apperrors.ErrAPIKeyMissing
			reason = "missing_key"
		}
		metrics.AdmissionRejectedTotal.WithLabelValues(reason).Inc()
		logger.Debug(c.Request.Context(), "api key rejected", "reason", reason)
		dto.AbortAppError(c, appErr)
	}
}
