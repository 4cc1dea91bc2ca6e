package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/dto"
	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
)

// Recovery Panic 恢复中间件，响应中不包含堆栈
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", rec),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				dto.AbortAppError(c, apperrors.ErrInternalError)
			}
		}()

		c.Next()
	}
}
