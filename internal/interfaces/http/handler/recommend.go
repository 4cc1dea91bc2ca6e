package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/dto"
	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
)

// Recommender 推荐编排
type Recommender interface {
	Recommend(ctx context.Context, phrases []string) ([]recommend.Outcome, error)
}

// RecommendHandler 主题词推荐处理器
type RecommendHandler struct {
	engine  Recommender
	maxBody int64
}

// NewRecommendHandler 创建处理器，maxBody<=0 表示不限制请求体
func NewRecommendHandler(engine Recommender, maxBody int64) *RecommendHandler {
	return &RecommendHandler{engine: engine, maxBody: maxBody}
}

// Recommend 为每个输入短语推荐 LCSH 主题词
// @Summary 推荐主题词
// @Tags Recommend
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API Key"
// @Param body body dto.RecommendRequest true "短语列表"
// @Success 200 {object} dto.RecommendResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.RecommendResponse
// @Failure 504 {object} dto.RecommendResponse
// @Router /recommend [post]
func (h *RecommendHandler) Recommend(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}

	var req dto.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.AppError(c, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	ctx := c.Request.Context()
	outcomes, err := h.engine.Recommend(ctx, req.Terms)
	if err != nil {
		appErr := toAppError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error(ctx, "recommend failed", err)
		}
		dto.AppError(c, appErr)
		return
	}

	resp := dto.NewRecommendResponse(outcomes, toAppError)
	resp.TraceID = c.GetString("trace_id")
	c.JSON(statusFor(outcomes), resp)
}

// statusFor 任一位置成功即 200；全部失败时，全是超时为 504，否则 502
func statusFor(outcomes []recommend.Outcome) int {
	timeouts := 0
	for _, o := range outcomes {
		if o.OK() {
			return http.StatusOK
		}
		if errors.Is(o.Err, recommend.ErrRequestTimeout) {
			timeouts++
		}
	}
	if len(outcomes) > 0 && timeouts == len(outcomes) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
