// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
)

// ErrorDetail 错误详情
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// ErrorWithDetail 返回带详情的错误响应
func ErrorWithDetail(c *gin.Context, httpCode int, message string, detail *ErrorDetail) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		Error:   detail,
		TraceID: c.GetString("trace_id"),
	})
}

// AppError 按 AppError 的状态码输出错误响应
func AppError(c *gin.Context, err *apperrors.AppError) {
	ErrorWithDetail(c, err.HTTPStatus, err.Message, detailOf(err))
}

// AbortAppError 中断后续处理并输出错误响应
func AbortAppError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, ErrorResponse{
		Code:    err.HTTPStatus,
		Message: err.Message,
		Error:   detailOf(err),
		TraceID: c.GetString("trace_id"),
	})
}

func detailOf(err *apperrors.AppError) *ErrorDetail {
	return &ErrorDetail{
		ErrorCode: string(err.Code),
		Details:   err.Detail,
	}
}
