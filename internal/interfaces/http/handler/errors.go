package handler

import (
	"context"
	"errors"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
)

// toAppError 领域错误 -> 对外错误
func toAppError(err error) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return apperrors.AsAppError(err)
	case errors.Is(err, recommend.ErrInvalidInput):
		return apperrors.ErrInvalidParam.WithDetail(err.Error())
	case errors.Is(err, recommend.ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrRequestTimeout
	case errors.Is(err, recommend.ErrUpstreamMalformed):
		return apperrors.ErrUpstreamMalformed
	case errors.Is(err, recommend.ErrUpstreamUnavailable):
		return apperrors.ErrUpstreamUnavailable
	default:
		return apperrors.ErrInternalError.WithError(err)
	}
}
