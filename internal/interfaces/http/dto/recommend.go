package dto

import (
	"math"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
)

// 单个位置的状态
const (
	PhraseStatusOK     = "ok"
	PhraseStatusFailed = "failed"
)

// RecommendRequest 推荐请求
type RecommendRequest struct {
	Terms []string `json:"terms"`
}

// RecommendationResponse 单条推荐
type RecommendationResponse struct {
	Term            string  `json:"term"`
	Label           string  `json:"label"`
	ID              string  `json:"id"`
	SimilarityScore float64 `json:"similarity_score"`
	URL             string  `json:"url"`
}

// PhraseError 失败位置的错误信息
type PhraseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PhraseResult 与输入短语一一对应
type PhraseResult struct {
	Term            string                   `json:"term"`
	Status          string                   `json:"status"`
	Recommendations []RecommendationResponse `json:"recommendations"`
	Error           *PhraseError             `json:"error,omitempty"`
}

// RecommendResponse 推荐响应
// Recommendations 为所有成功位置按输入顺序展开后的列表
type RecommendResponse struct {
	Recommendations []RecommendationResponse `json:"recommendations"`
	Results         []PhraseResult           `json:"results"`
	TraceID         string                   `json:"trace_id,omitempty"`
}

// NewRecommendResponse 由编排结果构建响应，classify 把位置错误转为对外错误码
func NewRecommendResponse(outcomes []recommend.Outcome, classify func(error) *apperrors.AppError) RecommendResponse {
	resp := RecommendResponse{
		Recommendations: make([]RecommendationResponse, 0),
		Results:         make([]PhraseResult, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		if !o.OK() {
			appErr := classify(o.Err)
			resp.Results = append(resp.Results, PhraseResult{
				Term:            o.Term,
				Status:          PhraseStatusFailed,
				Recommendations: []RecommendationResponse{},
				Error: &PhraseError{
					Code:    string(appErr.Code),
					Message: appErr.Message,
				},
			})
			continue
		}

		recs := NewRecommendations(o.Set)
		resp.Recommendations = append(resp.Recommendations, recs...)
		resp.Results = append(resp.Results, PhraseResult{
			Term:            o.Term,
			Status:          PhraseStatusOK,
			Recommendations: recs,
		})
	}
	return resp
}

// NewRecommendations 转换推荐集合，分数保留三位小数
func NewRecommendations(set entity.RecommendationSet) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, set.Len())
	for _, r := range set {
		out = append(out, RecommendationResponse{
			Term:            r.Term,
			Label:           r.Label,
			ID:              r.ID,
			SimilarityScore: roundScore(r.Score),
			URL:             r.URL,
		})
	}
	return out
}

func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}
