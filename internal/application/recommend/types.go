package recommend

import (
	"time"

	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
)

// Outcome 单个输入位置的结果；Err 非空时即为该位置的失败标记
type Outcome struct {
	Term string
	Set  entity.RecommendationSet
	Err  error
}

// OK 该位置是否成功
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Options 编排参数
type Options struct {
	TopK                  int
	MaxTerms              int
	MaxConcurrentUpstream int
	RequestTimeout        time.Duration
	CacheTTL              time.Duration
	Retry                 RetryPolicy
}

const (
	defaultTopK        = 5
	defaultMaxTerms    = 25
	defaultMaxUpstream = 4
)

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.MaxTerms <= 0 {
		o.MaxTerms = defaultMaxTerms
	}
	if o.MaxConcurrentUpstream <= 0 {
		o.MaxConcurrentUpstream = defaultMaxUpstream
	}
	if o.Retry.Attempts <= 0 {
		o.Retry.Attempts = 1
	}
	return o
}
