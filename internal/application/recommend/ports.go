package recommend

import (
	"context"
	"time"

	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
)

// Retriever 定义编排层对候选检索的最小依赖（port）
// 由基础设施层提供具体实现（例如 id.loc.gov 客户端）
type Retriever interface {
	Retrieve(ctx context.Context, phrase string) ([]entity.Candidate, error)
}

// CandidateCache 候选结果短期缓存，key 为归一化后的短语
type CandidateCache interface {
	Get(ctx context.Context, key string) ([]entity.Candidate, bool, error)
	Set(ctx context.Context, key string, candidates []entity.Candidate, ttl time.Duration) error
	Name() string
}

// Vectorizer 文本表示
type Vectorizer interface {
	Vectorize(corpus []string) [][]float64
}
