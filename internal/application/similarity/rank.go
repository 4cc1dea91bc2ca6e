package similarity

import (
	"math"
	"sort"

	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
)

// Cosine 余弦相似度，任一向量模长为 0 时返回 0
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, x := range a {
		na += x * x
	}
	for _, x := range b {
		nb += x * x
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Rank 计算短语向量与每个候选向量的相似度，稳定降序排序后截断到 limit 条
// candVecs 与 cands 按下标一一对应；不修改入参
func Rank(term string, phraseVec []float64, candVecs [][]float64, cands []entity.Candidate, limit int) entity.RecommendationSet {
	n := len(cands)
	if len(candVecs) < n {
		n = len(candVecs)
	}
	if n == 0 || limit <= 0 {
		return entity.RecommendationSet{}
	}

	set := make(entity.RecommendationSet, n)
	for i := 0; i < n; i++ {
		set[i] = entity.Recommendation{
			Term:  term,
			Label: cands[i].Label,
			ID:    cands[i].ID,
			Score: Cosine(phraseVec, candVecs[i]),
			URL:   cands[i].URL,
		}
	}

	sort.SliceStable(set, func(i, j int) bool {
		return set[i].Score > set[j].Score
	})

	if len(set) > limit {
		set = set[:limit]
	}
	return set
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
