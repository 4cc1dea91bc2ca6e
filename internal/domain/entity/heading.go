// Package entity 定义领域实体
package entity

// Candidate 上游检索返回的候选主题词
// ID 与 URL 原样透传，不做校验
type Candidate struct {
	Label string `json:"label"`
	ID    string `json:"id"`
	URL   string `json:"url"`
}

// Recommendation 单条打分后的推荐
type Recommendation struct {
	// Term 回显的输入短语
	Term string `json:"term"`
	// Label 匹配到的主题词文本
	Label string  `json:"label"`
	ID    string  `json:"id"`
	Score float64 `json:"similarity_score"`
	URL   string  `json:"url"`
}

// RecommendationSet 单个短语的推荐结果，按 Score 降序
type RecommendationSet []Recommendation

// Len 返回条目数
func (s RecommendationSet) Len() int {
	return len(s)
}

// Top 返回得分最高的条目
func (s RecommendationSet) Top() (Recommendation, bool) {
	if len(s) == 0 {
		return Recommendation{}, false
	}
	return s[0], true
}
