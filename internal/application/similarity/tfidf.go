package similarity

import (
	"math"
	"sort"
)

// Vectorizer 针对单次查询的 TF-IDF 向量化器
// 词表与 IDF 只由传入的语料计算，不跨调用共享
type Vectorizer struct {
	opts TokenizerOptions
}

// NewVectorizer 创建向量化器
func NewVectorizer(opts TokenizerOptions) *Vectorizer {
	return &Vectorizer{opts: opts}
}

// Vectorize 返回与语料逐条对齐的 L2 归一化 TF-IDF 向量
// 维度等于本次语料的词表大小；同一语料始终得到相同结果
func (v *Vectorizer) Vectorize(corpus []string) [][]float64 {
	docs := make([]map[string]int, len(corpus))
	df := make(map[string]int)
	for i, text := range corpus {
		counts := make(map[string]int)
		for _, term := range Terms(text, v.opts) {
			counts[term]++
		}
		for term := range counts {
			df[term]++
		}
		docs[i] = counts
	}

	// 词表按字典序排列，保证维度顺序确定
	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	index := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(corpus))
	for i, term := range vocab {
		index[term] = i
		// 平滑 IDF：ln((1+n)/(1+df)) + 1
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	out := make([][]float64, len(corpus))
	for i, counts := range docs {
		vec := make([]float64, len(vocab))
		for term, c := range counts {
			j := index[term]
			vec[j] = float64(c) * idf[j]
		}
		out[i] = l2Normalize(vec)
	}
	return out
}

func l2Normalize(vec []float64) []float64 {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
