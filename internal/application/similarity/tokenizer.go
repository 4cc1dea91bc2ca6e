// Package similarity 提供 TF-IDF 向量化与余弦相似度排序
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// TokenizerOptions 分词选项
type TokenizerOptions struct {
	// NgramMax 最大 n-gram 长度，<=1 时只产出单词
	NgramMax int
	// MinTokenLength 最短 token 长度（按 rune 计）
	MinTokenLength int
	// StopWords 需要剔除的停用词，nil 表示不剔除
	StopWords map[string]struct{}
}

// DefaultTokenizerOptions 单词 + 双词组合，剔除英文停用词
func DefaultTokenizerOptions() TokenizerOptions {
	return TokenizerOptions{
		NgramMax:       2,
		MinTokenLength: 2,
		StopWords:      EnglishStopWords(),
	}
}

// Normalize NFKC 归一化并转小写
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// Words 按非字母数字边界切分，返回过滤后的单词序列
func Words(text string, opts TokenizerOptions) []string {
	fields := strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := fields[:0]
	for _, f := range fields {
		if opts.MinTokenLength > 0 && len([]rune(f)) < opts.MinTokenLength {
			continue
		}
		if _, stop := opts.StopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Terms 在过滤后的单词序列上生成 1..NgramMax 的 n-gram
func Terms(text string, opts TokenizerOptions) []string {
	words := Words(text, opts)
	maxN := opts.NgramMax
	if maxN < 1 {
		maxN = 1
	}

	terms := make([]string, 0, len(words)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}
