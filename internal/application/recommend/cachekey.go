package recommend

import (
	"strings"

	"github.com/kltng/lcsh-validation-api/internal/application/similarity"
)

// CacheKey 短语的缓存键：NFKC + 小写 + 空白折叠
func CacheKey(phrase string) string {
	return strings.Join(strings.Fields(similarity.Normalize(phrase)), " ")
}
