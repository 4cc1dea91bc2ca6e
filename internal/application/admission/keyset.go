// Package admission 提供 API Key 校验与按客户端的滑动窗口限流
package admission

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	// ErrMissingKey 请求未携带 API Key
	ErrMissingKey = errors.New("api key missing")
	// ErrInvalidKey API Key 不在授权集合内
	ErrInvalidKey = errors.New("api key invalid")
)

// KeySet 授权 key 集合，启动后只读
// 只保存摘要，比较时遍历全部 key，耗时与命中位置无关
type KeySet struct {
	digests       [][sha256.Size]byte
	openWhenEmpty bool
}

// NewKeySet 由配置构建集合，空白 key 与重复 key 被忽略
func NewKeySet(keys []string, openWhenEmpty bool) *KeySet {
	seen := make(map[[sha256.Size]byte]struct{}, len(keys))
	ks := &KeySet{openWhenEmpty: openWhenEmpty}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		d := sha256.Sum256([]byte(k))
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		ks.digests = append(ks.digests, d)
	}
	return ks
}

// Len 授权 key 数量
func (k *KeySet) Len() int {
	return len(k.digests)
}

// Open 集合为空且允许放行
func (k *KeySet) Open() bool {
	return len(k.digests) == 0 && k.openWhenEmpty
}

// Authorize 校验请求携带的 key
func (k *KeySet) Authorize(presented string) error {
	if k.Open() {
		return nil
	}
	if presented == "" {
		return ErrMissingKey
	}

	d := sha256.Sum256([]byte(presented))
	match := 0
	for i := range k.digests {
		match |= subtle.ConstantTimeCompare(d[:], k.digests[i][:])
	}
	if match != 1 {
		return ErrInvalidKey
	}
	return nil
}
