package recommend

import "errors"

var (
	// ErrInvalidInput 短语列表为空、含空短语或超过上限
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable 上游超时、连接失败或返回服务端错误，可安全重试
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamMalformed 上游响应整体无法解析
	ErrUpstreamMalformed = errors.New("upstream response malformed")
	// ErrRequestTimeout 请求整体期限已到，短语未完成
	ErrRequestTimeout = errors.New("request timed out")
)
