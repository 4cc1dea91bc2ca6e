// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Clients       ClientsConfig       `yaml:"clients" mapstructure:"clients"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Similarity    SimilarityConfig    `yaml:"similarity" mapstructure:"similarity"`
	Recommend     RecommendConfig     `yaml:"recommend" mapstructure:"recommend"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// TrustedProxies 允许透传客户端地址的代理网段，为空表示只信任直连地址
	TrustedProxies []string `yaml:"trusted_proxies" mapstructure:"trusted_proxies"`
	// MaxBodyBytes 请求体上限
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ClientsConfig 外部依赖客户端配置
type ClientsConfig struct {
	LOC LOCClientConfig `yaml:"loc" mapstructure:"loc"`
}

// LOCClientConfig id.loc.gov 检索客户端配置
type LOCClientConfig struct {
	// BaseURL 权威站点根地址
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Scheme 检索限定的概念方案
	Scheme string `yaml:"scheme" mapstructure:"scheme"`
	// Timeout 单次请求超时
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RequestsPerSecond 全进程出站请求速率，<=0 表示不限速
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	// MaxBodyBytes 上游响应体上限
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// CacheConfig 候选缓存配置
type CacheConfig struct {
	// Backend memory / redis / none
	Backend    string        `yaml:"backend" mapstructure:"backend"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
	KeyPrefix  string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	Redis      RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// SimilarityConfig TF-IDF 向量化配置
type SimilarityConfig struct {
	// NgramMax 最大 n-gram 长度，1 表示只用单词
	NgramMax int `yaml:"ngram_max" mapstructure:"ngram_max"`
	// MinTokenLength 最短 token 长度
	MinTokenLength int `yaml:"min_token_length" mapstructure:"min_token_length"`
	// StopWords english / none
	StopWords string `yaml:"stop_words" mapstructure:"stop_words"`
}

// RecommendConfig 推荐编排配置
type RecommendConfig struct {
	TopK                  int           `yaml:"top_k" mapstructure:"top_k"`
	MaxTerms              int           `yaml:"max_terms" mapstructure:"max_terms"`
	MaxConcurrentUpstream int           `yaml:"max_concurrent_upstream" mapstructure:"max_concurrent_upstream"`
	RequestTimeout        time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	Retry                 RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig 上游重试配置
type RetryConfig struct {
	Attempts int           `yaml:"attempts" mapstructure:"attempts"`
	Backoff  BackoffConfig `yaml:"backoff" mapstructure:"backoff"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial" mapstructure:"initial"`
	Max        time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	APIKeys   APIKeysConfig   `yaml:"api_keys" mapstructure:"api_keys"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// APIKeysConfig API Key 配置
type APIKeysConfig struct {
	// Keys 授权的 key 列表，也可通过 API_KEYS 环境变量以逗号分隔提供
	Keys []string `yaml:"keys" mapstructure:"keys"`
	// OpenWhenEmpty 未配置任何 key 时是否放行所有请求
	OpenWhenEmpty bool   `yaml:"open_when_empty" mapstructure:"open_when_empty"`
	Header        string `yaml:"header" mapstructure:"header"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Backend memory / redis
	Backend         string        `yaml:"backend" mapstructure:"backend"`
	Limit           int           `yaml:"limit" mapstructure:"limit"`
	Window          time.Duration `yaml:"window" mapstructure:"window"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	KeyPrefix       string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// UsesRedis 是否有组件依赖 Redis
func (c *Config) UsesRedis() bool {
	if c == nil {
		return false
	}
	return c.Cache.Backend == "redis" || (c.Security.RateLimit.Enabled && c.Security.RateLimit.Backend == "redis")
}
