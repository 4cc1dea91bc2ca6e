// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// 匹配 ${VAR} 或 ${VAR:default}
// g1: 变量名, g2: 默认值部分（含冒号）, g3: 默认值内容
var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		dir = "configs"
	}
	return LoadFrom(dir)
}

// LoadFrom 从指定目录加载配置
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// 沿用部署侧约定的 API_KEYS（逗号分隔）
	_ = v.BindEnv("security.api_keys.keys", "API_KEYS")

	// 设置默认值 (兜底)
	setDefaults(v)

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Security.APIKeys.Keys = splitKeys(cfg.Security.APIKeys.Keys)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// 执行环境变量替换
	expanded := expandEnv(string(content))

	// 加载到 viper
	reader := strings.NewReader(expanded)
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，防止后续 ReadInConfig 报错
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPattern.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		val, ok := os.LookupEnv(key)
		if ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		return match // 保留原样以便识别未定义的变量
	})
}

// splitKeys 展开逗号分隔的 key 并去掉空白与重复项
func splitKeys(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, k := range strings.Split(item, ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("invalid cache.backend %q", c.Cache.Backend)
	}
	// TTL 为 0 时后端会把条目当作永不过期
	if c.Cache.Backend != "none" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when cache is enabled")
	}
	switch c.Security.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid security.rate_limit.backend %q", c.Security.RateLimit.Backend)
	}
	switch c.Similarity.StopWords {
	case "english", "none":
	default:
		return fmt.Errorf("invalid similarity.stop_words %q", c.Similarity.StopWords)
	}
	if c.Recommend.TopK <= 0 {
		return fmt.Errorf("recommend.top_k must be positive")
	}
	if c.Recommend.MaxConcurrentUpstream <= 0 {
		return fmt.Errorf("recommend.max_concurrent_upstream must be positive")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.Limit <= 0 || c.Security.RateLimit.Window <= 0) {
		return fmt.Errorf("security.rate_limit.limit and window must be positive")
	}
	if c.Clients.LOC.BaseURL == "" {
		return fmt.Errorf("clients.loc.base_url is required")
	}
	return nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 应用默认值
	v.SetDefault("app.name", "lcsh-api")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8000)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "60s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.trusted_proxies", []string{})
	v.SetDefault("server.http.max_body_bytes", 1<<20)

	// 上游客户端默认值
	v.SetDefault("clients.loc.base_url", "https://id.loc.gov")
	v.SetDefault("clients.loc.scheme", "http://id.loc.gov/authorities/subjects")
	v.SetDefault("clients.loc.timeout", "30s")
	v.SetDefault("clients.loc.requests_per_second", 1.0)
	v.SetDefault("clients.loc.user_agent", "lcsh-api/1.0")
	v.SetDefault("clients.loc.max_body_bytes", 8<<20)

	// 缓存默认值
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("cache.key_prefix", "lcsh:")
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 20)
	v.SetDefault("cache.redis.min_idle_conns", 2)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	// 相似度默认值
	v.SetDefault("similarity.ngram_max", 2)
	v.SetDefault("similarity.min_token_length", 2)
	v.SetDefault("similarity.stop_words", "english")

	// 推荐默认值
	v.SetDefault("recommend.top_k", 5)
	v.SetDefault("recommend.max_terms", 25)
	v.SetDefault("recommend.max_concurrent_upstream", 4)
	v.SetDefault("recommend.request_timeout", "45s")
	v.SetDefault("recommend.retry.attempts", 1)
	v.SetDefault("recommend.retry.backoff.initial", "200ms")
	v.SetDefault("recommend.retry.backoff.max", "2s")
	v.SetDefault("recommend.retry.backoff.multiplier", 2.0)

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.api_keys.keys", []string{})
	v.SetDefault("security.api_keys.open_when_empty", false)
	v.SetDefault("security.api_keys.header", "X-API-Key")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.backend", "memory")
	v.SetDefault("security.rate_limit.limit", 10)
	v.SetDefault("security.rate_limit.window", "60s")
	v.SetDefault("security.rate_limit.cleanup_interval", "5m")
	v.SetDefault("security.rate_limit.key_prefix", "lcsh:")
}
