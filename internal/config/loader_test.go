package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadFromAppliesDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
app:
  name: lcsh-api
recommend:
  top_k: ${TOP_K:3}
`)
	t.Setenv("APP_ENV", "unit")
	t.Setenv("API_KEYS", "alpha, beta,alpha")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Recommend.TopK != 3 {
		t.Fatalf("top_k placeholder default not applied: %d", cfg.Recommend.TopK)
	}
	if cfg.Security.RateLimit.Limit != 10 || cfg.Security.RateLimit.Window != 60*time.Second {
		t.Fatalf("rate limit defaults wrong: %+v", cfg.Security.RateLimit)
	}
	if cfg.Clients.LOC.Timeout != 30*time.Second {
		t.Fatalf("loc timeout default wrong: %v", cfg.Clients.LOC.Timeout)
	}
	if want := []string{"alpha", "beta"}; !reflect.DeepEqual(cfg.Security.APIKeys.Keys, want) {
		t.Fatalf("api keys: got %v want %v", cfg.Security.APIKeys.Keys, want)
	}
	if cfg.Security.APIKeys.OpenWhenEmpty {
		t.Fatalf("open_when_empty must default to false")
	}
}

func TestLoadFromMergesEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "recommend:\n  top_k: 5\n")
	writeConfig(t, dir, "config.staging.yaml", "recommend:\n  top_k: 2\ncache:\n  backend: none\n")
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Recommend.TopK != 2 || cfg.Cache.Backend != "none" {
		t.Fatalf("environment overrides not merged: %+v %+v", cfg.Recommend, cfg.Cache)
	}
}

func TestLoadFromRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "unknown cache backend", body: "cache:\n  backend: memcached\n"},
		{name: "zero cache ttl", body: "cache:\n  backend: memory\n  ttl: 0s\n"},
		{name: "negative redis cache ttl", body: "cache:\n  backend: redis\n  ttl: -1m\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.yaml", tc.body)
			t.Setenv("APP_ENV", "unit")

			if _, err := LoadFrom(dir); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadFromAllowsZeroTTLWhenCacheDisabled(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "cache:\n  backend: none\n  ttl: 0s\n")
	t.Setenv("APP_ENV", "unit")

	if _, err := LoadFrom(dir); err != nil {
		t.Fatalf("disabled cache should not require a ttl: %v", err)
	}
}

func TestLoadFromMissingBaseFile(t *testing.T) {
	if _, err := LoadFrom(t.TempDir()); err == nil {
		t.Fatalf("expected error when config.yaml is missing")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("LCSH_SET", "value")
	got := expandEnv("a=${LCSH_SET} b=${LCSH_UNSET:fallback} c=${LCSH_UNSET}")
	if want := "a=value b=fallback c=${LCSH_UNSET}"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestUsesRedis(t *testing.T) {
	cfg := &Config{}
	cfg.Cache.Backend = "memory"
	cfg.Security.RateLimit.Backend = "redis"
	if cfg.UsesRedis() {
		t.Fatalf("disabled rate limiter should not require redis")
	}
	cfg.Security.RateLimit.Enabled = true
	if !cfg.UsesRedis() {
		t.Fatalf("redis rate limiter should require redis")
	}
}
