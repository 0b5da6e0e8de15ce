package config

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// RedisConfig addresses the Redis instance behind the response cache and
// the rate limiter.
type RedisConfig struct {
	Addr     string // REDIS_ADDR, or REDIS_HOST + REDIS_PORT
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
	TLS      bool   // REDIS_TLS
}

func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
	}
}

// NewRedisClient connects and pings Redis. It returns nil when the server
// cannot be reached; callers then run without caching and rate limiting.
func NewRedisClient(cfg RedisConfig, logger *log.Logger) *redis.Client {
	opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, cache and rate limit disabled", "addr", cfg.Addr, "err", err)
		_ = client.Close()
		return nil
	}
	return client
}

// CacheConfig drives the public response cache. Entries live under Prefix
// so operator writes can purge them in one scan.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string // route | route_query | method_route | method_route_query
	Prefix       string
	MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      map[string]bool{},
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strings.ToLower(envStr("CACHE_KEY_STRATEGY", "route_query")),
		Prefix:       envStr("CACHE_PREFIX", "boxes:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	for _, m := range strings.Split(envStr("CACHE_METHODS", "GET"), ",") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			cfg.Methods[m] = true
		}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}

// RateLimitConfig parameterises the Redis token bucket.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    strings.ToLower(envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route")),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "boxes:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		cfg.Capacity = b
	}
	cfg.Capacity = max(cfg.Capacity, 1)
	cfg.RefillTokens = max(cfg.RefillTokens, 1)
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// The bucket counts in whole milliseconds.
	cfg.RefillInterval = max(cfg.RefillInterval, time.Millisecond)
	cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
	return cfg
}
