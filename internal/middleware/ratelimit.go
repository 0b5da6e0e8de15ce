package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/box-builder/internal/config"
)

// tokenBucket refills atomically inside Redis and takes one token.
// Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

if interval > 0 and refill > 0 then
  local steps = math.floor(math.max(0, now - last) / interval)
  if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    last = last + steps * interval
  end
end

local allowed = 0
local retry = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, math.max(interval, 1) - (now - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last', last)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry}
`)

// NewTokenBucket limits requests per key (see rateKey). Redis failures let
// the request through. A nil client disables limiting.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *log.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				logger.Warn("rate limit check failed", "key", key, "err", err)
				return next(c)
			}
			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if allowed {
				return next(c)
			}

			secs := (retryMs + 999) / 1000
			h.Set("Retry-After", strconv.FormatInt(secs, 10))
			if cfg.Debug {
				logger.Debug("rate limited", "key", key, "retry_ms", retryMs)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too_many_requests",
				"message":     "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()
	var parts []string
	switch cfg.KeyStrategy {
	case "ip":
		parts = []string{"ip", ip}
	case "user":
		parts = []string{"user", principal(c)}
	case "route":
		parts = []string{"route", route}
	case "ip_user":
		parts = []string{"ip", ip, "user", principal(c)}
	case "user_route":
		parts = []string{"user", principal(c), "route", route}
	case "ip_route":
		parts = []string{"ip", ip, "route", route}
	default:
		parts = []string{"ip", ip, "user", principal(c), "route", route}
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}
