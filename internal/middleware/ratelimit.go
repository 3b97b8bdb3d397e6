package middleware

import (
    "context"
    "fmt"
    "log/slog"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/cinema-screenings/internal/config"
)

// takeScript draws one token from the bucket hash at KEYS[1].  Tokens are
// added in whole refill steps since the last recorded refill, capped at
// capacity.  It replies {allowed, remaining, retry_after_ms}.
var takeScript = redis.NewScript(`
local capacity  = tonumber(ARGV[2])
local step      = tonumber(ARGV[3])
local every_ms  = tonumber(ARGV[4])
local now_ms    = tonumber(ARGV[1])

local tokens    = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local refilled  = tonumber(redis.call('HGET', KEYS[1], 'refilled_ms'))
if tokens == nil or refilled == nil then
    tokens, refilled = capacity, now_ms
end

local steps = math.floor(math.max(0, now_ms - refilled) / every_ms)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps * step)
    refilled = refilled + steps * every_ms
end

local allowed, retry = 0, 0
if tokens > 0 then
    allowed, tokens = 1, tokens - 1
else
    retry = math.max(0, every_ms - (now_ms - refilled))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_ms', refilled)
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {allowed, tokens, retry}
`)

// decision is the outcome of one draw.
type decision struct {
    allowed    bool
    remaining  int64
    retryAfter time.Duration
}

func parseDecision(reply any) (decision, error) {
    vals, ok := reply.([]any)
    if !ok || len(vals) != 3 {
        return decision{}, fmt.Errorf("unexpected rate limit reply %#v", reply)
    }
    nums := make([]int64, 3)
    for i, v := range vals {
        n, ok := v.(int64)
        if !ok {
            return decision{}, fmt.Errorf("unexpected rate limit reply %#v", reply)
        }
        nums[i] = n
    }
    return decision{
        allowed:    nums[0] == 1,
        remaining:  nums[1],
        retryAfter: time.Duration(nums[2]) * time.Millisecond,
    }, nil
}

// keyFunc names the bucket a request draws from.
type keyFunc func(prefix string, c echo.Context) string

func clientIP(c echo.Context) string {
    if ip := c.RealIP(); ip != "" {
        return ip
    }
    return "unknown"
}

// routeKey buckets by client address and route pattern.
func routeKey(prefix string, c echo.Context) string {
    return prefix + ":ip:" + clientIP(c) + ":route:" + c.Request().Method + " " + c.Path()
}

// screeningKey buckets by client address and the screening in the path.
func screeningKey(prefix string, c echo.Context) string {
    return prefix + ":booking:ip:" + clientIP(c) + ":screening:" + c.Param("id")
}

type limiter struct {
    rdb *redis.Client
    now func() time.Time
}

func (l *limiter) take(ctx context.Context, key string, b config.Bucket) (decision, error) {
    args := []any{l.now().UnixMilli(), b.Capacity, b.RefillTokens, b.RefillInterval.Milliseconds(), b.TTL().Milliseconds()}
    reply, err := takeScript.Run(ctx, l.rdb, []string{key}, args...).Result()
    if err != nil {
        return decision{}, err
    }
    return parseDecision(reply)
}

func (l *limiter) middleware(cfg config.RateLimitConfig, b config.Bucket, key keyFunc) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            k := key(cfg.Prefix, c)
            d, err := l.take(c.Request().Context(), k, b)
            if err != nil {
                slog.Warn("rate limit check failed; letting request through", "key", k, "err", err)
                return next(c)
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(b.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", k)
            }
            if !d.allowed {
                secs := int((d.retryAfter + time.Second - 1) / time.Second)
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewTokenBucket limits requests with the general bucket, one per client
// address and route.  A disabled config or nil client turns it off;
// Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passthrough
    }
    l := &limiter{rdb: rdb, now: time.Now}
    return l.middleware(cfg, cfg.General, routeKey)
}

// NewBookingLimit limits reservation attempts with the booking bucket,
// one per client address and screening.  It expects the screening id in
// the :id path parameter.
func NewBookingLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passthrough
    }
    l := &limiter{rdb: rdb, now: time.Now}
    return l.middleware(cfg, cfg.Booking, screeningKey)
}
