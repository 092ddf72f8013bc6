package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/crossarb/internal/ratelimit"
)

// slidingWindowLua keeps one sorted-set member per admitted request, scored by
// its admission time in microseconds. It returns {1, 0} when the request is
// admitted and {0, wait_us} otherwise, where wait_us is how long until the
// oldest member leaves the window.
const slidingWindowLua = `
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) < limit then
    redis.call('ZADD', key, now, ARGV[4])
    redis.call('PEXPIRE', key, math.ceil(window / 1000))
    return {1, 0}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, tonumber(oldest[2]) + window - now}
`

const (
	minRetryWait  = time.Millisecond
	statusTimeout = 2 * time.Second
)

// RateLimiter is a sliding-window limiter shared by every replica that uses
// the same key. It satisfies ratelimit.Acquirer, so a venue client can be
// pointed at it instead of the in-process limiter. While Redis is unreachable
// it admits requests through an in-process window of the same size.
type RateLimiter struct {
	rdb      *redis.Client
	script   *redis.Script
	key      string
	limit    int
	window   time.Duration
	now      func() time.Time
	fallback *ratelimit.SlidingWindow
	degraded atomic.Bool
	logger   *slog.Logger
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterLogger sets the logger used to report Redis outages.
func WithRateLimiterLogger(logger *slog.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		if logger != nil {
			rl.logger = logger
		}
	}
}

// NewRateLimiter creates a limiter admitting limit requests per window for
// key. A non-positive limit is treated as 1.
func NewRateLimiter(c *Client, key string, limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = ratelimit.DefaultWindow
	}
	rl := &RateLimiter{
		rdb:      c.Underlying(),
		script:   redis.NewScript(slidingWindowLua),
		key:      rateLimitKey(key),
		limit:    limit,
		window:   window,
		now:      time.Now,
		fallback: ratelimit.NewSlidingWindow(limit, window),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rl)
	}
	rl.logger = rl.logger.With(slog.String("component", "rate_limiter"), slog.String("key", rl.key))
	return rl
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// allow tries to record one request. When refused it reports how long to wait.
func (rl *RateLimiter) allow(ctx context.Context) (bool, time.Duration, error) {
	now := rl.now().UnixMicro()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	res, err := rl.script.Run(ctx, rl.rdb, []string{rl.key},
		now, rl.window.Microseconds(), rl.limit, member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("redis: rate limit %s: %w", rl.key, err)
	}
	if len(res) < 2 {
		return false, 0, fmt.Errorf("redis: rate limit %s: unexpected result length %d", rl.key, len(res))
	}
	return res[0] == 1, time.Duration(res[1]) * time.Microsecond, nil
}

// Acquire blocks until the shared window has room. Only context cancellation
// is returned: when Redis fails the request waits on the in-process window
// instead, so a Redis outage slows venue traffic rather than failing it.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	for {
		ok, wait, err := rl.allow(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("redis: rate limit %s: %w", rl.key, ctx.Err())
			}
			if !rl.degraded.Swap(true) {
				rl.logger.Warn("shared rate limit unavailable, using local window",
					slog.String("error", err.Error()))
			}
			return rl.fallback.Acquire(ctx)
		}
		if rl.degraded.Swap(false) {
			rl.logger.Info("shared rate limit restored")
		}
		if ok {
			return nil
		}
		wait = max(wait, minRetryWait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("redis: rate limit %s: %w", rl.key, ctx.Err())
		case <-timer.C:
		}
	}
}

// Available reports the remaining slots in the shared window, or in the
// local window when Redis cannot be reached.
func (rl *RateLimiter) Available() int {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	now := rl.now().UnixMicro()
	minScore := strconv.FormatInt(now-rl.window.Microseconds(), 10)
	n, err := rl.rdb.ZCount(ctx, rl.key, "("+minScore, "+inf").Result()
	if err != nil {
		return rl.fallback.Available()
	}
	return max(rl.limit-int(n), 0)
}

// Limit returns the configured request budget.
func (rl *RateLimiter) Limit() int { return rl.limit }

// Window returns the configured window length.
func (rl *RateLimiter) Window() time.Duration { return rl.window }

var _ ratelimit.Acquirer = (*RateLimiter)(nil)
