package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Each key is a sorted set of events scored by their millisecond timestamp.
// The scripts run atomically on the server, so the prune-count-append
// sequence cannot interleave between instances.
var (
	allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local first = now
	if oldest[2] then
		first = tonumber(oldest[2])
	end
	return {0, count, first}
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

	releaseScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
redis.call('ZPOPMAX', key)
if redis.call('ZCARD', key) == 0 then
	redis.call('DEL', key)
end
return 1
`)
)

// RedisLimiter keeps sliding windows in Redis so every instance of the
// service sees the same counts. Expired sets vanish through PEXPIRE.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
	clock  Clock
}

func NewRedis(client redis.Scripter, prefix string, limit int, window time.Duration, clock Clock) *RedisLimiter {
	if clock == nil {
		clock = SystemClock
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		clock:  clock,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.clock.Now().UnixMilli()
	res, err := allowScript.Run(ctx, r.client, []string{r.prefix + key},
		now, r.window.Milliseconds(), strconv.Itoa(r.limit), uuid.NewString()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("allow rate limit event: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("allow rate limit event: unexpected reply %v", res)
	}
	if res[0] == 0 {
		wait := r.window - time.Duration(now-res[2])*time.Millisecond
		if wait <= 0 {
			wait = time.Second
		}
		return Decision{Allowed: false, RetryAfter: wait}, nil
	}
	return Decision{Allowed: true, Remaining: r.limit - int(res[1])}, nil
}

func (r *RedisLimiter) Release(ctx context.Context, key string) error {
	now := r.clock.Now().UnixMilli()
	err := releaseScript.Run(ctx, r.client, []string{r.prefix + key}, now, r.window.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("release rate limit event: %w", err)
	}
	return nil
}
