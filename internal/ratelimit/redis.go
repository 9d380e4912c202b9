package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the counter and sets the expiry only when the key is
// created, so the window is fixed rather than sliding.
var hitScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {c, redis.call('PTTL', KEYS[1])}
`)

type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "printhub:ratelimit:"}
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	res, err := hitScript.Run(ctx, s.rdb, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}

	resetIn := time.Duration(res[1]) * time.Millisecond
	if resetIn < 0 {
		resetIn = window
	}
	return int(res[0]), resetIn, nil
}
