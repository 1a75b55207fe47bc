package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis enforces the interval with expiring SET NX keys so that every API
// replica shares one view of recent submissions.
type Redis struct {
	client    *goredis.Client
	interval  time.Duration
	keyPrefix string
}

func NewRedis(client *goredis.Client, interval time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = "ratelimit:ballot"
	}
	return &Redis{client: client, interval: interval, keyPrefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, keys ...string) (Decision, error) {
	keys = compact(keys)
	acquired := make([]string, 0, len(keys))

	for _, k := range keys {
		key := r.keyPrefix + ":" + k
		ok, err := r.client.SetNX(ctx, key, 1, r.interval).Result()
		if err != nil {
			r.release(ctx, acquired)
			return Decision{}, fmt.Errorf("ratelimit: set %s: %w", key, err)
		}
		if ok {
			acquired = append(acquired, key)
			continue
		}

		ttl, err := r.client.PTTL(ctx, key).Result()
		r.release(ctx, acquired)
		if err != nil {
			return Decision{}, fmt.Errorf("ratelimit: ttl %s: %w", key, err)
		}
		if ttl <= 0 {
			ttl = r.interval
		}
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}

	return Decision{Allowed: true}, nil
}

func (r *Redis) release(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	_ = r.client.Del(ctx, keys...).Err()
}
