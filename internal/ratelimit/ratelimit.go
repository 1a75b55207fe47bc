// Package ratelimit caps accepted submissions per identity.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter admits a request only if every key has capacity. A denied call
// consumes nothing.
type Limiter interface {
	Allow(ctx context.Context, keys ...string) (Decision, error)
}

// Gate bounds a Limiter with a timeout and fails closed on any error.
type Gate struct {
	limiter  Limiter
	timeout  time.Duration
	interval time.Duration
	log      *slog.Logger
}

func NewGate(l Limiter, timeout, interval time.Duration, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{limiter: l, timeout: timeout, interval: interval, log: logger}
}

func (g *Gate) Allow(ctx context.Context, keys ...string) (Decision, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	d, err := g.limiter.Allow(ctx, keys...)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		g.log.Warn("rate limiter unavailable, denying", "error", err)
		return Decision{Allowed: false, RetryAfter: g.interval}, nil
	}
	return d, nil
}

func compact(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
