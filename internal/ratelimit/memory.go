package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Memory keeps one token bucket per key in process memory.
type Memory struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	limit    rate.Limit
	interval time.Duration
	entryTTL time.Duration
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
}

// NewMemory allows one event per interval for each key.
func NewMemory(clock clockwork.Clock, interval time.Duration) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		clock:    clock,
		limit:    rate.Every(interval),
		interval: interval,
		entryTTL: 10 * interval,
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
	}
}

func (m *Memory) Allow(_ context.Context, keys ...string) (Decision, error) {
	keys = compact(keys)
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	reservations := make([]*rate.Reservation, 0, len(keys))
	var wait time.Duration
	for _, key := range keys {
		r := m.limiter(key, now).ReserveN(now, 1)
		reservations = append(reservations, r)
		if !r.OK() {
			wait = max(wait, m.interval)
			continue
		}
		wait = max(wait, r.DelayFrom(now))
	}

	if wait > 0 {
		for _, r := range reservations {
			r.CancelAt(now)
		}
		return Decision{Allowed: false, RetryAfter: wait}, nil
	}
	return Decision{Allowed: true}, nil
}

// Len reports the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

func (m *Memory) limiter(key string, now time.Time) *rate.Limiter {
	m.lastSeen[key] = now
	if l, ok := m.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(m.limit, 1)
	m.limiters[key] = l
	return l
}

func (m *Memory) sweep(now time.Time) {
	for key, ts := range m.lastSeen {
		if now.Sub(ts) > m.entryTTL {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}
}
