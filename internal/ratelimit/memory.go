package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter 单进程版滑动窗口，语义与 RedisLimiter 一致
type MemoryLimiter struct {
	mu     sync.Mutex
	policy Policy
	now    Clock
	logs   map[string][]time.Time
}

func NewMemoryLimiter(policy Policy, now Clock) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{policy: policy, now: now, logs: make(map[string][]time.Time)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()
	cutoff := now.Add(-l.policy.Window)
	k := l.policy.key(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.logs[k]
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	log = log[i:]

	d := Decision{Limit: l.policy.Limit}
	if len(log) < l.policy.Limit {
		log = append(log, now)
		d.Allowed = true
	}
	d.Remaining = l.policy.Limit - len(log)
	if len(log) > 0 {
		d.ResetAt = log[0].Add(l.policy.Window)
		l.logs[k] = log
	} else {
		d.ResetAt = now.Add(l.policy.Window)
		delete(l.logs, k)
	}
	return d, nil
}
