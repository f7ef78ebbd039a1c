// Package ratelimit 提供按 key 的滑动窗口限流：窗口内最多 Limit 次放行，
// 窗口边界随时间连续滑动，而非按固定时间片重置。
package ratelimit

import (
	"context"
	"time"
)

// Policy 限流策略
type Policy struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// Decision 一次检查的结果；Allowed 为 true 时已消耗一次配额
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter 距离窗口内最早一次放行过期的时间
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed || d.ResetAt.Before(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

// Limiter 检查并消耗配额，对同一 key 的并发调用必须是原子的
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Clock 可替换的时间源
type Clock func() time.Time

func (p Policy) key(k string) string {
	if p.Prefix == "" {
		return k
	}
	return p.Prefix + ":" + k
}
