package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var testPolicy = Policy{Limit: 3, Window: time.Minute, Prefix: "test"}

func newRedisLimiter(t *testing.T, clock Clock) Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, testPolicy, clock)
}

func forEachLimiter(t *testing.T, fn func(t *testing.T, l Limiter, clock *fakeClock)) {
	t.Run("memory", func(t *testing.T) {
		clock := newFakeClock()
		fn(t, NewMemoryLimiter(testPolicy, clock.Now), clock)
	})
	t.Run("redis", func(t *testing.T) {
		clock := newFakeClock()
		fn(t, newRedisLimiter(t, clock.Now), clock)
	})
}

func TestLimiter_ThreePerWindow(t *testing.T) {
	forEachLimiter(t, func(t *testing.T, l Limiter, clock *fakeClock) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			d, err := l.Allow(ctx, "user_1")
			require.NoError(t, err)
			assert.True(t, d.Allowed, "call %d", i+1)
			assert.Equal(t, 2-i, d.Remaining)
			clock.Advance(time.Second)
		}

		d, err := l.Allow(ctx, "user_1")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Equal(t, 57*time.Second, d.RetryAfter(clock.Now()))

		clock.Advance(time.Minute)
		d, err = l.Allow(ctx, "user_1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}

// 滑动窗口：最早一次放行过期后立即释放一个名额，而不是等整个时间片重置
func TestLimiter_SlidesContinuously(t *testing.T) {
	forEachLimiter(t, func(t *testing.T, l Limiter, clock *fakeClock) {
		ctx := context.Background()

		d, _ := l.Allow(ctx, "k") // t=0
		require.True(t, d.Allowed)
		clock.Advance(40 * time.Second)
		d, _ = l.Allow(ctx, "k") // t=40
		require.True(t, d.Allowed)
		d, _ = l.Allow(ctx, "k") // t=40
		require.True(t, d.Allowed)

		clock.Advance(19 * time.Second) // t=59
		d, _ = l.Allow(ctx, "k")
		assert.False(t, d.Allowed)

		clock.Advance(time.Second) // t=60，第一次放行滑出窗口
		d, _ = l.Allow(ctx, "k")
		assert.True(t, d.Allowed)

		d, _ = l.Allow(ctx, "k")
		assert.False(t, d.Allowed)

		clock.Advance(40 * time.Second) // t=100，t=40 的两次滑出
		d, _ = l.Allow(ctx, "k")
		assert.True(t, d.Allowed)
		d, _ = l.Allow(ctx, "k")
		assert.True(t, d.Allowed)
	})
}

func TestLimiter_DeniedCallsDoNotExtendWindow(t *testing.T) {
	forEachLimiter(t, func(t *testing.T, l Limiter, clock *fakeClock) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			_, _ = l.Allow(ctx, "k")
		}
		for i := 0; i < 10; i++ {
			clock.Advance(5 * time.Second)
			d, _ := l.Allow(ctx, "k")
			assert.False(t, d.Allowed)
		}
		clock.Advance(10 * time.Second)
		d, _ := l.Allow(ctx, "k")
		assert.True(t, d.Allowed)
	})
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	forEachLimiter(t, func(t *testing.T, l Limiter, _ *fakeClock) {
		ctx := context.Background()
		var wg sync.WaitGroup
		var allowedA, allowedB atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if d, err := l.Allow(ctx, "author_a"); err == nil && d.Allowed {
					allowedA.Add(1)
				}
			}()
			go func() {
				defer wg.Done()
				if d, err := l.Allow(ctx, "author_b"); err == nil && d.Allowed {
					allowedB.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(3), allowedA.Load())
		assert.Equal(t, int32(3), allowedB.Load())
	})
}

func TestRedisLimiter_KeyPrefixAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, testPolicy, nil)
	_, err := l.Allow(context.Background(), "user_1")
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:user_1"))
	assert.Equal(t, time.Minute, mr.TTL("test:user_1"))
}

func TestRedisLimiter_Error(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	_, err := NewRedisLimiter(client, testPolicy, nil).Allow(context.Background(), "k")
	assert.Error(t, err)
}
