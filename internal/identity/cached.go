package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/emoji-feed/internal/model"
	"github.com/d60-Lab/emoji-feed/pkg/logger"
)

// CachedProvider 在 redis 中缓存作者资料（MGET 命中 + 批量回源）
type CachedProvider struct {
	next  Provider
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

func NewCachedProvider(next Provider, cache *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

func userKey(id string) string { return fmt.Sprintf("identity:user:%s", id) }

func (p *CachedProvider) GetUsersByIDs(ctx context.Context, ids []string, limit int) ([]model.AuthorProfile, error) {
	if _, err := checkBatch(ids, limit); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.AuthorProfile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	cached := make(map[string]model.AuthorProfile, len(ids))
	if vals, err := p.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var prof model.AuthorProfile
			if uErr := json.Unmarshal([]byte(str), &prof); uErr == nil {
				cached[ids[i]] = prof
			}
		}
	} else {
		logger.Warn("identity cache read failed", zap.Error(err))
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}
	p.hits.Add(int64(len(ids) - len(missing)))
	p.misses.Add(int64(len(missing)))

	if len(missing) > 0 {
		p.loads.Add(1)
		fresh, err := p.next.GetUsersByIDs(ctx, missing, limit)
		if err != nil {
			return nil, err
		}
		pipe := p.cache.Pipeline()
		for _, prof := range fresh {
			cached[prof.ID] = prof
			if payload, err := json.Marshal(prof); err == nil {
				pipe.Set(ctx, userKey(prof.ID), payload, p.ttl)
			}
		}
		if pipe.Len() > 0 {
			if _, err := pipe.Exec(ctx); err != nil {
				logger.Warn("identity cache write failed", zap.Error(err))
			}
		}
	}

	out := make([]model.AuthorProfile, 0, len(ids))
	for _, id := range ids {
		if prof, ok := cached[id]; ok {
			out = append(out, prof)
		}
	}
	return out, nil
}

// CacheCounters 缓存命中统计
type CacheCounters struct {
	Hits   int64
	Misses int64
	Loads  int64
}

func (p *CachedProvider) Counters() CacheCounters {
	return CacheCounters{Hits: p.hits.Load(), Misses: p.misses.Load(), Loads: p.loads.Load()}
}

func (p *CachedProvider) ResetCounters() {
	p.hits.Store(0)
	p.misses.Store(0)
	p.loads.Store(0)
}
