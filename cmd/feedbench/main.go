package main

import (
    "context"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "time"

    "github.com/google/uuid"

    "github.com/d60-Lab/emoji-feed/config"
    "github.com/d60-Lab/emoji-feed/internal/identity"
    "github.com/d60-Lab/emoji-feed/internal/model"
    "github.com/d60-Lab/emoji-feed/internal/ratelimit"
    "github.com/d60-Lab/emoji-feed/internal/repository"
    "github.com/d60-Lab/emoji-feed/internal/service"
    "github.com/d60-Lab/emoji-feed/internal/validate"
    "github.com/d60-Lab/emoji-feed/pkg/cache"
    "github.com/d60-Lab/emoji-feed/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func pct(vs []time.Duration, p float64) time.Duration {
    if len(vs) == 0 { return 0 }
    xs := append([]time.Duration(nil), vs...)
    sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
    k := int(math.Ceil(p*float64(len(xs)))) - 1
    if k < 0 { k = 0 }
    if k >= len(xs) { k = len(xs)-1 }
    return xs[k]
}

func avg(vs []time.Duration) time.Duration {
    if len(vs) == 0 { return 0 }
    var sum time.Duration
    for _, d := range vs { sum += d }
    return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
    if s := os.Getenv(name); s != "" {
        if v, e := strconv.Atoi(s); e == nil && v > 0 { return v }
    }
    return def
}

func main() {
    cfg := must(config.Load())
    db := must(database.InitDB(cfg))
    defer database.Close(db)
    if err := database.Migrate(db, &model.Post{}, &model.User{}); err != nil { panic(err) }
    ctx := context.Background()

    AUTHORS := envInt("AUTHORS", 50)   // distinct authors
    POSTS := envInt("POSTS", 1000)     // posts to create (3 per author per window)
    READS := envInt("READS", 200)      // feed reads

    // seed authors in the local directory
    users := repository.NewUserRepository(db)
    authors := make([]string, AUTHORS)
    for i := range authors {
        id := "bench_" + uuid.New().String()[:8]
        authors[i] = id
        if err := users.Upsert(ctx, &model.User{ID: id, FirstName: fmt.Sprintf("Bench%d", i)}); err != nil { panic(err) }
    }

    var provider identity.Provider = identity.NewDirectoryProvider(users)
    var cached *identity.CachedProvider
    if cfg.Redis.Enabled && cfg.Identity.CacheTTL > 0 {
        rdb := must(cache.InitRedis(ctx, cfg))
        defer rdb.Close()
        cached = identity.NewCachedProvider(provider, rdb, cfg.Identity.CacheTTL)
        provider = cached
    }

    limiter := ratelimit.NewMemoryLimiter(ratelimit.Policy{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window}, nil)
    svc := service.NewPostService(repository.NewPostRepository(db), provider, limiter,
        validate.New(validate.MatcherFor(cfg.Posts.EmojiMode), cfg.Posts.MaxLength))

    emojis := []string{"🚀", "🔥", "🎉", "😀", "🌈", "👍🏽"}
    created := make([]time.Duration, 0, POSTS)
    limited := 0
    for i := 0; i < POSTS; i++ {
        st := time.Now()
        _, err := svc.CreatePost(ctx, authors[i%AUTHORS], emojis[i%len(emojis)])
        d := time.Since(st)
        if service.KindOf(err) == service.KindRateLimited { limited++; continue }
        if err != nil { panic(err) }
        created = append(created, d)
    }

    reads := make([]time.Duration, 0, READS)
    rows := 0
    for i := 0; i < READS; i++ {
        st := time.Now()
        feed, err := svc.ListFeed(ctx)
        if err != nil { panic(err) }
        reads = append(reads, time.Since(st))
        rows = len(feed)
    }

    fmt.Printf("AUTHORS=%d POSTS=%d READS=%d LIMIT=%d/%v\n", AUTHORS, POSTS, READS, cfg.RateLimit.Limit, cfg.RateLimit.Window)
    fmt.Printf("CreatePost: ok=%d rate_limited=%d avg=%v p95=%v p99=%v\n", len(created), limited, avg(created), pct(created, 0.95), pct(created, 0.99))
    fmt.Printf("ListFeed: rows=%d avg=%v p95=%v p99=%v\n", rows, avg(reads), pct(reads, 0.95), pct(reads, 0.99))
    if cached != nil {
        c := cached.Counters()
        fmt.Printf("Identity cache: hits=%d misses=%d loads=%d\n", c.Hits, c.Misses, c.Loads)
    }
}
