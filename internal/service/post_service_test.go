package service

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"

    "github.com/d60-Lab/emoji-feed/internal/model"
    "github.com/d60-Lab/emoji-feed/internal/ratelimit"
    "github.com/d60-Lab/emoji-feed/internal/repository"
    "github.com/d60-Lab/emoji-feed/internal/validate"
)

type stubProvider struct {
    users map[string]model.AuthorProfile
    err   error
    calls [][]string
}

func (s *stubProvider) GetUsersByIDs(_ context.Context, ids []string, _ int) ([]model.AuthorProfile, error) {
    s.calls = append(s.calls, ids)
    if s.err != nil { return nil, s.err }
    out := []model.AuthorProfile{}
    for _, id := range ids {
        if u, ok := s.users[id]; ok { out = append(out, u) }
    }
    return out, nil
}

type spyLimiter struct {
    mu    sync.Mutex
    next  ratelimit.Limiter
    calls int
    err   error
}

func (s *spyLimiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
    s.mu.Lock()
    s.calls++
    s.mu.Unlock()
    if s.err != nil { return ratelimit.Decision{}, s.err }
    return s.next.Allow(ctx, key)
}

type failingRepo struct{ repository.PostRepository }

func (failingRepo) Create(context.Context, string, string) (*model.Post, error) {
    return nil, errors.New("db down")
}
func (failingRepo) ListRecent(context.Context, int) ([]*model.Post, error) {
    return nil, errors.New("db down")
}

type fixture struct {
    db       *gorm.DB
    svc      PostService
    users    *stubProvider
    limiter  *spyLimiter
    clock    time.Time
}

func (f *fixture) now() time.Time { return f.clock }

func setup(t *testing.T) *fixture {
    t.Helper()
    db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
    require.NoError(t, err)
    sqlDB, _ := db.DB()
    sqlDB.SetMaxOpenConns(1)
    require.NoError(t, db.AutoMigrate(&model.Post{}))

    f := &fixture{
        db:    db,
        users: &stubProvider{users: map[string]model.AuthorProfile{
            "user_a": {ID: "user_a", FirstName: "Ada"},
            "user_b": {ID: "user_b", FirstName: "Bob"},
        }},
        clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
    }
    policy := ratelimit.Policy{Limit: 3, Window: time.Minute}
    f.limiter = &spyLimiter{next: ratelimit.NewMemoryLimiter(policy, f.now)}
    f.svc = NewPostService(repository.NewPostRepository(db), f.users, f.limiter,
        validate.New(validate.EmojiOnly, 255), WithClock(f.now))
    return f
}

func countPosts(t *testing.T, db *gorm.DB) int64 {
    var n int64
    require.NoError(t, db.Model(&model.Post{}).Count(&n).Error)
    return n
}

func TestCreatePost_Success(t *testing.T) {
    f := setup(t)
    for _, content := range []string{"🚀", "😀😀", "👍🏽"} {
        p, err := f.svc.CreatePost(context.Background(), "user_a", content)
        require.NoError(t, err)
        assert.Equal(t, content, p.Content)
        assert.Equal(t, "user_a", p.AuthorID)
        assert.NotEmpty(t, p.ID)
    }
    assert.Equal(t, int64(3), countPosts(t, f.db))
}

func TestCreatePost_ValidationFailsBeforeLimiter(t *testing.T) {
    f := setup(t)
    for _, content := range []string{"hello", "", "😀 ok"} {
        _, err := f.svc.CreatePost(context.Background(), "user_a", content)
        require.Error(t, err)
        var ae *AppError
        require.True(t, errors.As(err, &ae))
        assert.Equal(t, KindValidation, ae.Kind)
        assert.Equal(t, "content", ae.Field)
        assert.NotEmpty(t, ae.Message)
    }
    assert.Equal(t, 0, f.limiter.calls)
    assert.Equal(t, int64(0), countPosts(t, f.db))
}

func TestCreatePost_RateLimited(t *testing.T) {
    f := setup(t)
    ctx := context.Background()
    for i := 0; i < 3; i++ {
        _, err := f.svc.CreatePost(ctx, "user_a", "🔥")
        require.NoError(t, err)
        f.clock = f.clock.Add(10 * time.Second)
    }

    _, err := f.svc.CreatePost(ctx, "user_a", "🔥")
    require.Error(t, err)
    var ae *AppError
    require.True(t, errors.As(err, &ae))
    assert.Equal(t, KindRateLimited, ae.Kind)
    assert.Equal(t, int64(30), ae.RetryAfter)
    assert.Equal(t, int64(3), countPosts(t, f.db))

    // 其他作者不受影响
    _, err = f.svc.CreatePost(ctx, "user_b", "🔥")
    require.NoError(t, err)

    f.clock = f.clock.Add(time.Minute)
    _, err = f.svc.CreatePost(ctx, "user_a", "🔥")
    require.NoError(t, err)
}

func TestCreatePost_DependencyErrors(t *testing.T) {
    f := setup(t)
    f.limiter.err = errors.New("redis down")
    _, err := f.svc.CreatePost(context.Background(), "user_a", "🔥")
    assert.Equal(t, KindInternal, KindOf(err))

    svc := NewPostService(failingRepo{}, f.users, ratelimit.NewMemoryLimiter(ratelimit.Policy{Limit: 3, Window: time.Minute}, nil), validate.New(nil, 0))
    _, err = svc.CreatePost(context.Background(), "user_a", "🔥")
    require.Error(t, err)
    var ae *AppError
    require.True(t, errors.As(err, &ae))
    assert.Equal(t, KindInternal, ae.Kind)
    assert.NotContains(t, ae.Message, "db down")
}

func TestCreatePost_RequiresAuthor(t *testing.T) {
    f := setup(t)
    _, err := f.svc.CreatePost(context.Background(), "", "🔥")
    assert.Equal(t, KindUnauthorized, KindOf(err))
    assert.ErrorIs(t, err, ErrUnauthenticated)
}

func seedPosts(t *testing.T, db *gorm.DB, n int, authors ...string) {
    base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    for i := 0; i < n; i++ {
        ts := base.Add(time.Duration(i) * time.Second)
        require.NoError(t, db.Create(&model.Post{
            ID: fmt.Sprintf("p%04d", i), Content: "😀", AuthorID: authors[i%len(authors)], CreatedAt: ts, UpdatedAt: ts,
        }).Error)
    }
}

func TestListFeed_Empty(t *testing.T) {
    f := setup(t)
    feed, err := f.svc.ListFeed(context.Background())
    require.NoError(t, err)
    assert.NotNil(t, feed)
    assert.Empty(t, feed)
    assert.Empty(t, f.users.calls)
}

func TestListFeed_OrderedAndBounded(t *testing.T) {
    f := setup(t)
    seedPosts(t, f.db, 150, "user_a", "user_b")

    feed, err := f.svc.ListFeed(context.Background())
    require.NoError(t, err)
    require.Len(t, feed, 100)
    assert.Equal(t, "p0149", feed[0].ID)
    for i := 1; i < len(feed); i++ {
        assert.False(t, feed[i].CreatedAt.After(feed[i-1].CreatedAt))
    }
    for _, e := range feed {
        assert.Equal(t, e.AuthorID, e.Author.ID)
    }

    require.Len(t, f.users.calls, 1)
    assert.ElementsMatch(t, []string{"user_a", "user_b"}, f.users.calls[0])
}

func TestListFeed_MissingAuthorFailsWholeRead(t *testing.T) {
    f := setup(t)
    seedPosts(t, f.db, 5, "user_a", "ghost")

    feed, err := f.svc.ListFeed(context.Background())
    require.Error(t, err)
    assert.Nil(t, feed)
    assert.Equal(t, KindInternal, KindOf(err))
    assert.ErrorIs(t, err, ErrAuthorNotFound)
}

func TestListFeed_DependencyErrors(t *testing.T) {
    f := setup(t)
    seedPosts(t, f.db, 2, "user_a")
    f.users.err = errors.New("identity down")

    _, err := f.svc.ListFeed(context.Background())
    assert.Equal(t, KindInternal, KindOf(err))

    svc := NewPostService(failingRepo{}, f.users, f.limiter, validate.New(nil, 0))
    _, err = svc.ListFeed(context.Background())
    assert.Equal(t, KindInternal, KindOf(err))
}

func TestWithPageSize(t *testing.T) {
    f := setup(t)
    seedPosts(t, f.db, 20, "user_a")
    svc := NewPostService(repository.NewPostRepository(f.db), f.users, f.limiter, validate.New(nil, 0), WithPageSize(5))
    feed, err := svc.ListFeed(context.Background())
    require.NoError(t, err)
    assert.Len(t, feed, 5)
}
