package service

import (
    "context"
    "fmt"
    "math"
    "time"

    "go.uber.org/zap"

    "github.com/d60-Lab/emoji-feed/internal/identity"
    "github.com/d60-Lab/emoji-feed/internal/model"
    "github.com/d60-Lab/emoji-feed/internal/ratelimit"
    "github.com/d60-Lab/emoji-feed/internal/repository"
    "github.com/d60-Lab/emoji-feed/internal/validate"
    "github.com/d60-Lab/emoji-feed/pkg/logger"
)

// DefaultPageSize feed 单次返回的最大条数，同时也是身份源批量上限
const DefaultPageSize = 100

// PostService 帖子查询与发布
type PostService interface {
    // ListFeed 最新的帖子并拼接作者资料；任一作者缺失则整体失败
    ListFeed(ctx context.Context) ([]model.FeedEntry, error)
    // CreatePost 校验 -> 限流 -> 写入
    CreatePost(ctx context.Context, authorID, content string) (*model.Post, error)
}

type postService struct {
    posts     repository.PostRepository
    users     identity.Provider
    limiter   ratelimit.Limiter
    validator *validate.Validator
    pageSize  int
    now       func() time.Time
}

type Option func(*postService)

func WithPageSize(n int) Option {
    return func(s *postService) {
        if n > 0 && n <= DefaultPageSize { s.pageSize = n }
    }
}

func WithClock(now func() time.Time) Option {
    return func(s *postService) { s.now = now }
}

func NewPostService(posts repository.PostRepository, users identity.Provider, limiter ratelimit.Limiter, v *validate.Validator, opts ...Option) PostService {
    s := &postService{posts: posts, users: users, limiter: limiter, validator: v, pageSize: DefaultPageSize, now: time.Now}
    for _, o := range opts { o(s) }
    return s
}

func (s *postService) ListFeed(ctx context.Context) ([]model.FeedEntry, error) {
    posts, err := s.posts.ListRecent(ctx, s.pageSize)
    if err != nil {
        logger.Error("list posts failed", zap.Error(err))
        return nil, Internal("Failed to load posts", err)
    }
    if len(posts) == 0 {
        return []model.FeedEntry{}, nil
    }

    ids := distinctAuthors(posts)
    profiles, err := s.users.GetUsersByIDs(ctx, ids, s.pageSize)
    if err != nil {
        logger.Error("fetch authors failed", zap.Int("authors", len(ids)), zap.Error(err))
        return nil, Internal("Failed to load authors", err)
    }
    byID := make(map[string]model.AuthorProfile, len(profiles))
    for _, p := range profiles { byID[p.ID] = p }

    feed := make([]model.FeedEntry, 0, len(posts))
    for _, p := range posts {
        author, ok := byID[p.AuthorID]
        if !ok {
            logger.Error("feed author missing", zap.String("post_id", p.ID), zap.String("author_id", p.AuthorID))
            return nil, Internal("Author not found", fmt.Errorf("post %s: %w", p.ID, ErrAuthorNotFound))
        }
        feed = append(feed, model.FeedEntry{Post: *p, Author: author})
    }
    return feed, nil
}

func distinctAuthors(posts []*model.Post) []string {
    seen := make(map[string]struct{}, len(posts))
    ids := make([]string, 0, len(posts))
    for _, p := range posts {
        if _, ok := seen[p.AuthorID]; ok { continue }
        seen[p.AuthorID] = struct{}{}
        ids = append(ids, p.AuthorID)
    }
    return ids
}

func (s *postService) CreatePost(ctx context.Context, authorID, content string) (*model.Post, error) {
    if authorID == "" {
        return nil, &AppError{Kind: KindUnauthorized, Message: "Sign in to post", Err: ErrUnauthenticated}
    }

    if r := s.validator.Content(content); !r.OK() {
        logger.Debug("post rejected", zap.String("author_id", authorID), zap.String("reason", string(r.Reason)))
        return nil, Validation(r.Field, r.Message)
    }

    d, err := s.limiter.Allow(ctx, authorID)
    if err != nil {
        logger.Error("rate limiter failed", zap.String("author_id", authorID), zap.Error(err))
        return nil, Internal("Failed to create post", err)
    }
    if !d.Allowed {
        retry := int64(math.Ceil(d.RetryAfter(s.now()).Seconds()))
        logger.Info("post rate limited", zap.String("author_id", authorID), zap.Time("reset_at", d.ResetAt))
        return nil, RateLimited(retry)
    }

    post, err := s.posts.Create(ctx, content, authorID)
    if err != nil {
        logger.Error("insert post failed", zap.String("author_id", authorID), zap.Error(err))
        return nil, Internal("Failed to create post", err)
    }
    logger.Info("post created", zap.String("post_id", post.ID), zap.String("author_id", authorID))
    return post, nil
}
