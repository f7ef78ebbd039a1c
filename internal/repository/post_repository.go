package repository

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/d60-Lab/emoji-feed/internal/model"
)

// PostRepository 帖子存储
type PostRepository interface {
    // Create 插入一条帖子，ID 与时间戳由存储层生成
    Create(ctx context.Context, content, authorID string) (*model.Post, error)
    // ListRecent 按创建时间倒序返回最多 limit 条
    ListRecent(ctx context.Context, limit int) ([]*model.Post, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, content, authorID string) (*model.Post, error) {
    p := &model.Post{ID: uuid.New().String(), Content: content, AuthorID: authorID}
    if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
        return nil, err
    }
    return p, nil
}

func (r *postRepository) ListRecent(ctx context.Context, limit int) ([]*model.Post, error) {
    if limit <= 0 { limit = 100 }
    res := make([]*model.Post, 0, limit)
    err := r.db.WithContext(ctx).
        Order("created_at DESC").
        Order("id DESC").
        Limit(limit).
        Find(&res).Error
    return res, err
}
