package repository

import (
    "context"

    "gorm.io/gorm"
    "gorm.io/gorm/clause"

    "github.com/d60-Lab/emoji-feed/internal/model"
)

// UserRepository 本地身份目录
type UserRepository interface {
    Upsert(ctx context.Context, u *model.User) error
    FindByIDs(ctx context.Context, ids []string, limit int) ([]*model.User, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Upsert(ctx context.Context, u *model.User) error {
    return r.db.WithContext(ctx).Clauses(clause.OnConflict{
        Columns:   []clause.Column{{Name: "id"}},
        DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "email", "profile_image_url", "updated_at"}),
    }).Create(u).Error
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string, limit int) ([]*model.User, error) {
    res := make([]*model.User, 0, len(ids))
    if len(ids) == 0 {
        return res, nil
    }
    q := r.db.WithContext(ctx).Where("id IN ?", ids)
    if limit > 0 {
        q = q.Limit(limit)
    }
    err := q.Find(&res).Error
    return res, err
}
