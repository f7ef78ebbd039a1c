package identity

import (
	"context"
	"fmt"

	"github.com/d60-Lab/emoji-feed/internal/model"
	"github.com/d60-Lab/emoji-feed/internal/repository"
)

// DirectoryProvider 使用本地 users 表作为身份源
type DirectoryProvider struct {
	users repository.UserRepository
}

func NewDirectoryProvider(users repository.UserRepository) *DirectoryProvider {
	return &DirectoryProvider{users: users}
}

func (p *DirectoryProvider) GetUsersByIDs(ctx context.Context, ids []string, limit int) ([]model.AuthorProfile, error) {
	limit, err := checkBatch(ids, limit)
	if err != nil {
		return nil, err
	}
	users, err := p.users.FindByIDs(ctx, ids, limit)
	if err != nil {
		return nil, fmt.Errorf("identity: directory lookup: %w", err)
	}
	out := make([]model.AuthorProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out, nil
}
