// Package identity 封装外部身份源：按 ID 批量获取作者资料。
package identity

import (
	"context"
	"errors"

	"github.com/d60-Lab/emoji-feed/internal/model"
)

// MaxBatch 身份源单次批量查询上限
const MaxBatch = 100

var ErrBatchTooLarge = errors.New("identity: too many ids in one batch")

// Provider 身份源；返回结果不保证顺序，也不保证覆盖所有 id
type Provider interface {
	GetUsersByIDs(ctx context.Context, ids []string, limit int) ([]model.AuthorProfile, error)
}

func checkBatch(ids []string, limit int) (int, error) {
	if limit <= 0 || limit > MaxBatch {
		limit = MaxBatch
	}
	if len(ids) > limit {
		return 0, ErrBatchTooLarge
	}
	return limit, nil
}
