// Package service 业务规则层，存储细节交给 repository.Store。
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

var log = slog.Default().With("system", "service")

// requireAdmin 以数据库中的 isAdmin 为准，不信任 token 内容
func requireAdmin(ctx context.Context, store repository.UserStore, userID uint64) (*model.User, error) {
	u, err := store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, fmt.Errorf("%w: admin only", model.ErrForbidden)
	}
	return u, nil
}

// asForbidden 成员关系不存在时转为 Forbidden，其余错误原样返回
func asForbidden(err error, msg string) error {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %s", model.ErrForbidden, msg)
	}
	return err
}

// blockedBy viewer 拉黑的用户集合，viewer 为 0 时为空
func blockedBy(ctx context.Context, store repository.ModerationStore, viewerID uint64) (map[uint64]struct{}, error) {
	if viewerID == 0 {
		return nil, nil
	}
	ids, err := store.GetBlockedUserIDsFor(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return policy.BlockSet(ids), nil
}
