package redis

import (
	"context"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

const blockKeyPrefix = "blocks/"

// CachedStore 包装 repository.Store，缓存每个用户的拉黑列表。
// 私信校验和各类列表过滤都会读这份列表，写入只发生在拉黑与取消拉黑。
type CachedStore struct {
	repository.Store
	blocks *cache.Cache
	ttl    time.Duration
}

var _ repository.Store = (*CachedStore)(nil)

// NewCachedStore rdb 为 nil 时只使用进程内缓存
func NewCachedStore(inner repository.Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	opts := &cache.Options{LocalCache: cache.NewTinyLFU(10_000, ttl)}
	if rdb != nil {
		opts.Redis = rdb
	}
	return &CachedStore{
		Store:  inner,
		blocks: cache.New(opts),
		ttl:    ttl,
	}
}

func blockKey(blockerID uint64) string {
	return fmt.Sprintf("%s%d", blockKeyPrefix, blockerID)
}

func (s *CachedStore) GetBlockedUserIDsFor(ctx context.Context, blockerID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.blocks.Once(&cache.Item{
		Ctx:   ctx,
		Key:   blockKey(blockerID),
		Value: &ids,
		TTL:   s.ttl,
		Do: func(*cache.Item) (any, error) {
			got, err := s.Store.GetBlockedUserIDsFor(ctx, blockerID)
			if got == nil {
				got = []uint64{}
			}
			return got, err
		},
	})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

func (s *CachedStore) CreateUserBlock(ctx context.Context, b *model.UserBlock) (*model.UserBlock, error) {
	out, err := s.Store.CreateUserBlock(ctx, b)
	if err != nil {
		return nil, err
	}
	s.purge(ctx, b.BlockerID)
	return out, nil
}

func (s *CachedStore) DeleteUserBlock(ctx context.Context, blockerID, blockedID uint64) error {
	if err := s.Store.DeleteUserBlock(ctx, blockerID, blockedID); err != nil {
		return err
	}
	s.purge(ctx, blockerID)
	return nil
}

func (s *CachedStore) purge(ctx context.Context, blockerID uint64) {
	err := s.blocks.Delete(ctx, blockKey(blockerID))
	if err != nil && err != cache.ErrCacheMiss {
		log.Warn("purge block cache failed", "blocker", blockerID, "err", err)
	}
}
