package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	SessionKeyPrefix = "login:user:token"
	SessionTTL       = 30 * time.Minute
)

// SessionStore 每个用户只保留最近一次登录的 access token，
// 中间件据此拒绝在别处登录后被顶掉的旧 token
type SessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{Client: client, TTL: SessionTTL}
}

func (s *SessionStore) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", SessionKeyPrefix, userID)
}

func (s *SessionStore) Save(ctx context.Context, userID uint64, token string) error {
	if err := s.Client.Set(ctx, s.key(userID), token, s.TTL).Err(); err != nil {
		log.Warn("save session failed", "user", userID, "err", err)
		return ErrRedisUnavailable
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, userID uint64) (string, error) {
	token, err := s.Client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// Touch 校验通过后续期
func (s *SessionStore) Touch(ctx context.Context, userID uint64) error {
	if err := s.Client.Expire(ctx, s.key(userID), s.TTL).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, userID uint64) error {
	if err := s.Client.Del(ctx, s.key(userID)).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}
