package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore 统计穿透到底层存储的次数
type countingStore struct {
	repository.Store
	loads int
}

func (s *countingStore) GetBlockedUserIDsFor(ctx context.Context, blockerID uint64) ([]uint64, error) {
	s.loads++
	return s.Store.GetBlockedUserIDsFor(ctx, blockerID)
}

func TestCachedStoreBlockList(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	inner := &countingStore{Store: memory.New()}
	s := NewCachedStore(inner, nil, time.Minute)

	alice, err := s.CreateUser(ctx, &model.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, &model.User{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	ids, err := s.GetBlockedUserIDsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(ids)
	assert.NotNil(ids)
	_, err = s.GetBlockedUserIDsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(1, inner.loads)

	_, err = s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: bob.ID})
	require.NoError(t, err)
	ids, err = s.GetBlockedUserIDsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{bob.ID}, ids)
	assert.Equal(2, inner.loads)

	require.NoError(t, s.DeleteUserBlock(ctx, alice.ID, bob.ID))
	ids, err = s.GetBlockedUserIDsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(ids)
	assert.Equal(3, inner.loads)

	// 失败的写入不清缓存
	assert.ErrorIs(s.DeleteUserBlock(ctx, alice.ID, bob.ID), model.ErrNotFound)
	_, err = s.GetBlockedUserIDsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(3, inner.loads)
}

func TestNewCachedStoreDefaultTTL(t *testing.T) {
	s := NewCachedStore(memory.New(), nil, 0)
	assert.Equal(t, time.Minute, s.ttl)
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open("not-a-url")
	assert.Error(t, err)
}

func TestSessionStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	assert := assert.New(t)
	ctx := context.Background()
	rdb, err := Open(url)
	require.NoError(t, err)
	defer rdb.Close()

	s := NewSessionStore(rdb)
	const userID = 424242
	require.NoError(t, s.Save(ctx, userID, "token-1"))
	got, err := s.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal("token-1", got)

	require.NoError(t, s.Save(ctx, userID, "token-2"))
	got, err = s.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal("token-2", got)
	require.NoError(t, s.Touch(ctx, userID))

	require.NoError(t, s.Delete(ctx, userID))
	_, err = s.Get(ctx, userID)
	assert.ErrorIs(err, ErrSessionNotFound)
}
