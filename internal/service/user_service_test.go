package service

import (
	"context"
	"testing"

	"The_Connection/internal/model"
	"The_Connection/internal/pkg"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	tokens map[uint64]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[uint64]string{}}
}

func (f *fakeSessions) Save(_ context.Context, userID uint64, token string) error {
	f.tokens[userID] = token
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, userID uint64) error {
	delete(f.tokens, userID)
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	sessions := newFakeSessions()
	svc := NewUserService(memory.New(), sessions)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "12345")
	assert.ErrorIs(err, model.ErrValidation)

	u, err := svc.Register(ctx, "alice", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal("alice@example.com", u.Email)
	assert.True(u.NotifyDMs)
	assert.NotEqual("secret1", u.Password)

	_, err = svc.Register(ctx, "alice", "other@example.com", "secret1")
	assert.ErrorIs(err, model.ErrConflict)

	pair, got, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(u.ID, got.ID)
	assert.Equal(pair.AccessToken, sessions.tokens[u.ID])

	claims, err := pkg.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(u.ID, claims.UserID)

	_, got, err = svc.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(u.ID, got.ID)

	_, _, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(err, ErrBadCredentials)
	_, _, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(err, ErrBadCredentials)
}

func TestRefresh(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	sessions := newFakeSessions()
	svc := NewUserService(memory.New(), sessions)

	u, err := svc.Register(ctx, "bob", "bob@example.com", "secret1")
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "bob", "secret1")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(next.AccessToken, sessions.tokens[u.ID])

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(err, pkg.ErrRefreshInvalid)

	// 注销后的账号不能续签
	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.Empty(sessions.tokens)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(err, model.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	sessions := newFakeSessions()
	svc := NewUserService(memory.New(), sessions)

	u, err := svc.Register(ctx, "carol", "carol@example.com", "secret1")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "carol", "secret1")
	require.NoError(t, err)
	assert.Contains(sessions.tokens, u.ID)

	assert.ErrorIs(svc.ChangePassword(ctx, u.ID, "nope", "secret2"), ErrBadCredentials)
	assert.ErrorIs(svc.ChangePassword(ctx, u.ID, "secret1", "123"), model.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret1", "secret2"))
	assert.NotContains(sessions.tokens, u.ID)

	_, _, err = svc.Login(ctx, "carol", "secret1")
	assert.ErrorIs(err, ErrBadCredentials)
	_, _, err = svc.Login(ctx, "carol", "secret2")
	assert.NoError(err)
}

func TestUpdateSettingsIgnoresPrivilegedFields(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc := NewUserService(memory.New(), nil)

	u, err := svc.Register(ctx, "dave", "dave@example.com", "secret1")
	require.NoError(t, err)

	yes := true
	bio := "choir tenor"
	nobody := model.DMPrivacyNobody
	hash := "plain"
	got, err := svc.UpdateSettings(ctx, u.ID, model.UserPatch{Bio: &bio, DMPrivacy: &nobody, IsAdmin: &yes, Password: &hash})
	require.NoError(t, err)
	assert.Equal("choir tenor", got.Bio)
	assert.Equal(model.DMPrivacyNobody, got.DMPrivacy)
	assert.False(got.IsAdmin)
	assert.Equal(u.Password, got.Password)

	bad := model.DMPrivacy("friends-of-friends")
	_, err = svc.UpdateSettings(ctx, u.ID, model.UserPatch{DMPrivacy: &bad})
	assert.ErrorIs(err, model.ErrValidation)
}

func TestPushTokens(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewUserService(store, nil)
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	_, err := svc.RegisterPushToken(ctx, alice.ID, "tok-alice", "ios")
	require.NoError(t, err)
	_, err = svc.RegisterPushToken(ctx, bob.ID, "tok-bob", "android")
	require.NoError(t, err)

	assert.ErrorIs(svc.RemovePushToken(ctx, alice.ID, "tok-bob"), model.ErrNotFound)
	tokens, err := store.ListPushTokens(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(tokens, 1)

	require.NoError(t, svc.RemovePushToken(ctx, alice.ID, "tok-alice"))
	tokens, err = store.ListPushTokens(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(tokens)
}
