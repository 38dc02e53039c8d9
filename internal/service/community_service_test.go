package service

import (
	"context"
	"testing"

	"The_Connection/internal/model"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityOwnership(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewCommunityService(store)
	owner := newUser(t, store, "owner")
	member := newUser(t, store, "member")

	c, err := svc.Create(ctx, owner.ID, &model.Community{Name: "Young Adults"})
	require.NoError(t, err)
	assert.Equal(owner.ID, c.CreatedBy)
	assert.EqualValues(1, c.MemberCount)

	_, err = svc.Join(ctx, member.ID, c.ID)
	require.NoError(t, err)
	_, err = svc.Join(ctx, member.ID, c.ID)
	assert.ErrorIs(err, model.ErrConflict)

	assert.ErrorIs(svc.Leave(ctx, owner.ID, c.ID), model.ErrValidation)
	assert.ErrorIs(svc.Delete(ctx, member.ID, c.ID), model.ErrForbidden)

	desc := "weekly study"
	_, err = svc.Update(ctx, member.ID, c.ID, model.CommunityPatch{Description: &desc})
	assert.ErrorIs(err, model.ErrForbidden)

	_, err = svc.SetRole(ctx, member.ID, c.ID, member.ID, model.RoleModerator)
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.SetRole(ctx, owner.ID, c.ID, member.ID, model.RoleOwner)
	assert.ErrorIs(err, model.ErrValidation)
	_, err = svc.SetRole(ctx, owner.ID, c.ID, owner.ID, model.RoleModerator)
	assert.ErrorIs(err, model.ErrValidation)
	m, err := svc.SetRole(ctx, owner.ID, c.ID, member.ID, model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(model.RoleModerator, m.Role)

	// 版主可以改资料但不能删除社区
	updated, err := svc.Update(ctx, member.ID, c.ID, model.CommunityPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal("weekly study", updated.Description)
	assert.ErrorIs(svc.Delete(ctx, member.ID, c.ID), model.ErrForbidden)

	require.NoError(t, svc.Leave(ctx, member.ID, c.ID))
	got, err := svc.Get(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.EqualValues(1, got.MemberCount)

	require.NoError(t, svc.Delete(ctx, owner.ID, c.ID))
	_, err = svc.Get(ctx, owner.ID, c.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	assert.ErrorIs(svc.Delete(ctx, owner.ID, c.ID), model.ErrNotFound)
}

func TestPrivateCommunityHiddenFromOutsiders(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewCommunityService(store)
	owner := newUser(t, store, "owner")
	outsider := newUser(t, store, "outsider")

	c, err := svc.Create(ctx, owner.ID, &model.Community{Name: "Elders", IsPrivate: true})
	require.NoError(t, err)

	_, err = svc.Get(ctx, outsider.ID, c.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = svc.GetBySlug(ctx, outsider.ID, c.Slug)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = svc.Members(ctx, outsider.ID, c.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	got, err := svc.GetBySlug(ctx, owner.ID, c.Slug)
	require.NoError(t, err)
	assert.Equal(c.ID, got.ID)
}

func TestRoomsAndChat(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewCommunityService(store)
	owner := newUser(t, store, "owner")
	visitor := newUser(t, store, "visitor")

	c, err := svc.Create(ctx, owner.ID, &model.Community{Name: "Worship Team"})
	require.NoError(t, err)

	_, err = svc.CreateRoom(ctx, visitor.ID, &model.CommunityRoom{CommunityID: c.ID, Name: "lobby"})
	assert.ErrorIs(err, model.ErrForbidden)

	lobby, err := svc.CreateRoom(ctx, owner.ID, &model.CommunityRoom{CommunityID: c.ID, Name: "lobby"})
	require.NoError(t, err)
	backstage, err := svc.CreateRoom(ctx, owner.ID, &model.CommunityRoom{CommunityID: c.ID, Name: "backstage", IsPrivate: true})
	require.NoError(t, err)

	rooms, err := svc.Rooms(ctx, visitor.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(lobby.ID, rooms[0].ID)
	rooms, err = svc.Rooms(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Len(rooms, 2)

	_, err = svc.SendChat(ctx, visitor.ID, lobby.ID, "hello")
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.ChatHistory(ctx, visitor.ID, backstage.ID, 0, 10)
	assert.ErrorIs(err, model.ErrForbidden)

	first, err := svc.SendChat(ctx, owner.ID, lobby.ID, "welcome")
	require.NoError(t, err)
	_, err = svc.SendChat(ctx, owner.ID, lobby.ID, "rehearsal at 7")
	require.NoError(t, err)

	history, err := svc.ChatHistory(ctx, visitor.ID, lobby.ID, first.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal("rehearsal at 7", history[0].Content)

	assert.ErrorIs(svc.DeleteRoom(ctx, visitor.ID, lobby.ID), model.ErrForbidden)
	require.NoError(t, svc.DeleteRoom(ctx, owner.ID, lobby.ID))
}
