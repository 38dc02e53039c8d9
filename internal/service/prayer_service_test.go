package service

import (
	"context"
	"testing"

	"The_Connection/internal/model"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrayerVisibility(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewPrayerService(store)
	groups := NewGroupService(store)

	author := newUser(t, store, "author")
	friend := newUser(t, store, "friend")
	stranger := newUser(t, store, "stranger")

	g, err := groups.Create(ctx, author.ID, &model.Group{Name: "Tuesday cell"})
	require.NoError(t, err)
	_, err = groups.AddMember(ctx, author.ID, g.ID, friend.ID, false)
	require.NoError(t, err)

	_, err = svc.Create(ctx, stranger.ID, &model.PrayerRequest{Title: "exam", GroupID: &g.ID, PrivacyLevel: model.PrivacyGroupOnly})
	assert.ErrorIs(err, model.ErrForbidden)

	public, err := svc.Create(ctx, author.ID, &model.PrayerRequest{Title: "healing"})
	require.NoError(t, err)
	assert.Equal(model.PrivacyPublic, public.PrivacyLevel)
	groupOnly, err := svc.Create(ctx, author.ID, &model.PrayerRequest{Title: "job", GroupID: &g.ID, PrivacyLevel: model.PrivacyGroupOnly})
	require.NoError(t, err)
	private, err := svc.Create(ctx, author.ID, &model.PrayerRequest{Title: "family", PrivacyLevel: model.PrivacyPrivate})
	require.NoError(t, err)

	cases := []struct {
		viewer  uint64
		request uint64
		visible bool
	}{
		{0, public.ID, true},
		{stranger.ID, public.ID, true},
		{stranger.ID, groupOnly.ID, false},
		{friend.ID, groupOnly.ID, true},
		{friend.ID, private.ID, false},
		{author.ID, private.ID, true},
		{0, groupOnly.ID, false},
	}
	for _, c := range cases {
		_, err := svc.Get(ctx, c.viewer, c.request)
		if c.visible {
			assert.NoError(err, "viewer %d request %d", c.viewer, c.request)
		} else {
			assert.ErrorIs(err, model.ErrNotFound, "viewer %d request %d", c.viewer, c.request)
		}
	}

	_, err = svc.Pray(ctx, stranger.ID, groupOnly.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = svc.Pray(ctx, friend.ID, groupOnly.ID)
	require.NoError(t, err)
	got, err := svc.Get(ctx, friend.ID, groupOnly.ID)
	require.NoError(t, err)
	assert.EqualValues(1, got.PrayerCount)

	prayers, err := svc.Prayers(ctx, author.ID, groupOnly.ID)
	require.NoError(t, err)
	require.Len(t, prayers, 1)
	assert.Equal(friend.ID, prayers[0].UserID)
}

func TestPrayerAuthorOnlyChanges(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewPrayerService(store)
	author := newUser(t, store, "author")
	other := newUser(t, store, "other")

	r, err := svc.Create(ctx, author.ID, &model.PrayerRequest{Title: "surgery"})
	require.NoError(t, err)

	_, err = svc.MarkAnswered(ctx, other.ID, r.ID, "nope")
	assert.ErrorIs(err, model.ErrForbidden)
	assert.ErrorIs(svc.Delete(ctx, other.ID, r.ID), model.ErrForbidden)

	answered, err := svc.MarkAnswered(ctx, author.ID, r.ID, "went well")
	require.NoError(t, err)
	assert.True(answered.IsAnswered)
	assert.Equal("went well", answered.AnsweredDescription)

	yes, no := true, false
	list, err := svc.ListMine(ctx, author.ID, &yes)
	require.NoError(t, err)
	assert.Len(list, 1)
	list, err = svc.ListMine(ctx, author.ID, &no)
	require.NoError(t, err)
	assert.Empty(list)

	require.NoError(t, svc.Delete(ctx, author.ID, r.ID))
	_, err = svc.Get(ctx, author.ID, r.ID)
	assert.ErrorIs(err, model.ErrNotFound)
}
