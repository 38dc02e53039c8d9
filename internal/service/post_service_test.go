package service

import (
	"context"
	"testing"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMembershipAndAuthorship(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	communities := NewCommunityService(store)
	svc := NewPostService(store)
	owner := newUser(t, store, "owner")
	outsider := newUser(t, store, "outsider")

	c, err := communities.Create(ctx, owner.ID, &model.Community{Name: "Bible Study"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, outsider.ID, &model.Post{Title: "hi", CommunityID: &c.ID})
	assert.ErrorIs(err, model.ErrForbidden)

	p, err := svc.Create(ctx, owner.ID, &model.Post{Title: "Romans 8", CommunityID: &c.ID})
	require.NoError(t, err)
	assert.Equal(owner.ID, p.AuthorID)

	_, err = svc.List(ctx, repository.PostFilter{Sort: "random"})
	assert.ErrorIs(err, model.ErrValidation)
	posts, err := svc.List(ctx, repository.PostFilter{CommunityID: c.ID})
	require.NoError(t, err)
	assert.Len(posts, 1)

	comment, err := svc.Comment(ctx, outsider.ID, &model.Comment{PostID: p.ID, Content: "amen"})
	require.NoError(t, err)
	assert.ErrorIs(svc.DeleteComment(ctx, owner.ID, comment.ID), model.ErrForbidden)

	// 拉黑后看不到对方的评论
	_, err = store.CreateUserBlock(ctx, &model.UserBlock{BlockerID: owner.ID, BlockedID: outsider.ID})
	require.NoError(t, err)
	comments, err := svc.Comments(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(comments)
	comments, err = svc.Comments(ctx, outsider.ID, p.ID)
	require.NoError(t, err)
	assert.Len(comments, 1)

	require.NoError(t, svc.DeleteComment(ctx, outsider.ID, comment.ID))
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(got.CommentCount)

	assert.ErrorIs(svc.Delete(ctx, outsider.ID, p.ID), model.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner.ID, p.ID))
}

func TestGroupAdministration(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewGroupService(store)
	leader := newUser(t, store, "leader")
	member := newUser(t, store, "member")
	other := newUser(t, store, "other")

	g, err := svc.Create(ctx, leader.ID, &model.Group{Name: "Men's breakfast"})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, member.ID, g.ID, other.ID, false)
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.AddMember(ctx, leader.ID, 987654, other.ID, false)
	assert.ErrorIs(err, model.ErrNotFound)

	_, err = svc.AddMember(ctx, leader.ID, g.ID, member.ID, false)
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, leader.ID, g.ID, other.ID, false)
	require.NoError(t, err)

	assert.ErrorIs(svc.RemoveMember(ctx, member.ID, g.ID, other.ID), model.ErrForbidden)
	require.NoError(t, svc.RemoveMember(ctx, other.ID, g.ID, other.ID))

	_, err = svc.Members(ctx, other.ID, g.ID)
	assert.ErrorIs(err, model.ErrForbidden)
	members, err := svc.Members(ctx, member.ID, g.ID)
	require.NoError(t, err)
	assert.Len(members, 2)

	mine, err := svc.ListMine(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(g.ID, mine[0].ID)
}

func TestEventOwnershipAndRSVP(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewEventService(store)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) }
	host := newUser(t, store, "host")
	guest := newUser(t, store, "guest")

	past, err := svc.Create(ctx, host.ID, &model.Event{Title: "Retreat", EventDate: time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC), IsPublic: true})
	require.NoError(t, err)
	morning, err := svc.Create(ctx, host.ID, &model.Event{Title: "Prayer breakfast", EventDate: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), IsPublic: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, host.ID, &model.Event{Title: "Staff only", EventDate: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	upcoming, err := svc.Upcoming(ctx, guest.ID, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(morning.ID, upcoming[0].ID)

	_, err = svc.Nearby(ctx, 91, 0, 10)
	assert.ErrorIs(err, model.ErrValidation)

	title := "Renamed"
	_, err = svc.Update(ctx, guest.ID, past.ID, model.EventPatch{Title: &title})
	assert.ErrorIs(err, model.ErrForbidden)
	assert.ErrorIs(svc.Delete(ctx, guest.ID, past.ID), model.ErrForbidden)

	r, err := svc.RSVP(ctx, guest.ID, morning.ID, model.RSVPGoing)
	require.NoError(t, err)
	again, err := svc.RSVP(ctx, guest.ID, morning.ID, model.RSVPMaybe)
	require.NoError(t, err)
	assert.Equal(r.ID, again.ID)
	assert.Equal(model.RSVPMaybe, again.Status)

	rsvps, err := svc.RSVPs(ctx, morning.ID)
	require.NoError(t, err)
	assert.Len(rsvps, 1)

	require.NoError(t, svc.CancelRSVP(ctx, guest.ID, morning.ID))
	assert.ErrorIs(svc.CancelRSVP(ctx, guest.ID, morning.ID), model.ErrNotFound)
}

func TestMicroblogLikes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewMicroblogService(store)
	author := newUser(t, store, "author")
	fan := newUser(t, store, "fan")

	m, err := svc.Create(ctx, author.ID, &model.Microblog{Content: "Grace upon grace"})
	require.NoError(t, err)

	liked, err := svc.Like(ctx, fan.ID, m.ID)
	require.NoError(t, err)
	assert.EqualValues(1, liked.LikeCount)
	_, err = svc.Like(ctx, fan.ID, m.ID)
	assert.ErrorIs(err, model.ErrConflict)

	ids, err := svc.Liked(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{m.ID}, ids)

	unliked, err := svc.Unlike(ctx, fan.ID, m.ID)
	require.NoError(t, err)
	assert.Zero(unliked.LikeCount)

	content := "edited"
	_, err = svc.Update(ctx, fan.ID, m.ID, model.MicroblogPatch{Content: &content})
	assert.ErrorIs(err, model.ErrForbidden)
	assert.ErrorIs(svc.Delete(ctx, fan.ID, m.ID), model.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, author.ID, m.ID))
}
