// Package storetest 两种 repository.Store 实现共用的行为测试，
// 各后端在自己的 _test.go 中调用 Run。
package storetest

import (
	"context"
	"testing"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run 每个子测试拿到一个全新的 Store
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"Users", testUsers},
		{"PushTokens", testPushTokens},
		{"Communities", testCommunities},
		{"CommunityVisibility", testCommunityVisibility},
		{"RoomsAndChat", testRoomsAndChat},
		{"Posts", testPosts},
		{"PostSorting", testPostSorting},
		{"Comments", testComments},
		{"Groups", testGroups},
		{"PrayerRequests", testPrayerRequests},
		{"Events", testEvents},
		{"NearbyEvents", testNearbyEvents},
		{"Microblogs", testMicroblogs},
		{"Livestreams", testLivestreams},
		{"DirectMessages", testDirectMessages},
		{"Outbox", testOutbox},
		{"Connections", testConnections},
		{"Reports", testReports},
		{"Blocks", testBlocks},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.fn(t, newStore(t))
		})
	}
}

var ctx = context.Background()

// base 整秒的 UTC 时间，保证数据库里按字符串比较时间时顺序不变
var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(hours int) time.Time {
	return base.Add(time.Duration(hours) * time.Hour)
}

func ptr[T any](v T) *T {
	return &v
}

func mkUser(t *testing.T, s repository.Store, name string) *model.User {
	t.Helper()
	u, err := s.CreateUser(ctx, &model.User{Username: name, Email: name + "@example.com", Password: "x"})
	require.NoError(t, err)
	return u
}

func mkCommunity(t *testing.T, s repository.Store, owner uint64, name string) *model.Community {
	t.Helper()
	c, err := s.CreateCommunity(ctx, &model.Community{Name: name, CreatedBy: owner})
	require.NoError(t, err)
	return c
}

func postIDs(rows []model.Post) []uint64 {
	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func testUsers(t *testing.T, s repository.Store) {
	assert := assert.New(t)

	alice, err := s.CreateUser(ctx, &model.User{Username: " alice ", Email: "Alice@Example.com", Password: "x"})
	require.NoError(t, err)
	assert.NotZero(alice.ID)
	assert.Equal("alice", alice.Username)
	assert.Equal("alice@example.com", alice.Email)
	assert.Equal(model.DMPrivacyEveryone, alice.DMPrivacy)
	assert.Equal("alice", alice.DisplayName)

	_, err = s.CreateUser(ctx, &model.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.CreateUser(ctx, &model.User{Username: "alice2", Email: "ALICE@example.com"})
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.CreateUser(ctx, &model.User{Username: "", Email: "x@example.com"})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreateUser(ctx, &model.User{Username: "zed", Email: "zed@example.com", DMPrivacy: "friends"})
	assert.ErrorIs(err, model.ErrValidation)

	got, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(alice.ID, got.ID)
	got, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(alice.ID, got.ID)
	_, err = s.GetUserByUsername(ctx, "ali")
	assert.ErrorIs(err, model.ErrNotFound)

	_, err = s.UpdateUser(ctx, alice.ID, model.UserPatch{DMPrivacy: ptr(model.DMPrivacy("friends"))})
	assert.ErrorIs(err, model.ErrValidation)
	updated, err := s.UpdateUser(ctx, alice.ID, model.UserPatch{
		DisplayName: ptr("Alice A."),
		DMPrivacy:   ptr(model.DMPrivacyConnections),
		NotifyDMs:   ptr(true),
	})
	require.NoError(t, err)
	assert.Equal("Alice A.", updated.DisplayName)
	assert.Equal(model.DMPrivacyConnections, updated.DMPrivacy)
	assert.True(updated.NotifyDMs)
	_, err = s.UpdateUser(ctx, 987654, model.UserPatch{Bio: ptr("x")})
	assert.ErrorIs(err, model.ErrNotFound)

	bob := mkUser(t, s, "bob")
	found, err := s.SearchUsers(ctx, "ALI", bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(alice.ID, found[0].ID)

	_, err = s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: bob.ID, BlockedID: alice.ID})
	require.NoError(t, err)
	found, err = s.SearchUsers(ctx, "ali", bob.ID, 10)
	require.NoError(t, err)
	assert.Empty(found)

	all, err := s.SearchUsers(ctx, "", 0, 1)
	require.NoError(t, err)
	assert.Len(all, 1)

	require.NoError(t, s.DeleteUser(ctx, alice.ID))
	_, err = s.GetUser(ctx, alice.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	assert.NoError(s.DeleteUser(ctx, alice.ID))
	assert.ErrorIs(s.DeleteUser(ctx, 987654), model.ErrNotFound)

	// 注销后用户名和邮箱可以重新注册
	again, err := s.CreateUser(ctx, &model.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotEqual(alice.ID, again.ID)
}

func testPushTokens(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")

	_, err := s.SavePushToken(ctx, &model.PushToken{UserID: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)

	tok, err := s.SavePushToken(ctx, &model.PushToken{UserID: alice.ID, Token: "tok-1", Platform: "ios"})
	require.NoError(t, err)
	assert.Equal(alice.ID, tok.UserID)

	// 同一设备换账号登录
	moved, err := s.SavePushToken(ctx, &model.PushToken{UserID: bob.ID, Token: "tok-1", Platform: "ios"})
	require.NoError(t, err)
	assert.Equal(tok.ID, moved.ID)
	assert.Equal(bob.ID, moved.UserID)

	list, err := s.ListPushTokens(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(list)
	list, err = s.ListPushTokens(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(list, 1)

	assert.NoError(s.DeletePushToken(ctx, "tok-1"))
	assert.ErrorIs(s.DeletePushToken(ctx, "tok-1"), model.ErrNotFound)
}

func testCommunities(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")

	c, err := s.CreateCommunity(ctx, &model.Community{Name: "Young Adults!", CreatedBy: alice.ID, MemberCount: 50})
	require.NoError(t, err)
	assert.Equal("young-adults", c.Slug)
	assert.EqualValues(1, c.MemberCount)

	owner, err := s.GetCommunityMember(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(model.RoleOwner, owner.Role)

	_, err = s.CreateCommunity(ctx, &model.Community{Name: "young adults", CreatedBy: bob.ID})
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.CreateCommunity(ctx, &model.Community{Name: "  ", CreatedBy: bob.ID})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreateCommunity(ctx, &model.Community{Name: "!!!", CreatedBy: bob.ID})
	assert.ErrorIs(err, model.ErrValidation)

	bySlug, err := s.GetCommunityBySlug(ctx, "young-adults")
	require.NoError(t, err)
	assert.Equal(c.ID, bySlug.ID)

	m, err := s.AddCommunityMember(ctx, c.ID, bob.ID, "")
	require.NoError(t, err)
	assert.Equal(model.RoleMember, m.Role)
	_, err = s.AddCommunityMember(ctx, c.ID, bob.ID, model.RoleMember)
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.AddCommunityMember(ctx, c.ID, 987654, "bogus")
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.AddCommunityMember(ctx, 987654, bob.ID, model.RoleMember)
	assert.ErrorIs(err, model.ErrNotFound)

	got, err := s.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(2, got.MemberCount)

	members, err := s.ListCommunityMembers(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(alice.ID, members[0].UserID)
	assert.Equal(bob.ID, members[1].UserID)

	promoted, err := s.UpdateCommunityMemberRole(ctx, c.ID, bob.ID, model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(model.RoleModerator, promoted.Role)
	_, err = s.UpdateCommunityMemberRole(ctx, c.ID, bob.ID, "admin")
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.UpdateCommunityMemberRole(ctx, c.ID, 987654, model.RoleMember)
	assert.ErrorIs(err, model.ErrNotFound)

	mine, err := s.ListUserCommunities(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(c.ID, mine[0].ID)

	require.NoError(t, s.RemoveCommunityMember(ctx, c.ID, bob.ID))
	assert.ErrorIs(s.RemoveCommunityMember(ctx, c.ID, bob.ID), model.ErrNotFound)
	got, err = s.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(1, got.MemberCount)

	_, err = s.UpdateCommunity(ctx, c.ID, model.CommunityPatch{Name: ptr(" ")})
	assert.ErrorIs(err, model.ErrValidation)
	renamed, err := s.UpdateCommunity(ctx, c.ID, model.CommunityPatch{Name: ptr("Young Adults Fellowship"), Description: ptr("weekly")})
	require.NoError(t, err)
	assert.Equal("Young Adults Fellowship", renamed.Name)
	assert.Equal("weekly", renamed.Description)
	assert.Equal("young-adults", renamed.Slug)

	require.NoError(t, s.DeleteCommunity(ctx, c.ID))
	_, err = s.GetCommunity(ctx, c.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.GetCommunityBySlug(ctx, "young-adults")
	assert.ErrorIs(err, model.ErrNotFound)
	assert.NoError(s.DeleteCommunity(ctx, c.ID))
	assert.ErrorIs(s.DeleteCommunity(ctx, 987654), model.ErrNotFound)

	// 删除后 slug 可以复用
	_, err = s.CreateCommunity(ctx, &model.Community{Name: "Young Adults", CreatedBy: bob.ID})
	assert.NoError(err)
}

func testCommunityVisibility(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	carol := mkUser(t, s, "carol")

	open, err := s.CreateCommunity(ctx, &model.Community{Name: "Bible Study", Description: "Romans", CreatedBy: alice.ID, CreatedAt: at(0)})
	require.NoError(t, err)
	hidden, err := s.CreateCommunity(ctx, &model.Community{Name: "Leaders", IsPrivate: true, CreatedBy: alice.ID, CreatedAt: at(1)})
	require.NoError(t, err)
	byCarol, err := s.CreateCommunity(ctx, &model.Community{Name: "Worship", CreatedBy: carol.ID, CreatedAt: at(2)})
	require.NoError(t, err)

	ids := func(rows []model.Community) []uint64 {
		out := make([]uint64, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}

	anon, err := s.ListCommunities(ctx, repository.CommunityFilter{})
	require.NoError(t, err)
	assert.Equal([]uint64{byCarol.ID, open.ID}, ids(anon))

	forAlice, err := s.ListCommunities(ctx, repository.CommunityFilter{ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{byCarol.ID, hidden.ID, open.ID}, ids(forAlice))

	forBob, err := s.ListCommunities(ctx, repository.CommunityFilter{ViewerID: bob.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{byCarol.ID, open.ID}, ids(forBob))

	_, err = s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: bob.ID, BlockedID: carol.ID})
	require.NoError(t, err)
	forBob, err = s.ListCommunities(ctx, repository.CommunityFilter{ViewerID: bob.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{open.ID}, ids(forBob))

	searched, err := s.ListCommunities(ctx, repository.CommunityFilter{Search: "romans"})
	require.NoError(t, err)
	assert.Equal([]uint64{open.ID}, ids(searched))

	limited, err := s.ListCommunities(ctx, repository.CommunityFilter{ViewerID: alice.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal([]uint64{byCarol.ID}, ids(limited))
}

func testRoomsAndChat(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	c := mkCommunity(t, s, alice.ID, "Choir")

	_, err := s.CreateCommunityRoom(ctx, &model.CommunityRoom{CommunityID: 987654, Name: "general", CreatedBy: alice.ID})
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.CreateCommunityRoom(ctx, &model.CommunityRoom{CommunityID: c.ID, Name: " ", CreatedBy: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)

	general, err := s.CreateCommunityRoom(ctx, &model.CommunityRoom{CommunityID: c.ID, Name: "general", CreatedBy: alice.ID})
	require.NoError(t, err)
	staff, err := s.CreateCommunityRoom(ctx, &model.CommunityRoom{CommunityID: c.ID, Name: "staff", IsPrivate: true, CreatedBy: alice.ID})
	require.NoError(t, err)

	public, err := s.ListCommunityRooms(ctx, c.ID, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(general.ID, public[0].ID)
	all, err := s.ListCommunityRooms(ctx, c.ID, true)
	require.NoError(t, err)
	assert.Len(all, 2)

	renamed, err := s.UpdateCommunityRoom(ctx, staff.ID, model.CommunityRoomPatch{Name: ptr("leaders")})
	require.NoError(t, err)
	assert.Equal("leaders", renamed.Name)
	assert.True(renamed.IsPrivate)

	var sent []uint64
	for _, text := range []string{"hello", "hi", "welcome"} {
		m, err := s.CreateChatMessage(ctx, &model.ChatMessage{RoomID: general.ID, SenderID: alice.ID, Content: text})
		require.NoError(t, err)
		sent = append(sent, m.ID)
	}
	_, err = s.CreateChatMessage(ctx, &model.ChatMessage{RoomID: general.ID, SenderID: alice.ID, Content: "  "})
	assert.ErrorIs(err, model.ErrValidation)

	after, err := s.ListChatMessages(ctx, general.ID, sent[0], 0)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal("hi", after[0].Content)
	assert.Equal("welcome", after[1].Content)

	first, err := s.ListChatMessages(ctx, general.ID, 0, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal("hello", first[0].Content)

	require.NoError(t, s.DeleteChatMessage(ctx, sent[1]))
	assert.NoError(s.DeleteChatMessage(ctx, sent[1]))
	left, err := s.ListChatMessages(ctx, general.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(left, 2)

	require.NoError(t, s.DeleteCommunityRoom(ctx, general.ID))
	_, err = s.GetCommunityRoom(ctx, general.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.CreateChatMessage(ctx, &model.ChatMessage{RoomID: general.ID, SenderID: alice.ID, Content: "anyone?"})
	assert.ErrorIs(err, model.ErrNotFound)
	assert.ErrorIs(s.DeleteCommunityRoom(ctx, 987654), model.ErrNotFound)
}

func testPosts(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	c := mkCommunity(t, s, alice.ID, "Prayer Warriors")

	_, err := s.CreatePost(ctx, &model.Post{Title: "orphan", AuthorID: alice.ID, CommunityID: ptr(uint64(987654))})
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.CreatePost(ctx, &model.Post{Title: " ", AuthorID: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)

	p1, err := s.CreatePost(ctx, &model.Post{Title: "in community", AuthorID: alice.ID, CommunityID: &c.ID, CommentCount: 9, CreatedAt: at(0)})
	require.NoError(t, err)
	assert.Zero(p1.CommentCount)
	p2, err := s.CreatePost(ctx, &model.Post{Title: "by bob", AuthorID: bob.ID, CommunityID: &c.ID, CreatedAt: at(1)})
	require.NoError(t, err)
	p3, err := s.CreatePost(ctx, &model.Post{Title: "general", AuthorID: alice.ID, CreatedAt: at(2)})
	require.NoError(t, err)

	inCommunity, err := s.ListPosts(ctx, repository.PostFilter{CommunityID: c.ID, Sort: model.SortNew})
	require.NoError(t, err)
	assert.Equal([]uint64{p2.ID, p1.ID}, postIDs(inCommunity))

	byAlice, err := s.ListPosts(ctx, repository.PostFilter{AuthorID: alice.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{p3.ID, p1.ID}, postIDs(byAlice))

	_, err = s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: bob.ID})
	require.NoError(t, err)
	forAlice, err := s.ListPosts(ctx, repository.PostFilter{ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{p3.ID, p1.ID}, postIDs(forAlice))

	limited, err := s.ListPosts(ctx, repository.PostFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal([]uint64{p3.ID, p2.ID}, postIDs(limited))

	up, err := s.UpvotePost(ctx, p2.ID)
	require.NoError(t, err)
	assert.EqualValues(1, up.Upvotes)
	up, err = s.UpvotePost(ctx, p2.ID)
	require.NoError(t, err)
	assert.EqualValues(2, up.Upvotes)
	_, err = s.UpvotePost(ctx, 987654)
	assert.ErrorIs(err, model.ErrNotFound)

	require.NoError(t, s.DeletePost(ctx, p3.ID))
	_, err = s.GetPost(ctx, p3.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	assert.NoError(s.DeletePost(ctx, p3.ID))
	assert.ErrorIs(s.DeletePost(ctx, 987654), model.ErrNotFound)
	_, err = s.UpvotePost(ctx, p3.ID)
	assert.ErrorIs(err, model.ErrNotFound)
}

func testPostSorting(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	now := time.Now().UTC().Truncate(time.Second)

	// hot: old 10/10h=1, mid 3/1h=3, fresh 2/1h=2
	old, err := s.CreatePost(ctx, &model.Post{Title: "old", AuthorID: alice.ID, Upvotes: 10, CreatedAt: now.Add(-10*time.Hour - time.Minute)})
	require.NoError(t, err)
	mid, err := s.CreatePost(ctx, &model.Post{Title: "mid", AuthorID: alice.ID, Upvotes: 3, CreatedAt: now.Add(-time.Hour - time.Minute)})
	require.NoError(t, err)
	fresh, err := s.CreatePost(ctx, &model.Post{Title: "fresh", AuthorID: alice.ID, Upvotes: 2, CreatedAt: now.Add(-30 * time.Minute)})
	require.NoError(t, err)

	for _, tc := range []struct {
		sort model.PostSort
		want []uint64
	}{
		{model.SortNew, []uint64{fresh.ID, mid.ID, old.ID}},
		{"", []uint64{fresh.ID, mid.ID, old.ID}},
		{model.SortTop, []uint64{old.ID, mid.ID, fresh.ID}},
		{model.SortHot, []uint64{mid.ID, fresh.ID, old.ID}},
	} {
		rows, err := s.ListPosts(ctx, repository.PostFilter{Sort: tc.sort})
		require.NoError(t, err)
		assert.Equal(tc.want, postIDs(rows), "sort=%q", tc.sort)
	}

	top, err := s.ListPosts(ctx, repository.PostFilter{Sort: model.SortTop, Limit: 1})
	require.NoError(t, err)
	assert.Equal([]uint64{old.ID}, postIDs(top))
}

func testComments(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	post, err := s.CreatePost(ctx, &model.Post{Title: "thread", AuthorID: alice.ID})
	require.NoError(t, err)
	other, err := s.CreatePost(ctx, &model.Post{Title: "other", AuthorID: alice.ID})
	require.NoError(t, err)

	_, err = s.CreateComment(ctx, &model.Comment{PostID: 987654, AuthorID: bob.ID, Content: "hi"})
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.CreateComment(ctx, &model.Comment{PostID: post.ID, AuthorID: bob.ID, Content: " "})
	assert.ErrorIs(err, model.ErrValidation)

	c1, err := s.CreateComment(ctx, &model.Comment{PostID: post.ID, AuthorID: bob.ID, Content: "amen"})
	require.NoError(t, err)
	c2, err := s.CreateComment(ctx, &model.Comment{PostID: post.ID, AuthorID: alice.ID, Content: "thanks", ParentID: &c1.ID})
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, &model.Comment{PostID: other.ID, AuthorID: alice.ID, Content: "wrong thread", ParentID: &c1.ID})
	assert.ErrorIs(err, model.ErrValidation)

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(2, got.CommentCount)

	up, err := s.UpvoteComment(ctx, c1.ID)
	require.NoError(t, err)
	assert.EqualValues(1, up.Upvotes)

	list, err := s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(c1.ID, list[0].ID)
	assert.Equal(c2.ID, list[1].ID)

	require.NoError(t, s.DeleteComment(ctx, c2.ID))
	require.NoError(t, s.DeleteComment(ctx, c2.ID))
	assert.ErrorIs(s.DeleteComment(ctx, 987654), model.ErrNotFound)
	_, err = s.GetComment(ctx, c2.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	got, err = s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(1, got.CommentCount)
	list, err = s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(list, 1)
}

func testGroups(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")

	_, err := s.CreateGroup(ctx, &model.Group{Name: " ", CreatedBy: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)

	g, err := s.CreateGroup(ctx, &model.Group{Name: "Small Group", IsPrivate: true, CreatedBy: alice.ID})
	require.NoError(t, err)
	creator, err := s.GetGroupMember(ctx, g.ID, alice.ID)
	require.NoError(t, err)
	assert.True(creator.IsAdmin)

	m, err := s.AddGroupMember(ctx, g.ID, bob.ID, false)
	require.NoError(t, err)
	assert.False(m.IsAdmin)
	_, err = s.AddGroupMember(ctx, g.ID, bob.ID, true)
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.AddGroupMember(ctx, 987654, bob.ID, false)
	assert.ErrorIs(err, model.ErrNotFound)

	members, err := s.ListGroupMembers(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(members, 2)
	groups, err := s.ListUserGroups(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(g.ID, groups[0].ID)

	require.NoError(t, s.RemoveGroupMember(ctx, g.ID, bob.ID))
	assert.ErrorIs(s.RemoveGroupMember(ctx, g.ID, bob.ID), model.ErrNotFound)
	_, err = s.GetGroupMember(ctx, g.ID, bob.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	groups, err = s.ListUserGroups(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(groups)
}

func testPrayerRequests(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	carol := mkUser(t, s, "carol")
	g, err := s.CreateGroup(ctx, &model.Group{Name: "Care", CreatedBy: alice.ID})
	require.NoError(t, err)
	_, err = s.AddGroupMember(ctx, g.ID, bob.ID, false)
	require.NoError(t, err)

	_, err = s.CreatePrayerRequest(ctx, &model.PrayerRequest{Title: "x", AuthorID: alice.ID, PrivacyLevel: model.PrivacyGroupOnly})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreatePrayerRequest(ctx, &model.PrayerRequest{Title: "x", AuthorID: alice.ID, PrivacyLevel: "friends"})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreatePrayerRequest(ctx, &model.PrayerRequest{Title: "x", AuthorID: alice.ID, PrivacyLevel: model.PrivacyGroupOnly, GroupID: ptr(uint64(987654))})
	assert.ErrorIs(err, model.ErrNotFound)

	public, err := s.CreatePrayerRequest(ctx, &model.PrayerRequest{Title: "healing", Content: "for mom", AuthorID: alice.ID, PrayerCount: 7, CreatedAt: at(0)})
	require.NoError(t, err)
	assert.Equal(model.PrivacyPublic, public.PrivacyLevel)
	assert.Zero(public.PrayerCount)
	grouped, err := s.CreatePrayerRequest(ctx, &model.PrayerRequest{Title: "job", Content: "interview", AuthorID: alice.ID, PrivacyLevel: model.PrivacyGroupOnly, GroupID: &g.ID, CreatedAt: at(1)})
	require.NoError(t, err)
	private, err := s.CreatePrayerRequest(ctx, &model.PrayerRequest{Title: "private", Content: "...", AuthorID: alice.ID, PrivacyLevel: model.PrivacyPrivate, CreatedAt: at(2)})
	require.NoError(t, err)

	ids := func(rows []model.PrayerRequest) []uint64 {
		out := make([]uint64, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}
	forAlice, err := s.ListPrayerRequestsVisibleTo(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{private.ID, grouped.ID, public.ID}, ids(forAlice))
	forBob, err := s.ListPrayerRequestsVisibleTo(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{grouped.ID, public.ID}, ids(forBob))
	forCarol, err := s.ListPrayerRequestsVisibleTo(ctx, carol.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{public.ID}, ids(forCarol))

	inGroup, err := s.ListPrayerRequests(ctx, repository.PrayerRequestFilter{GroupID: g.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{grouped.ID}, ids(inGroup))

	_, err = s.CreatePrayer(ctx, public.ID, bob.ID)
	require.NoError(t, err)
	_, err = s.CreatePrayer(ctx, public.ID, bob.ID)
	require.NoError(t, err)
	_, err = s.CreatePrayer(ctx, 987654, bob.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	prayers, err := s.ListPrayers(ctx, public.ID)
	require.NoError(t, err)
	assert.Len(prayers, 2)
	got, err := s.GetPrayerRequest(ctx, public.ID)
	require.NoError(t, err)
	assert.EqualValues(2, got.PrayerCount)

	_, err = s.UpdatePrayerRequest(ctx, public.ID, model.PrayerRequestPatch{PrivacyLevel: ptr(model.PrivacyLevel("friends"))})
	assert.ErrorIs(err, model.ErrValidation)
	answered, err := s.UpdatePrayerRequest(ctx, public.ID, model.PrayerRequestPatch{IsAnswered: ptr(true), AnsweredDescription: ptr("recovered")})
	require.NoError(t, err)
	assert.True(answered.IsAnswered)
	assert.Equal("recovered", answered.AnsweredDescription)
	assert.EqualValues(2, answered.PrayerCount)

	done, err := s.ListPrayerRequests(ctx, repository.PrayerRequestFilter{AuthorID: alice.ID, Answered: ptr(true)})
	require.NoError(t, err)
	assert.Equal([]uint64{public.ID}, ids(done))
	open, err := s.ListPrayerRequests(ctx, repository.PrayerRequestFilter{AuthorID: alice.ID, Answered: ptr(false), Limit: 1})
	require.NoError(t, err)
	assert.Equal([]uint64{private.ID}, ids(open))

	require.NoError(t, s.DeletePrayerRequest(ctx, grouped.ID))
	assert.NoError(s.DeletePrayerRequest(ctx, grouped.ID))
	assert.ErrorIs(s.DeletePrayerRequest(ctx, 987654), model.ErrNotFound)
	forBob, err = s.ListPrayerRequestsVisibleTo(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{public.ID}, ids(forBob))
}

func testEvents(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	c := mkCommunity(t, s, alice.ID, "Outreach")

	_, err := s.CreateEvent(ctx, &model.Event{Title: "no date", CreatorID: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreateEvent(ctx, &model.Event{Title: "half coords", CreatorID: alice.ID, EventDate: at(48), Latitude: ptr(40.0)})
	assert.ErrorIs(err, model.ErrValidation)

	later, err := s.CreateEvent(ctx, &model.Event{Title: "picnic", CreatorID: alice.ID, IsPublic: true, EventDate: at(72), CommunityID: &c.ID, RSVPCount: 4, CreatedAt: at(0)})
	require.NoError(t, err)
	assert.Zero(later.RSVPCount)
	sooner, err := s.CreateEvent(ctx, &model.Event{Title: "retreat", CreatorID: bob.ID, IsPublic: false, EventDate: at(24), CreatedAt: at(1)})
	require.NoError(t, err)
	past, err := s.CreateEvent(ctx, &model.Event{Title: "vbs", CreatorID: alice.ID, IsPublic: true, EventDate: at(-24), CreatedAt: at(2)})
	require.NoError(t, err)

	ids := func(rows []model.Event) []uint64 {
		out := make([]uint64, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}
	upcoming, err := s.ListEvents(ctx, repository.EventFilter{From: at(0)})
	require.NoError(t, err)
	assert.Equal([]uint64{sooner.ID, later.ID}, ids(upcoming))

	newest, err := s.ListEvents(ctx, repository.EventFilter{})
	require.NoError(t, err)
	assert.Equal([]uint64{past.ID, sooner.ID, later.ID}, ids(newest))

	public, err := s.ListEvents(ctx, repository.EventFilter{PublicOnly: true, From: at(0)})
	require.NoError(t, err)
	assert.Equal([]uint64{later.ID}, ids(public))

	inCommunity, err := s.ListEvents(ctx, repository.EventFilter{CommunityID: c.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{later.ID}, ids(inCommunity))

	byBob, err := s.ListEvents(ctx, repository.EventFilter{CreatorID: bob.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{sooner.ID}, ids(byBob))

	_, err = s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: bob.ID})
	require.NoError(t, err)
	forAlice, err := s.ListEvents(ctx, repository.EventFilter{ViewerID: alice.ID, From: at(0)})
	require.NoError(t, err)
	assert.Equal([]uint64{later.ID}, ids(forAlice))

	moved, err := s.UpdateEvent(ctx, later.ID, model.EventPatch{Title: ptr("church picnic"), EventDate: ptr(at(12))})
	require.NoError(t, err)
	assert.Equal("church picnic", moved.Title)
	upcoming, err = s.ListEvents(ctx, repository.EventFilter{From: at(0)})
	require.NoError(t, err)
	assert.Equal([]uint64{later.ID, sooner.ID}, ids(upcoming))

	rsvp, err := s.CreateEventRSVP(ctx, later.ID, bob.ID, "")
	require.NoError(t, err)
	assert.Equal(model.RSVPGoing, rsvp.Status)
	_, err = s.CreateEventRSVP(ctx, later.ID, bob.ID, model.RSVPMaybe)
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.CreateEventRSVP(ctx, later.ID, alice.ID, "perhaps")
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreateEventRSVP(ctx, 987654, alice.ID, model.RSVPGoing)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.CreateEventRSVP(ctx, later.ID, alice.ID, model.RSVPMaybe)
	require.NoError(t, err)

	got, err := s.GetEvent(ctx, later.ID)
	require.NoError(t, err)
	assert.EqualValues(2, got.RSVPCount)

	changed, err := s.UpdateEventRSVP(ctx, rsvp.ID, model.RSVPNotGoing)
	require.NoError(t, err)
	assert.Equal(model.RSVPNotGoing, changed.Status)
	_, err = s.UpdateEventRSVP(ctx, rsvp.ID, "perhaps")
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.UpdateEventRSVP(ctx, 987654, model.RSVPGoing)
	assert.ErrorIs(err, model.ErrNotFound)

	found, err := s.GetEventRSVP(ctx, later.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(model.RSVPNotGoing, found.Status)
	rsvps, err := s.ListEventRSVPs(ctx, later.ID)
	require.NoError(t, err)
	assert.Len(rsvps, 2)

	require.NoError(t, s.DeleteEventRSVP(ctx, rsvp.ID))
	assert.ErrorIs(s.DeleteEventRSVP(ctx, rsvp.ID), model.ErrNotFound)
	_, err = s.GetEventRSVP(ctx, later.ID, bob.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	got, err = s.GetEvent(ctx, later.ID)
	require.NoError(t, err)
	assert.EqualValues(1, got.RSVPCount)

	require.NoError(t, s.DeleteEvent(ctx, past.ID))
	assert.NoError(s.DeleteEvent(ctx, past.ID))
	assert.ErrorIs(s.DeleteEvent(ctx, 987654), model.ErrNotFound)
	_, err = s.GetEvent(ctx, past.ID)
	assert.ErrorIs(err, model.ErrNotFound)
}

func testNearbyEvents(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")

	mk := func(title string, lat, lng float64, onMap bool) *model.Event {
		e, err := s.CreateEvent(ctx, &model.Event{
			Title: title, CreatorID: alice.ID, EventDate: at(24),
			Latitude: ptr(lat), Longitude: ptr(lng), ShowOnMap: onMap,
		})
		require.NoError(t, err)
		return e
	}
	brooklyn := mk("brooklyn", 40.6782, -73.9442, true)
	manhattan := mk("manhattan", 40.7831, -73.9712, true)
	mk("hidden", 40.7128, -74.0060, false)
	mk("la", 34.0522, -118.2437, true)
	_, err := s.CreateEvent(ctx, &model.Event{Title: "no coords", CreatorID: alice.ID, EventDate: at(24), ShowOnMap: true})
	require.NoError(t, err)

	near, err := s.ListNearbyEvents(ctx, 40.7128, -74.0060, 50)
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(brooklyn.ID, near[0].ID)
	assert.Equal(manhattan.ID, near[1].ID)

	wide, err := s.ListNearbyEvents(ctx, 40.7128, -74.0060, 5000)
	require.NoError(t, err)
	assert.Len(wide, 3)
}

func testMicroblogs(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")

	_, err := s.CreateMicroblog(ctx, &model.Microblog{AuthorID: alice.ID, Content: " "})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreateMicroblog(ctx, &model.Microblog{AuthorID: alice.ID, Content: "reply", ParentID: ptr(uint64(987654))})
	assert.ErrorIs(err, model.ErrNotFound)

	root, err := s.CreateMicroblog(ctx, &model.Microblog{AuthorID: alice.ID, Content: "good morning", LikeCount: 3, ReplyCount: 3, CreatedAt: at(0)})
	require.NoError(t, err)
	assert.Zero(root.LikeCount)
	assert.Zero(root.ReplyCount)
	other, err := s.CreateMicroblog(ctx, &model.Microblog{AuthorID: bob.ID, Content: "hello", CreatedAt: at(1)})
	require.NoError(t, err)
	reply, err := s.CreateMicroblog(ctx, &model.Microblog{AuthorID: bob.ID, Content: "morning!", ParentID: &root.ID, CreatedAt: at(2)})
	require.NoError(t, err)

	got, err := s.GetMicroblog(ctx, root.ID)
	require.NoError(t, err)
	assert.EqualValues(1, got.ReplyCount)

	ids := func(rows []model.Microblog) []uint64 {
		out := make([]uint64, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}
	feed, err := s.ListMicroblogs(ctx, repository.MicroblogFilter{})
	require.NoError(t, err)
	assert.Equal([]uint64{other.ID, root.ID}, ids(feed))
	replies, err := s.ListMicroblogs(ctx, repository.MicroblogFilter{ParentID: root.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{reply.ID}, ids(replies))
	_, err = s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: bob.ID})
	require.NoError(t, err)
	feed, err = s.ListMicroblogs(ctx, repository.MicroblogFilter{ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal([]uint64{root.ID}, ids(feed))

	edited, err := s.UpdateMicroblog(ctx, root.ID, model.MicroblogPatch{Content: ptr("good morning all")})
	require.NoError(t, err)
	assert.Equal("good morning all", edited.Content)

	liked, err := s.LikeMicroblog(ctx, root.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(1, liked.LikeCount)
	_, err = s.LikeMicroblog(ctx, root.ID, bob.ID)
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.LikeMicroblog(ctx, 987654, bob.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.LikeMicroblog(ctx, other.ID, bob.ID)
	require.NoError(t, err)

	likedIDs, err := s.ListLikedMicroblogIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{root.ID, other.ID}, likedIDs)

	unliked, err := s.UnlikeMicroblog(ctx, root.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(unliked.LikeCount)
	_, err = s.UnlikeMicroblog(ctx, root.ID, bob.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	require.NoError(t, s.DeleteMicroblog(ctx, reply.ID))
	require.NoError(t, s.DeleteMicroblog(ctx, reply.ID))
	assert.ErrorIs(s.DeleteMicroblog(ctx, 987654), model.ErrNotFound)
	got, err = s.GetMicroblog(ctx, root.ID)
	require.NoError(t, err)
	assert.Zero(got.ReplyCount)
	_, err = s.GetMicroblog(ctx, reply.ID)
	assert.ErrorIs(err, model.ErrNotFound)
}

func testLivestreams(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	admin := mkUser(t, s, "admin")

	l, err := s.CreateLivestream(ctx, &model.Livestream{Title: "Sunday service", HostID: alice.ID, CreatedAt: at(0)})
	require.NoError(t, err)
	assert.Equal("upcoming", l.Status)
	live, err := s.CreateLivestream(ctx, &model.Livestream{Title: "Worship night", HostID: alice.ID, Status: "live", CreatedAt: at(1)})
	require.NoError(t, err)
	_, err = s.CreateLivestream(ctx, &model.Livestream{Title: " ", HostID: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)

	all, err := s.ListLivestreams(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(live.ID, all[0].ID)
	onAir, err := s.ListLivestreams(ctx, "live")
	require.NoError(t, err)
	require.Len(t, onAir, 1)
	assert.Equal(live.ID, onAir[0].ID)

	require.NoError(t, s.DeleteLivestream(ctx, l.ID))
	assert.NoError(s.DeleteLivestream(ctx, l.ID))
	assert.ErrorIs(s.DeleteLivestream(ctx, 987654), model.ErrNotFound)
	_, err = s.GetLivestream(ctx, l.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	_, err = s.CreateLivestreamerApplication(ctx, &model.LivestreamerApplication{UserID: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)
	app, err := s.CreateLivestreamerApplication(ctx, &model.LivestreamerApplication{
		UserID: alice.ID, MinistryName: "Grace", Reason: "share sermons",
		Status: model.ApplicationApproved, CreatedAt: at(0),
	})
	require.NoError(t, err)
	assert.Equal(model.ApplicationPending, app.Status)
	assert.Nil(app.ReviewedBy)
	_, err = s.CreateLivestreamerApplication(ctx, &model.LivestreamerApplication{UserID: alice.ID, Reason: "again"})
	assert.ErrorIs(err, model.ErrConflict)
	bobApp, err := s.CreateLivestreamerApplication(ctx, &model.LivestreamerApplication{UserID: bob.ID, Reason: "youth", CreatedAt: at(1)})
	require.NoError(t, err)

	mine, err := s.GetLivestreamerApplicationByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(app.ID, mine.ID)
	_, err = s.GetLivestreamerApplicationByUser(ctx, admin.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	ok, err := s.IsApprovedLivestreamer(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(ok)

	_, err = s.ReviewLivestreamerApplication(ctx, app.ID, model.ApplicationPending, "", admin.ID)
	assert.ErrorIs(err, model.ErrValidation)
	reviewed, err := s.ReviewLivestreamerApplication(ctx, app.ID, model.ApplicationApproved, "welcome", admin.ID)
	require.NoError(t, err)
	assert.Equal(model.ApplicationApproved, reviewed.Status)
	assert.Equal("welcome", reviewed.ReviewNotes)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(admin.ID, *reviewed.ReviewedBy)
	assert.NotNil(reviewed.ReviewedAt)
	_, err = s.ReviewLivestreamerApplication(ctx, app.ID, model.ApplicationRejected, "", admin.ID)
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.ReviewLivestreamerApplication(ctx, 987654, model.ApplicationRejected, "", admin.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	ok, err = s.IsApprovedLivestreamer(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(ok)

	pending, err := s.ListLivestreamerApplications(ctx, model.ApplicationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(bobApp.ID, pending[0].ID)
	apps, err := s.ListLivestreamerApplications(ctx, "")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(bobApp.ID, apps[0].ID)

	st, err := s.LivestreamerApplicationStats(ctx)
	require.NoError(t, err)
	assert.Equal(model.ApplicationStats{Total: 2, Pending: 1, Approved: 1}, st)
}

func testDirectMessages(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	carol := mkUser(t, s, "carol")
	dave := mkUser(t, s, "dave")

	send := func(from, to uint64, text string, when time.Time) *model.DirectMessage {
		m, err := s.CreateDirectMessage(ctx, &model.DirectMessage{SenderID: from, ReceiverID: to, Content: text, CreatedAt: when}, nil)
		require.NoError(t, err)
		return m
	}
	m1 := send(alice.ID, bob.ID, "hi bob", at(0))
	assert.NotEmpty(m1.ID)
	m2 := send(bob.ID, alice.ID, "hi alice", at(1))
	send(alice.ID, carol.ID, "hi carol", at(2))
	send(bob.ID, carol.ID, "not for alice", at(3))

	_, err := s.CreateDirectMessage(ctx, &model.DirectMessage{SenderID: alice.ID, ReceiverID: bob.ID, Content: "  "}, nil)
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreateDirectMessage(ctx, &model.DirectMessage{SenderID: alice.ID, ReceiverID: alice.ID, Content: "me"}, nil)
	assert.ErrorIs(err, model.ErrValidation)

	conv, err := s.ListDirectMessages(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(m1.ID, conv[0].ID)
	assert.Equal(m2.ID, conv[1].ID)

	partners, err := s.ListConversationPartners(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{carol.ID, bob.ID}, partners)

	none, err := s.ListConversationPartners(ctx, dave.ID)
	require.NoError(t, err)
	assert.Empty(none)
}

func testOutbox(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")

	notify := func(text string) {
		_, err := s.CreateDirectMessage(ctx,
			&model.DirectMessage{SenderID: alice.ID, ReceiverID: bob.ID, Content: text},
			&model.NotificationOutbox{EventType: "dm", UserID: bob.ID, Payload: `{"preview":"` + text + `"}`, Status: model.OutboxSent, Retry: 9})
		require.NoError(t, err)
	}
	notify("one")
	notify("two")
	_, err := s.CreateDirectMessage(ctx, &model.DirectMessage{SenderID: alice.ID, ReceiverID: bob.ID, Content: "quiet"}, nil)
	require.NoError(t, err)

	pending, err := s.ListPendingOutbox(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	first, second := pending[0], pending[1]
	assert.Less(first.ID, second.ID)
	assert.Equal(model.OutboxPending, first.Status)
	assert.Zero(first.Retry)
	assert.Equal(bob.ID, first.UserID)
	assert.Equal("dm", first.EventType)

	batch, err := s.ListPendingOutbox(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(first.ID, batch[0].ID)

	require.NoError(t, s.MarkOutboxSent(ctx, second.ID))
	for i := 0; i < 2; i++ {
		require.NoError(t, s.MarkOutboxFailed(ctx, first.ID))
	}
	pending, err = s.ListPendingOutbox(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(model.OutboxFailed, pending[0].Status)
	assert.Equal(2, pending[0].Retry)

	require.NoError(t, s.MarkOutboxFailed(ctx, first.ID))
	pending, err = s.ListPendingOutbox(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(pending)

	assert.ErrorIs(s.MarkOutboxSent(ctx, 987654), model.ErrNotFound)
	assert.ErrorIs(s.MarkOutboxFailed(ctx, 987654), model.ErrNotFound)
}

func testConnections(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	carol := mkUser(t, s, "carol")

	_, err := s.CreateConnection(ctx, &model.Connection{UserID: alice.ID, ConnectedUserID: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)

	c, err := s.CreateConnection(ctx, &model.Connection{UserID: alice.ID, ConnectedUserID: bob.ID, Status: model.ConnectionAccepted})
	require.NoError(t, err)
	assert.Equal(model.ConnectionPending, c.Status)
	_, err = s.CreateConnection(ctx, &model.Connection{UserID: bob.ID, ConnectedUserID: alice.ID})
	assert.ErrorIs(err, model.ErrConflict)
	_, err = s.CreateConnection(ctx, &model.Connection{UserID: alice.ID, ConnectedUserID: bob.ID})
	assert.ErrorIs(err, model.ErrConflict)

	between, err := s.GetConnectionBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(c.ID, between.ID)
	_, err = s.GetConnectionBetween(ctx, alice.ID, carol.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	_, err = s.UpdateConnectionStatus(ctx, c.ID, model.ConnectionAccepted, alice.ID)
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = s.UpdateConnectionStatus(ctx, c.ID, model.ConnectionBlocked, carol.ID)
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = s.UpdateConnectionStatus(ctx, c.ID, "friends", bob.ID)
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.UpdateConnectionStatus(ctx, 987654, model.ConnectionAccepted, bob.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	accepted, err := s.UpdateConnectionStatus(ctx, c.ID, model.ConnectionAccepted, bob.ID)
	require.NoError(t, err)
	assert.Equal(model.ConnectionAccepted, accepted.Status)

	_, err = s.CreateConnection(ctx, &model.Connection{UserID: carol.ID, ConnectedUserID: alice.ID})
	require.NoError(t, err)

	all, err := s.ListConnections(ctx, alice.ID, "")
	require.NoError(t, err)
	assert.Len(all, 2)
	onlyAccepted, err := s.ListConnections(ctx, alice.ID, model.ConnectionAccepted)
	require.NoError(t, err)
	require.Len(t, onlyAccepted, 1)
	assert.Equal(c.ID, onlyAccepted[0].ID)

	blocked, err := s.UpdateConnectionStatus(ctx, c.ID, model.ConnectionBlocked, alice.ID)
	require.NoError(t, err)
	assert.Equal(model.ConnectionBlocked, blocked.Status)
	got, err := s.GetConnection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(model.ConnectionBlocked, got.Status)
}

func testReports(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	admin := mkUser(t, s, "admin")

	_, err := s.CreateContentReport(ctx, &model.ContentReport{ReporterID: alice.ID, ContentType: "podcast", ContentID: 1})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.CreateContentReport(ctx, &model.ContentReport{ReporterID: alice.ID, ContentType: "post"})
	assert.ErrorIs(err, model.ErrValidation)

	r1, err := s.CreateContentReport(ctx, &model.ContentReport{
		ReporterID: alice.ID, ContentType: "post", ContentID: 11,
		Status: model.ReportResolved, CreatedAt: at(0),
	})
	require.NoError(t, err)
	assert.Equal(model.ReportPending, r1.Status)
	assert.Equal("other", r1.Reason)
	r2, err := s.CreateContentReport(ctx, &model.ContentReport{ReporterID: alice.ID, ContentType: "microblog", ContentID: 12, Reason: "spam", CreatedAt: at(1)})
	require.NoError(t, err)
	r3, err := s.CreateContentReport(ctx, &model.ContentReport{ReporterID: alice.ID, ContentType: "user", ContentID: admin.ID, Reason: "harassment", CreatedAt: at(2)})
	require.NoError(t, err)

	_, err = s.UpdateReport(ctx, r1.ID, model.ReportUpdate{Status: model.ReportPending})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.UpdateReport(ctx, r1.ID, model.ReportUpdate{Status: "escalated"})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = s.UpdateReport(ctx, 987654, model.ReportUpdate{Status: model.ReportResolved})
	assert.ErrorIs(err, model.ErrNotFound)

	// 数据库只保证微秒精度
	before := time.Now().Truncate(time.Millisecond)
	noted, err := s.UpdateReport(ctx, r2.ID, model.ReportUpdate{ModeratorNotes: ptr("looking")})
	require.NoError(t, err)
	assert.Equal(model.ReportPending, noted.Status)
	assert.Equal("looking", noted.ModeratorNotes)
	assert.Nil(noted.ResolvedAt)
	assert.False(noted.UpdatedAt.Before(before), "notes-only update refreshes updatedAt")

	touched, err := s.UpdateReport(ctx, r3.ID, model.ReportUpdate{})
	require.NoError(t, err)
	assert.Equal(model.ReportPending, touched.Status)
	assert.False(touched.UpdatedAt.Before(before), "empty update refreshes updatedAt")

	resolved, err := s.UpdateReport(ctx, r1.ID, model.ReportUpdate{Status: model.ReportResolved, ModeratorID: admin.ID, ModeratorNotes: ptr("removed")})
	require.NoError(t, err)
	assert.False(resolved.UpdatedAt.Before(before), "resolve refreshes updatedAt")
	assert.Equal(model.ReportResolved, resolved.Status)
	assert.Equal("removed", resolved.ModeratorNotes)
	require.NotNil(t, resolved.ModeratorID)
	assert.Equal(admin.ID, *resolved.ModeratorID)
	assert.NotNil(resolved.ResolvedAt)

	_, err = s.UpdateReport(ctx, r1.ID, model.ReportUpdate{Status: model.ReportDismissed})
	assert.ErrorIs(err, model.ErrConflict)

	ids := func(rows []model.ContentReport) []uint64 {
		out := make([]uint64, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}
	all, err := s.GetReports(ctx, repository.ReportFilter{})
	require.NoError(t, err)
	assert.Equal([]uint64{r3.ID, r2.ID, r1.ID}, ids(all))
	pending, err := s.GetReports(ctx, repository.ReportFilter{Status: model.ReportPending, Limit: 1})
	require.NoError(t, err)
	assert.Equal([]uint64{r3.ID}, ids(pending))

	got, err := s.GetReport(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(model.ReportResolved, got.Status)
}

func testBlocks(t *testing.T, s repository.Store) {
	assert := assert.New(t)
	alice := mkUser(t, s, "alice")
	bob := mkUser(t, s, "bob")
	carol := mkUser(t, s, "carol")

	_, err := s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: alice.ID})
	assert.ErrorIs(err, model.ErrValidation)

	b1, err := s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: bob.ID, Reason: "spam"})
	require.NoError(t, err)
	again, err := s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: bob.ID, Reason: "still spam"})
	require.NoError(t, err)
	assert.Equal(b1.ID, again.ID)
	assert.Equal("spam", again.Reason)
	_, err = s.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: carol.ID})
	require.NoError(t, err)

	list, err := s.ListUserBlocks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(list, 2)
	ids, err := s.GetBlockedUserIDsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{bob.ID, carol.ID}, ids)
	ids, err = s.GetBlockedUserIDsFor(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(ids)

	require.NoError(t, s.DeleteUserBlock(ctx, alice.ID, bob.ID))
	assert.ErrorIs(s.DeleteUserBlock(ctx, alice.ID, bob.ID), model.ErrNotFound)
	ids, err = s.GetBlockedUserIDsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{carol.ID}, ids)
}
