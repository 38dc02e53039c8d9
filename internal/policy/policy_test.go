package policy

import (
	"testing"
	"time"

	"The_Connection/internal/model"

	"github.com/stretchr/testify/assert"
)

func u64(v uint64) *uint64 { return &v }

func f64(v float64) *float64 { return &v }

func TestCanViewPrayerRequest(t *testing.T) {
	assert := assert.New(t)

	public := &model.PrayerRequest{AuthorID: 1, PrivacyLevel: model.PrivacyPublic}
	private := &model.PrayerRequest{AuthorID: 1, PrivacyLevel: model.PrivacyPrivate}
	group := &model.PrayerRequest{AuthorID: 1, PrivacyLevel: model.PrivacyGroupOnly, GroupID: u64(9)}
	orphan := &model.PrayerRequest{AuthorID: 1, PrivacyLevel: model.PrivacyGroupOnly}

	assert.True(CanViewPrayerRequest(public, 0, false))
	assert.True(CanViewPrayerRequest(public, 2, false))

	assert.True(CanViewPrayerRequest(private, 1, false))
	assert.False(CanViewPrayerRequest(private, 2, true))
	assert.False(CanViewPrayerRequest(private, 0, false))

	assert.True(CanViewPrayerRequest(group, 2, true))
	assert.False(CanViewPrayerRequest(group, 2, false))
	assert.True(CanViewPrayerRequest(group, 1, false))
	assert.False(CanViewPrayerRequest(orphan, 2, true))
}

func TestCanSendDM(t *testing.T) {
	assert := assert.New(t)

	accepted := &model.Connection{UserID: 1, ConnectedUserID: 2, Status: model.ConnectionAccepted}
	pending := &model.Connection{UserID: 1, ConnectedUserID: 2, Status: model.ConnectionPending}

	everyone := &model.User{ID: 2, DMPrivacy: model.DMPrivacyEveryone}
	assert.True(CanSendDM(everyone, false, nil))
	assert.False(CanSendDM(everyone, true, accepted))

	connections := &model.User{ID: 2, DMPrivacy: model.DMPrivacyConnections}
	assert.True(CanSendDM(connections, false, accepted))
	assert.False(CanSendDM(connections, false, pending))
	assert.False(CanSendDM(connections, false, nil))

	nobody := &model.User{ID: 2, DMPrivacy: model.DMPrivacyNobody}
	assert.False(CanSendDM(nobody, false, accepted))
}

func TestExcludeAuthors(t *testing.T) {
	assert := assert.New(t)

	rows := []model.Comment{{ID: 1, AuthorID: 10}, {ID: 2, AuthorID: 11}, {ID: 3, AuthorID: 10}}
	out := ExcludeAuthors(rows, func(c *model.Comment) uint64 { return c.AuthorID }, BlockSet([]uint64{10}))
	assert.Len(out, 1)
	assert.Equal(uint64(2), out[0].ID)

	again := []model.Comment{{ID: 1, AuthorID: 10}}
	assert.Len(ExcludeAuthors(again, func(c *model.Comment) uint64 { return c.AuthorID }, nil), 1)
}

func TestCheckConnectionTransition(t *testing.T) {
	assert := assert.New(t)
	conn := &model.Connection{UserID: 1, ConnectedUserID: 2, Status: model.ConnectionPending}

	assert.NoError(CheckConnectionTransition(conn, model.ConnectionAccepted, 2))
	assert.ErrorIs(CheckConnectionTransition(conn, model.ConnectionAccepted, 1), model.ErrForbidden)
	assert.NoError(CheckConnectionTransition(conn, model.ConnectionBlocked, 1))
	assert.NoError(CheckConnectionTransition(conn, model.ConnectionBlocked, 2))
	assert.ErrorIs(CheckConnectionTransition(conn, model.ConnectionBlocked, 3), model.ErrForbidden)
	assert.ErrorIs(CheckConnectionTransition(conn, "friends", 2), model.ErrValidation)
}

func TestCheckReportTransition(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(CheckReportTransition(model.ReportPending, model.ReportResolved))
	assert.NoError(CheckReportTransition(model.ReportPending, model.ReportDismissed))
	assert.NoError(CheckReportTransition(model.ReportPending, ""))
	assert.ErrorIs(CheckReportTransition(model.ReportPending, model.ReportPending), model.ErrValidation)
	assert.ErrorIs(CheckReportTransition(model.ReportResolved, model.ReportDismissed), model.ErrConflict)
	assert.ErrorIs(CheckReportTransition(model.ReportDismissed, ""), model.ErrConflict)
	assert.ErrorIs(CheckReportTransition(model.ReportPending, "escalated"), model.ErrValidation)
}

func TestCheckApplicationReview(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(CheckApplicationReview(model.ApplicationPending, model.ApplicationApproved))
	assert.NoError(CheckApplicationReview(model.ApplicationPending, model.ApplicationRejected))
	assert.ErrorIs(CheckApplicationReview(model.ApplicationPending, model.ApplicationPending), model.ErrValidation)
	assert.ErrorIs(CheckApplicationReview(model.ApplicationApproved, model.ApplicationRejected), model.ErrConflict)
}

func TestRoles(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsOwner(&model.CommunityMember{Role: model.RoleOwner}))
	assert.False(IsOwner(&model.CommunityMember{Role: model.RoleModerator}))
	assert.False(IsOwner(nil))
	assert.True(IsModerator(&model.CommunityMember{Role: model.RoleOwner}))
	assert.True(IsModerator(&model.CommunityMember{Role: model.RoleModerator}))
	assert.False(IsModerator(&model.CommunityMember{Role: model.RoleMember}))
	assert.False(IsModerator(nil))
}

func TestHotScore(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// 不足一小时按一小时计算
	assert.Equal(10.0, HotScore(10, now.Add(-10*time.Minute), now))
	assert.Equal(5.0, HotScore(10, now.Add(-2*time.Hour-30*time.Minute), now))
	assert.Equal(0.0, HotScore(0, now.Add(-5*time.Hour), now))
}

func TestSortPosts(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	posts := func() []model.Post {
		return []model.Post{
			{ID: 1, Upvotes: 10, CreatedAt: now.Add(-10 * time.Hour)}, // hot 1
			{ID: 2, Upvotes: 3, CreatedAt: now.Add(-30 * time.Minute)}, // hot 3
			{ID: 3, Upvotes: 3, CreatedAt: now.Add(-1 * time.Hour)},    // hot 3
		}
	}
	ids := func(rows []model.Post) []uint64 {
		var out []uint64
		for _, p := range rows {
			out = append(out, p.ID)
		}
		return out
	}

	rows := posts()
	SortPosts(rows, model.SortNew, now)
	assert.Equal([]uint64{2, 3, 1}, ids(rows))

	rows = posts()
	SortPosts(rows, model.SortTop, now)
	assert.Equal([]uint64{1, 2, 3}, ids(rows))

	// 分数相同保持到达顺序
	rows = posts()
	SortPosts(rows, model.SortHot, now)
	assert.Equal([]uint64{2, 3, 1}, ids(rows))
}

func TestLimit(t *testing.T) {
	assert := assert.New(t)
	rows := []int{1, 2, 3}
	assert.Equal([]int{1, 2}, Limit(rows, 2))
	assert.Equal(rows, Limit(rows, 0))
	assert.Equal(rows, Limit(rows, 5))
}

func TestNearbyEvents(t *testing.T) {
	assert := assert.New(t)

	events := []model.Event{
		{ID: 1, ShowOnMap: true, Latitude: f64(40.7580), Longitude: f64(-73.9855)}, // 时代广场
		{ID: 2, ShowOnMap: true, Latitude: f64(40.7128), Longitude: f64(-74.0060)}, // 市政厅
		{ID: 3, ShowOnMap: false, Latitude: f64(40.7128), Longitude: f64(-74.0060)},
		{ID: 4, ShowOnMap: true},
		{ID: 5, ShowOnMap: true, Latitude: f64(34.0522), Longitude: f64(-118.2437)},
	}
	out := NearbyEvents(events, 40.7128, -74.0060, 25)
	assert.Len(out, 2)
	assert.Equal(uint64(2), out[0].ID)
	assert.Equal(uint64(1), out[1].ID)

	d := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(3936, d, 10)
}
