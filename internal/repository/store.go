// Package repository 定义实体存储接口。memory 与 postgres 两个子包分别提供内存实现和 gorm 实现，
// 调用方只依赖 Store，不区分后端。
//
// 约定：Get 系列在记录不存在或已软删除时返回 model.ErrNotFound；
// Delete 系列为软删除且幂等，已删除的记录再次删除返回 nil，从未存在的 id 返回 model.ErrNotFound。
package repository

import (
	"context"
	"time"

	"The_Connection/internal/model"
)

type Store interface {
	UserStore
	CommunityStore
	RoomStore
	PostStore
	GroupStore
	PrayerStore
	EventStore
	MicroblogStore
	LivestreamStore
	MessageStore
	ConnectionStore
	ModerationStore
	PushTokenStore
	OutboxStore
}

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// SearchUsers 按用户名/昵称模糊匹配，排除 viewer 拉黑的用户
	SearchUsers(ctx context.Context, term string, viewerID uint64, limit int) ([]model.User, error)
	UpdateUser(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type CommunityFilter struct {
	ViewerID uint64 // 非 0 时包含 viewer 加入的私密社区，并排除 viewer 拉黑的创建者
	Search   string
	Limit    int
}

type CommunityStore interface {
	// CreateCommunity 创建社区并把创建者以 owner 身份加入
	CreateCommunity(ctx context.Context, c *model.Community) (*model.Community, error)
	GetCommunity(ctx context.Context, id uint64) (*model.Community, error)
	GetCommunityBySlug(ctx context.Context, slug string) (*model.Community, error)
	ListCommunities(ctx context.Context, f CommunityFilter) ([]model.Community, error)
	ListUserCommunities(ctx context.Context, userID uint64) ([]model.Community, error)
	UpdateCommunity(ctx context.Context, id uint64, patch model.CommunityPatch) (*model.Community, error)
	DeleteCommunity(ctx context.Context, id uint64) error

	AddCommunityMember(ctx context.Context, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error)
	RemoveCommunityMember(ctx context.Context, communityID, userID uint64) error
	GetCommunityMember(ctx context.Context, communityID, userID uint64) (*model.CommunityMember, error)
	ListCommunityMembers(ctx context.Context, communityID uint64) ([]model.CommunityMember, error)
	UpdateCommunityMemberRole(ctx context.Context, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error)
}

type RoomStore interface {
	CreateCommunityRoom(ctx context.Context, r *model.CommunityRoom) (*model.CommunityRoom, error)
	GetCommunityRoom(ctx context.Context, id uint64) (*model.CommunityRoom, error)
	ListCommunityRooms(ctx context.Context, communityID uint64, includePrivate bool) ([]model.CommunityRoom, error)
	UpdateCommunityRoom(ctx context.Context, id uint64, patch model.CommunityRoomPatch) (*model.CommunityRoom, error)
	DeleteCommunityRoom(ctx context.Context, id uint64) error

	CreateChatMessage(ctx context.Context, m *model.ChatMessage) (*model.ChatMessage, error)
	// ListChatMessages 返回 id 大于 afterID 的消息，按 id 升序
	ListChatMessages(ctx context.Context, roomID, afterID uint64, limit int) ([]model.ChatMessage, error)
	DeleteChatMessage(ctx context.Context, id uint64) error
}

type PostFilter struct {
	CommunityID uint64
	GroupID     uint64
	AuthorID    uint64
	ViewerID    uint64
	Sort        model.PostSort
	Limit       int
}

type PostStore interface {
	CreatePost(ctx context.Context, p *model.Post) (*model.Post, error)
	GetPost(ctx context.Context, id uint64) (*model.Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]model.Post, error)
	UpvotePost(ctx context.Context, id uint64) (*model.Post, error)
	DeletePost(ctx context.Context, id uint64) error

	// CreateComment 同时将帖子的 commentCount 加一
	CreateComment(ctx context.Context, c *model.Comment) (*model.Comment, error)
	GetComment(ctx context.Context, id uint64) (*model.Comment, error)
	ListComments(ctx context.Context, postID uint64) ([]model.Comment, error)
	UpvoteComment(ctx context.Context, id uint64) (*model.Comment, error)
	DeleteComment(ctx context.Context, id uint64) error
}

type GroupStore interface {
	CreateGroup(ctx context.Context, g *model.Group) (*model.Group, error)
	GetGroup(ctx context.Context, id uint64) (*model.Group, error)
	ListUserGroups(ctx context.Context, userID uint64) ([]model.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID uint64, isAdmin bool) (*model.GroupMember, error)
	RemoveGroupMember(ctx context.Context, groupID, userID uint64) error
	GetGroupMember(ctx context.Context, groupID, userID uint64) (*model.GroupMember, error)
	ListGroupMembers(ctx context.Context, groupID uint64) ([]model.GroupMember, error)
}

type PrayerRequestFilter struct {
	AuthorID uint64
	GroupID  uint64
	Answered *bool
	Limit    int
}

type PrayerStore interface {
	CreatePrayerRequest(ctx context.Context, r *model.PrayerRequest) (*model.PrayerRequest, error)
	GetPrayerRequest(ctx context.Context, id uint64) (*model.PrayerRequest, error)
	ListPrayerRequests(ctx context.Context, f PrayerRequestFilter) ([]model.PrayerRequest, error)
	// ListPrayerRequestsVisibleTo 按 policy.CanViewPrayerRequest 过滤，按创建时间倒序
	ListPrayerRequestsVisibleTo(ctx context.Context, userID uint64) ([]model.PrayerRequest, error)
	UpdatePrayerRequest(ctx context.Context, id uint64, patch model.PrayerRequestPatch) (*model.PrayerRequest, error)
	DeletePrayerRequest(ctx context.Context, id uint64) error
	// CreatePrayer 同时将 prayerCount 加一
	CreatePrayer(ctx context.Context, requestID, userID uint64) (*model.Prayer, error)
	ListPrayers(ctx context.Context, requestID uint64) ([]model.Prayer, error)
}

type EventFilter struct {
	ViewerID    uint64
	CreatorID   uint64
	CommunityID uint64
	PublicOnly  bool
	From        time.Time // 非零时只返回 eventDate >= From 的活动，按日期升序
	Limit       int
}

type EventStore interface {
	CreateEvent(ctx context.Context, e *model.Event) (*model.Event, error)
	GetEvent(ctx context.Context, id uint64) (*model.Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error)
	ListNearbyEvents(ctx context.Context, lat, lng, radiusKm float64) ([]model.Event, error)
	UpdateEvent(ctx context.Context, id uint64, patch model.EventPatch) (*model.Event, error)
	DeleteEvent(ctx context.Context, id uint64) error

	// CreateEventRSVP 重复报名返回 ErrConflict
	CreateEventRSVP(ctx context.Context, eventID, userID uint64, status model.RSVPStatus) (*model.EventRSVP, error)
	GetEventRSVP(ctx context.Context, eventID, userID uint64) (*model.EventRSVP, error)
	UpdateEventRSVP(ctx context.Context, id uint64, status model.RSVPStatus) (*model.EventRSVP, error)
	DeleteEventRSVP(ctx context.Context, id uint64) error
	ListEventRSVPs(ctx context.Context, eventID uint64) ([]model.EventRSVP, error)
}

type MicroblogFilter struct {
	AuthorID    uint64
	CommunityID uint64
	ParentID    uint64
	ViewerID    uint64
	Limit       int
}

type MicroblogStore interface {
	// CreateMicroblog 为回复时同时将父微博 replyCount 加一
	CreateMicroblog(ctx context.Context, m *model.Microblog) (*model.Microblog, error)
	GetMicroblog(ctx context.Context, id uint64) (*model.Microblog, error)
	ListMicroblogs(ctx context.Context, f MicroblogFilter) ([]model.Microblog, error)
	UpdateMicroblog(ctx context.Context, id uint64, patch model.MicroblogPatch) (*model.Microblog, error)
	DeleteMicroblog(ctx context.Context, id uint64) error
	// LikeMicroblog 已点赞返回 ErrConflict
	LikeMicroblog(ctx context.Context, microblogID, userID uint64) (*model.Microblog, error)
	// UnlikeMicroblog 未点赞返回 ErrNotFound
	UnlikeMicroblog(ctx context.Context, microblogID, userID uint64) (*model.Microblog, error)
	ListLikedMicroblogIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

type LivestreamStore interface {
	CreateLivestream(ctx context.Context, l *model.Livestream) (*model.Livestream, error)
	GetLivestream(ctx context.Context, id uint64) (*model.Livestream, error)
	ListLivestreams(ctx context.Context, status string) ([]model.Livestream, error)
	DeleteLivestream(ctx context.Context, id uint64) error

	// CreateLivestreamerApplication 每个用户只能有一份申请，重复返回 ErrConflict
	CreateLivestreamerApplication(ctx context.Context, a *model.LivestreamerApplication) (*model.LivestreamerApplication, error)
	GetLivestreamerApplicationByUser(ctx context.Context, userID uint64) (*model.LivestreamerApplication, error)
	ListLivestreamerApplications(ctx context.Context, status model.ApplicationStatus) ([]model.LivestreamerApplication, error)
	ReviewLivestreamerApplication(ctx context.Context, id uint64, status model.ApplicationStatus, notes string, reviewerID uint64) (*model.LivestreamerApplication, error)
	LivestreamerApplicationStats(ctx context.Context) (model.ApplicationStats, error)
	IsApprovedLivestreamer(ctx context.Context, userID uint64) (bool, error)
}

type MessageStore interface {
	// CreateDirectMessage 写入私信，notify 非 nil 时在同一事务内写入通知 outbox
	CreateDirectMessage(ctx context.Context, m *model.DirectMessage, notify *model.NotificationOutbox) (*model.DirectMessage, error)
	// ListDirectMessages 两人之间双向的私信，按时间升序
	ListDirectMessages(ctx context.Context, userA, userB uint64) ([]model.DirectMessage, error)
	// ListConversationPartners 与 userID 有过私信往来的用户 id，最近的在前
	ListConversationPartners(ctx context.Context, userID uint64) ([]uint64, error)
}

type ConnectionStore interface {
	// CreateConnection 两人之间（任意方向）已存在关系时返回 ErrConflict
	CreateConnection(ctx context.Context, c *model.Connection) (*model.Connection, error)
	GetConnection(ctx context.Context, id uint64) (*model.Connection, error)
	GetConnectionBetween(ctx context.Context, a, b uint64) (*model.Connection, error)
	ListConnections(ctx context.Context, userID uint64, status model.ConnectionStatus) ([]model.Connection, error)
	// UpdateConnectionStatus 按 policy.CheckConnectionTransition 校验操作人
	UpdateConnectionStatus(ctx context.Context, id uint64, status model.ConnectionStatus, actingUserID uint64) (*model.Connection, error)
}

type ReportFilter struct {
	Status model.ReportStatus
	Limit  int
}

type ModerationStore interface {
	CreateContentReport(ctx context.Context, r *model.ContentReport) (*model.ContentReport, error)
	GetReport(ctx context.Context, id uint64) (*model.ContentReport, error)
	// GetReports 按创建时间倒序
	GetReports(ctx context.Context, f ReportFilter) ([]model.ContentReport, error)
	UpdateReport(ctx context.Context, id uint64, upd model.ReportUpdate) (*model.ContentReport, error)

	// CreateUserBlock 幂等，已存在时返回已有记录
	CreateUserBlock(ctx context.Context, b *model.UserBlock) (*model.UserBlock, error)
	DeleteUserBlock(ctx context.Context, blockerID, blockedID uint64) error
	ListUserBlocks(ctx context.Context, blockerID uint64) ([]model.UserBlock, error)
	GetBlockedUserIDsFor(ctx context.Context, blockerID uint64) ([]uint64, error)
}

type PushTokenStore interface {
	// SavePushToken 按 token upsert，token 换绑用户时更新 userId
	SavePushToken(ctx context.Context, t *model.PushToken) (*model.PushToken, error)
	ListPushTokens(ctx context.Context, userID uint64) ([]model.PushToken, error)
	DeletePushToken(ctx context.Context, token string) error
}

type OutboxStore interface {
	// ListPendingOutbox 取待投递以及重试次数未超过 maxRetry 的失败事件，按 id 升序
	ListPendingOutbox(ctx context.Context, batchSize, maxRetry int) ([]model.NotificationOutbox, error)
	MarkOutboxSent(ctx context.Context, id uint64) error
	MarkOutboxFailed(ctx context.Context, id uint64) error
}
