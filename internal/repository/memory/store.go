// Package memory 是 repository.Store 的内存实现，用于本地开发和测试。
// 所有数据由一把读写锁保护，计数器与子记录在同一次加锁内修改。
package memory

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"

	"gorm.io/gorm"
)

type Store struct {
	mu     sync.RWMutex
	nextID uint64
	now    func() time.Time

	users          map[uint64]model.User
	communities    map[uint64]model.Community
	members        map[uint64]model.CommunityMember
	rooms          map[uint64]model.CommunityRoom
	chatMessages   map[uint64]model.ChatMessage
	posts          map[uint64]model.Post
	comments       map[uint64]model.Comment
	groups         map[uint64]model.Group
	groupMembers   map[uint64]model.GroupMember
	prayerRequests map[uint64]model.PrayerRequest
	prayers        map[uint64]model.Prayer
	events         map[uint64]model.Event
	rsvps          map[uint64]model.EventRSVP
	microblogs     map[uint64]model.Microblog
	microblogLikes map[uint64]model.MicroblogLike
	livestreams    map[uint64]model.Livestream
	applications   map[uint64]model.LivestreamerApplication
	messages       map[string]model.DirectMessage
	connections    map[uint64]model.Connection
	reports        map[uint64]model.ContentReport
	blocks         map[uint64]model.UserBlock
	pushTokens     map[uint64]model.PushToken
	outbox         map[uint64]model.NotificationOutbox
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:         1,
		now:            time.Now,
		users:          make(map[uint64]model.User),
		communities:    make(map[uint64]model.Community),
		members:        make(map[uint64]model.CommunityMember),
		rooms:          make(map[uint64]model.CommunityRoom),
		chatMessages:   make(map[uint64]model.ChatMessage),
		posts:          make(map[uint64]model.Post),
		comments:       make(map[uint64]model.Comment),
		groups:         make(map[uint64]model.Group),
		groupMembers:   make(map[uint64]model.GroupMember),
		prayerRequests: make(map[uint64]model.PrayerRequest),
		prayers:        make(map[uint64]model.Prayer),
		events:         make(map[uint64]model.Event),
		rsvps:          make(map[uint64]model.EventRSVP),
		microblogs:     make(map[uint64]model.Microblog),
		microblogLikes: make(map[uint64]model.MicroblogLike),
		livestreams:    make(map[uint64]model.Livestream),
		applications:   make(map[uint64]model.LivestreamerApplication),
		messages:       make(map[string]model.DirectMessage),
		connections:    make(map[uint64]model.Connection),
		reports:        make(map[uint64]model.ContentReport),
		blocks:         make(map[uint64]model.UserBlock),
		pushTokens:     make(map[uint64]model.PushToken),
		outbox:         make(map[uint64]model.NotificationOutbox),
	}
}

func (s *Store) nextIDLocked() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// stamp 调用方未指定创建时间时使用当前时间
func (s *Store) stamp(t *time.Time) time.Time {
	if t.IsZero() {
		*t = s.now()
	}
	return *t
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", model.ErrNotFound, kind, id)
}

func live(d gorm.DeletedAt) bool {
	return !d.Valid
}

func (s *Store) deletedAt() gorm.DeletedAt {
	return gorm.DeletedAt{Time: s.now(), Valid: true}
}

// collect 按 id 升序（即写入顺序）返回满足 keep 的记录
func collect[T any](m map[uint64]T, keep func(*T) bool) []T {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
	}
	return out
}

// newestFirst 按创建时间倒序，时间相同时 id 大的在前，与数据库实现的
// ORDER BY created_at DESC, id DESC 一致
func newestFirst[T any](rows []T, created func(*T) time.Time) []T {
	slices.Reverse(rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return created(&rows[i]).After(created(&rows[j]))
	})
	return rows
}

// blockedByLocked viewer 拉黑的用户集合
func (s *Store) blockedByLocked(viewerID uint64) map[uint64]struct{} {
	set := map[uint64]struct{}{}
	if viewerID == 0 {
		return set
	}
	for _, b := range s.blocks {
		if b.BlockerID == viewerID {
			set[b.BlockedID] = struct{}{}
		}
	}
	return set
}

func isBlocked(set map[uint64]struct{}, id uint64) bool {
	_, ok := set[id]
	return ok
}
