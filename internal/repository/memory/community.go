package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

func (s *Store) CreateCommunity(_ context.Context, c *model.Community) (*model.Community, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.communities {
		if live(other.DeletedAt) && other.Slug == c.Slug {
			return nil, fmt.Errorf("%w: community slug %q already taken", model.ErrConflict, c.Slug)
		}
	}
	rec := *c
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.communities[rec.ID] = rec

	if _, err := s.addMemberLocked(rec.ID, rec.CreatedBy, model.RoleOwner); err != nil {
		return nil, err
	}
	rec = s.communities[rec.ID]
	return &rec, nil
}

func (s *Store) GetCommunity(_ context.Context, id uint64) (*model.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[id]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("community", id)
	}
	return &c, nil
}

func (s *Store) GetCommunityBySlug(_ context.Context, slug string) (*model.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.communities, func(c *model.Community) bool { return live(c.DeletedAt) && c.Slug == slug })
	if len(rows) == 0 {
		return nil, notFound("community", slug)
	}
	return &rows[0], nil
}

func (s *Store) ListCommunities(_ context.Context, f repository.CommunityFilter) ([]model.Community, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocked := s.blockedByLocked(f.ViewerID)
	joined := s.joinedLocked(f.ViewerID)
	rows := collect(s.communities, func(c *model.Community) bool {
		if !live(c.DeletedAt) || isBlocked(blocked, c.CreatedBy) {
			return false
		}
		if _, ok := joined[c.ID]; c.IsPrivate && !ok {
			return false
		}
		return search == "" ||
			strings.Contains(strings.ToLower(c.Name), search) ||
			strings.Contains(strings.ToLower(c.Description), search)
	})
	rows = newestFirst(rows, func(c *model.Community) time.Time { return c.CreatedAt })
	return policy.Limit(rows, f.Limit), nil
}

func (s *Store) joinedLocked(userID uint64) map[uint64]struct{} {
	set := map[uint64]struct{}{}
	if userID == 0 {
		return set
	}
	for _, m := range s.members {
		if m.UserID == userID {
			set[m.CommunityID] = struct{}{}
		}
	}
	return set
}

func (s *Store) ListUserCommunities(_ context.Context, userID uint64) ([]model.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	joined := s.joinedLocked(userID)
	return collect(s.communities, func(c *model.Community) bool {
		_, ok := joined[c.ID]
		return ok && live(c.DeletedAt)
	}), nil
}

func (s *Store) UpdateCommunity(_ context.Context, id uint64, patch model.CommunityPatch) (*model.Community, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[id]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("community", id)
	}
	patch.Apply(&c)
	c.UpdatedAt = s.now()
	s.communities[id] = c
	return &c, nil
}

func (s *Store) DeleteCommunity(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[id]
	if !ok {
		return notFound("community", id)
	}
	if live(c.DeletedAt) {
		c.DeletedAt = s.deletedAt()
		s.communities[id] = c
	}
	return nil
}

func (s *Store) AddCommunityMember(_ context.Context, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMemberLocked(communityID, userID, role)
}

// addMemberLocked 写入成员并同步 memberCount
func (s *Store) addMemberLocked(communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error) {
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}
	c, ok := s.communities[communityID]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("community", communityID)
	}
	if _, err := s.memberLocked(communityID, userID); err == nil {
		return nil, fmt.Errorf("%w: user %d already in community %d", model.ErrConflict, userID, communityID)
	}
	now := s.now()
	m := model.CommunityMember{
		ID:          s.nextIDLocked(),
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.members[m.ID] = m
	c.MemberCount = model.ClampAdd(c.MemberCount, 1)
	s.communities[communityID] = c
	return &m, nil
}

func (s *Store) memberLocked(communityID, userID uint64) (*model.CommunityMember, error) {
	for _, m := range s.members {
		if m.CommunityID == communityID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, notFound("community member", fmt.Sprintf("%d/%d", communityID, userID))
}

func (s *Store) RemoveCommunityMember(_ context.Context, communityID, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.memberLocked(communityID, userID)
	if err != nil {
		return err
	}
	delete(s.members, m.ID)
	if c, ok := s.communities[communityID]; ok {
		c.MemberCount = model.ClampAdd(c.MemberCount, -1)
		s.communities[communityID] = c
	}
	return nil
}

func (s *Store) GetCommunityMember(_ context.Context, communityID, userID uint64) (*model.CommunityMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memberLocked(communityID, userID)
}

func (s *Store) ListCommunityMembers(_ context.Context, communityID uint64) ([]model.CommunityMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.members, func(m *model.CommunityMember) bool { return m.CommunityID == communityID }), nil
}

func (s *Store) UpdateCommunityMemberRole(_ context.Context, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.memberLocked(communityID, userID)
	if err != nil {
		return nil, err
	}
	m.Role = role
	m.UpdatedAt = s.now()
	s.members[m.ID] = *m
	return m, nil
}

func (s *Store) CreateCommunityRoom(_ context.Context, r *model.CommunityRoom) (*model.CommunityRoom, error) {
	if err := r.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.communities[r.CommunityID]; !ok || !live(c.DeletedAt) {
		return nil, notFound("community", r.CommunityID)
	}
	rec := *r
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.rooms[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetCommunityRoom(_ context.Context, id uint64) (*model.CommunityRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok || !live(r.DeletedAt) {
		return nil, notFound("room", id)
	}
	return &r, nil
}

func (s *Store) ListCommunityRooms(_ context.Context, communityID uint64, includePrivate bool) ([]model.CommunityRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.rooms, func(r *model.CommunityRoom) bool {
		return live(r.DeletedAt) && r.CommunityID == communityID && (includePrivate || !r.IsPrivate)
	}), nil
}

func (s *Store) UpdateCommunityRoom(_ context.Context, id uint64, patch model.CommunityRoomPatch) (*model.CommunityRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok || !live(r.DeletedAt) {
		return nil, notFound("room", id)
	}
	patch.Apply(&r)
	r.UpdatedAt = s.now()
	s.rooms[id] = r
	return &r, nil
}

func (s *Store) DeleteCommunityRoom(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return notFound("room", id)
	}
	if live(r.DeletedAt) {
		r.DeletedAt = s.deletedAt()
		s.rooms[id] = r
	}
	return nil
}

func (s *Store) CreateChatMessage(_ context.Context, m *model.ChatMessage) (*model.ChatMessage, error) {
	if err := m.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[m.RoomID]; !ok || !live(r.DeletedAt) {
		return nil, notFound("room", m.RoomID)
	}
	rec := *m
	rec.ID = s.nextIDLocked()
	s.stamp(&rec.CreatedAt)
	s.chatMessages[rec.ID] = rec
	return &rec, nil
}

func (s *Store) ListChatMessages(_ context.Context, roomID, afterID uint64, limit int) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.chatMessages, func(m *model.ChatMessage) bool {
		return live(m.DeletedAt) && m.RoomID == roomID && m.ID > afterID
	})
	return policy.Limit(rows, limit), nil
}

func (s *Store) DeleteChatMessage(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.chatMessages[id]
	if !ok {
		return notFound("chat message", id)
	}
	if live(m.DeletedAt) {
		m.DeletedAt = s.deletedAt()
		s.chatMessages[id] = m
	}
	return nil
}
