package service

import (
	"context"
	"errors"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

type CommunityService struct {
	store repository.Store
}

func NewCommunityService(store repository.Store) *CommunityService {
	return &CommunityService{store: store}
}

func (s *CommunityService) Create(ctx context.Context, userID uint64, c *model.Community) (*model.Community, error) {
	c.CreatedBy = userID
	return s.store.CreateCommunity(ctx, c)
}

// Get 私密社区只对成员可见，其他人看到 NotFound
func (s *CommunityService) Get(ctx context.Context, viewerID, communityID uint64) (*model.Community, error) {
	c, err := s.store.GetCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, viewerID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommunityService) GetBySlug(ctx context.Context, viewerID uint64, slug string) (*model.Community, error) {
	c, err := s.store.GetCommunityBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, viewerID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommunityService) checkVisible(ctx context.Context, viewerID uint64, c *model.Community) error {
	if !c.IsPrivate {
		return nil
	}
	if _, err := s.store.GetCommunityMember(ctx, c.ID, viewerID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: community %d", model.ErrNotFound, c.ID)
		}
		return err
	}
	return nil
}

func (s *CommunityService) List(ctx context.Context, viewerID uint64, search string, limit int) ([]model.Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListCommunities(ctx, repository.CommunityFilter{ViewerID: viewerID, Search: search, Limit: limit})
}

func (s *CommunityService) ListMine(ctx context.Context, userID uint64) ([]model.Community, error) {
	return s.store.ListUserCommunities(ctx, userID)
}

func (s *CommunityService) member(ctx context.Context, communityID, userID uint64) (*model.CommunityMember, error) {
	m, err := s.store.GetCommunityMember(ctx, communityID, userID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// Update 版主及以上可修改社区资料
func (s *CommunityService) Update(ctx context.Context, userID, communityID uint64, patch model.CommunityPatch) (*model.Community, error) {
	m, err := s.member(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if !policy.IsModerator(m) {
		return nil, fmt.Errorf("%w: moderators only", model.ErrForbidden)
	}
	return s.store.UpdateCommunity(ctx, communityID, patch)
}

// Delete 只有所有者可以删除社区
func (s *CommunityService) Delete(ctx context.Context, userID, communityID uint64) error {
	if _, err := s.store.GetCommunity(ctx, communityID); err != nil {
		return err
	}
	m, err := s.member(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !policy.IsOwner(m) {
		return fmt.Errorf("%w: only the owner can delete a community", model.ErrForbidden)
	}
	return s.store.DeleteCommunity(ctx, communityID)
}

func (s *CommunityService) Join(ctx context.Context, userID, communityID uint64) (*model.CommunityMember, error) {
	return s.store.AddCommunityMember(ctx, communityID, userID, model.RoleMember)
}

// Leave 所有者需要先转让或删除社区
func (s *CommunityService) Leave(ctx context.Context, userID, communityID uint64) error {
	m, err := s.store.GetCommunityMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if policy.IsOwner(m) {
		return fmt.Errorf("%w: owner cannot leave the community", model.ErrValidation)
	}
	return s.store.RemoveCommunityMember(ctx, communityID, userID)
}

func (s *CommunityService) Members(ctx context.Context, viewerID, communityID uint64) ([]model.CommunityMember, error) {
	if _, err := s.Get(ctx, viewerID, communityID); err != nil {
		return nil, err
	}
	return s.store.ListCommunityMembers(ctx, communityID)
}

// SetRole 只有所有者可以任免版主，所有权不能通过这里转移
func (s *CommunityService) SetRole(ctx context.Context, actorID, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error) {
	m, err := s.member(ctx, communityID, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.IsOwner(m) {
		return nil, fmt.Errorf("%w: only the owner can change roles", model.ErrForbidden)
	}
	if role == model.RoleOwner || actorID == userID {
		return nil, fmt.Errorf("%w: ownership cannot be changed here", model.ErrValidation)
	}
	return s.store.UpdateCommunityMemberRole(ctx, communityID, userID, role)
}

func (s *CommunityService) CreateRoom(ctx context.Context, userID uint64, r *model.CommunityRoom) (*model.CommunityRoom, error) {
	m, err := s.member(ctx, r.CommunityID, userID)
	if err != nil {
		return nil, err
	}
	if !policy.IsModerator(m) {
		return nil, fmt.Errorf("%w: moderators only", model.ErrForbidden)
	}
	r.CreatedBy = userID
	return s.store.CreateCommunityRoom(ctx, r)
}

// Rooms 非成员只能看到公开聊天室
func (s *CommunityService) Rooms(ctx context.Context, viewerID, communityID uint64) ([]model.CommunityRoom, error) {
	if _, err := s.Get(ctx, viewerID, communityID); err != nil {
		return nil, err
	}
	m, err := s.member(ctx, communityID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.store.ListCommunityRooms(ctx, communityID, m != nil)
}

// DeleteRoom 版主和所有者可以删除聊天室
func (s *CommunityService) DeleteRoom(ctx context.Context, userID, roomID uint64) error {
	r, err := s.store.GetCommunityRoom(ctx, roomID)
	if err != nil {
		return err
	}
	m, err := s.member(ctx, r.CommunityID, userID)
	if err != nil {
		return err
	}
	if !policy.IsModerator(m) {
		return fmt.Errorf("%w: moderators only", model.ErrForbidden)
	}
	return s.store.DeleteCommunityRoom(ctx, roomID)
}

// roomAccess 私密聊天室只对社区成员开放；发言总是需要成员身份
func (s *CommunityService) roomAccess(ctx context.Context, userID, roomID uint64, write bool) (*model.CommunityRoom, error) {
	r, err := s.store.GetCommunityRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !r.IsPrivate && !write {
		return r, nil
	}
	m, err := s.member(ctx, r.CommunityID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: community members only", model.ErrForbidden)
	}
	return r, nil
}

func (s *CommunityService) SendChat(ctx context.Context, userID, roomID uint64, content string) (*model.ChatMessage, error) {
	if _, err := s.roomAccess(ctx, userID, roomID, true); err != nil {
		return nil, err
	}
	return s.store.CreateChatMessage(ctx, &model.ChatMessage{RoomID: roomID, SenderID: userID, Content: content})
}

func (s *CommunityService) ChatHistory(ctx context.Context, userID, roomID, afterID uint64, limit int) ([]model.ChatMessage, error) {
	if _, err := s.roomAccess(ctx, userID, roomID, false); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListChatMessages(ctx, roomID, afterID, limit)
}
