package service

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
)

type GroupService struct {
	store repository.Store
}

func NewGroupService(store repository.Store) *GroupService {
	return &GroupService{store: store}
}

func (s *GroupService) Create(ctx context.Context, userID uint64, g *model.Group) (*model.Group, error) {
	g.CreatedBy = userID
	return s.store.CreateGroup(ctx, g)
}

func (s *GroupService) ListMine(ctx context.Context, userID uint64) ([]model.Group, error) {
	return s.store.ListUserGroups(ctx, userID)
}

func (s *GroupService) requireAdmin(ctx context.Context, groupID, userID uint64) error {
	m, err := s.store.GetGroupMember(ctx, groupID, userID)
	if err != nil {
		return asForbidden(err, "group admins only")
	}
	if !m.IsAdmin {
		return fmt.Errorf("%w: group admins only", model.ErrForbidden)
	}
	return nil
}

// AddMember 小组管理员拉人入组
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, userID uint64, isAdmin bool) (*model.GroupMember, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	return s.store.AddGroupMember(ctx, groupID, userID, isAdmin)
}

// RemoveMember 管理员可移除任何人，普通成员只能退出
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, userID uint64) error {
	if actorID != userID {
		if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
			return err
		}
	}
	return s.store.RemoveGroupMember(ctx, groupID, userID)
}

// Members 只有成员能看到成员列表
func (s *GroupService) Members(ctx context.Context, viewerID, groupID uint64) ([]model.GroupMember, error) {
	if _, err := s.store.GetGroupMember(ctx, groupID, viewerID); err != nil {
		return nil, asForbidden(err, "group members only")
	}
	return s.store.ListGroupMembers(ctx, groupID)
}
