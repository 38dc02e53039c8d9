package postgres

import (
	"context"
	"fmt"
	"strings"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateCommunity(ctx context.Context, c *model.Community) (*model.Community, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	rec := *c
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Community{}).Where("slug = ?", rec.Slug).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: community slug %q already taken", model.ErrConflict, rec.Slug)
		}
		if err := tx.Create(&rec).Error; err != nil {
			return translate(err, "community", rec.Slug)
		}
		if _, err := addMember(tx, rec.ID, rec.CreatedBy, model.RoleOwner); err != nil {
			return err
		}
		return tx.First(&rec, rec.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetCommunity(ctx context.Context, id uint64) (*model.Community, error) {
	var c model.Community
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "community", id)
	}
	return &c, nil
}

func (s *Store) GetCommunityBySlug(ctx context.Context, slug string) (*model.Community, error) {
	var c model.Community
	if err := s.DB.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err, "community", slug)
	}
	return &c, nil
}

func (s *Store) ListCommunities(ctx context.Context, f repository.CommunityFilter) ([]model.Community, error) {
	q := s.DB.WithContext(ctx).Model(&model.Community{})
	if f.ViewerID != 0 {
		joined := s.DB.Model(&model.CommunityMember{}).Select("community_id").Where("user_id = ?", f.ViewerID)
		q = q.Where("(is_private = ? OR id IN (?))", false, joined)
	} else {
		q = q.Where("is_private = ?", false)
	}
	q = s.excludeBlocked(q, "created_by", f.ViewerID)
	if strings.TrimSpace(f.Search) != "" {
		pat := likePattern(f.Search)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pat, pat)
	}
	var list []model.Community
	err := limit(q.Order("created_at DESC, id DESC"), f.Limit).Find(&list).Error
	return list, err
}

func (s *Store) ListUserCommunities(ctx context.Context, userID uint64) ([]model.Community, error) {
	joined := s.DB.Model(&model.CommunityMember{}).Select("community_id").Where("user_id = ?", userID)
	var list []model.Community
	err := s.DB.WithContext(ctx).Where("id IN (?)", joined).Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) UpdateCommunity(ctx context.Context, id uint64, patch model.CommunityPatch) (*model.Community, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetCommunity(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.Columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&model.Community{ID: id}).Updates(cols).Error; err != nil {
			return nil, translate(err, "community", id)
		}
	}
	return s.GetCommunity(ctx, id)
}

func (s *Store) DeleteCommunity(ctx context.Context, id uint64) error {
	return softDelete[model.Community](ctx, s.DB, "community", id)
}

func (s *Store) AddCommunityMember(ctx context.Context, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error) {
	var m *model.CommunityMember
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = addMember(tx, communityID, userID, role)
		return err
	})
	return m, err
}

// addMember 写入成员并在同一事务内同步 member_count
func addMember(tx *gorm.DB, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error) {
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}
	var c model.Community
	if err := tx.Select("id").First(&c, communityID).Error; err != nil {
		return nil, translate(err, "community", communityID)
	}
	m := model.CommunityMember{CommunityID: communityID, UserID: userID, Role: role}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %d already in community %d", model.ErrConflict, userID, communityID)
	}
	if err := adjustCounter(tx, &model.Community{}, "member_count", communityID, 1); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) RemoveCommunityMember(ctx context.Context, communityID, userID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).Delete(&model.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "community member", fmt.Sprintf("%d/%d", communityID, userID))
		}
		return adjustCounter(tx, &model.Community{}, "member_count", communityID, -1)
	})
}

func (s *Store) GetCommunityMember(ctx context.Context, communityID, userID uint64) (*model.CommunityMember, error) {
	var m model.CommunityMember
	err := s.DB.WithContext(ctx).Where("community_id = ? AND user_id = ?", communityID, userID).First(&m).Error
	if err != nil {
		return nil, translate(err, "community member", fmt.Sprintf("%d/%d", communityID, userID))
	}
	return &m, nil
}

func (s *Store) ListCommunityMembers(ctx context.Context, communityID uint64) ([]model.CommunityMember, error) {
	var list []model.CommunityMember
	err := s.DB.WithContext(ctx).Where("community_id = ?", communityID).Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) UpdateCommunityMemberRole(ctx context.Context, communityID, userID uint64, role model.MemberRole) (*model.CommunityMember, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}
	m, err := s.GetCommunityMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(m).Update("role", role).Error; err != nil {
		return nil, err
	}
	return s.GetCommunityMember(ctx, communityID, userID)
}

func (s *Store) CreateCommunityRoom(ctx context.Context, r *model.CommunityRoom) (*model.CommunityRoom, error) {
	if err := r.Prepare(); err != nil {
		return nil, err
	}
	if _, err := s.GetCommunity(ctx, r.CommunityID); err != nil {
		return nil, err
	}
	rec := *r
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, translate(err, "room", rec.Name)
	}
	return &rec, nil
}

func (s *Store) GetCommunityRoom(ctx context.Context, id uint64) (*model.CommunityRoom, error) {
	var r model.CommunityRoom
	if err := s.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, translate(err, "room", id)
	}
	return &r, nil
}

func (s *Store) ListCommunityRooms(ctx context.Context, communityID uint64, includePrivate bool) ([]model.CommunityRoom, error) {
	q := s.DB.WithContext(ctx).Where("community_id = ?", communityID)
	if !includePrivate {
		q = q.Where("is_private = ?", false)
	}
	var list []model.CommunityRoom
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) UpdateCommunityRoom(ctx context.Context, id uint64, patch model.CommunityRoomPatch) (*model.CommunityRoom, error) {
	if _, err := s.GetCommunityRoom(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.Columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&model.CommunityRoom{ID: id}).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetCommunityRoom(ctx, id)
}

func (s *Store) DeleteCommunityRoom(ctx context.Context, id uint64) error {
	return softDelete[model.CommunityRoom](ctx, s.DB, "room", id)
}

func (s *Store) CreateChatMessage(ctx context.Context, m *model.ChatMessage) (*model.ChatMessage, error) {
	if err := m.Prepare(); err != nil {
		return nil, err
	}
	if _, err := s.GetCommunityRoom(ctx, m.RoomID); err != nil {
		return nil, err
	}
	rec := *m
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListChatMessages(ctx context.Context, roomID, afterID uint64, n int) ([]model.ChatMessage, error) {
	q := s.DB.WithContext(ctx).Where("room_id = ? AND id > ?", roomID, afterID).Order("id ASC")
	var list []model.ChatMessage
	err := limit(q, n).Find(&list).Error
	return list, err
}

func (s *Store) DeleteChatMessage(ctx context.Context, id uint64) error {
	return softDelete[model.ChatMessage](ctx, s.DB, "chat message", id)
}
