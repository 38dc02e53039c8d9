package postgres

import (
	"context"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreatePost(ctx context.Context, p *model.Post) (*model.Post, error) {
	if err := p.Prepare(); err != nil {
		return nil, err
	}
	if p.CommunityID != nil {
		if _, err := s.GetCommunity(ctx, *p.CommunityID); err != nil {
			return nil, err
		}
	}
	rec := *p
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	var p model.Post
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, "post", id)
	}
	return &p, nil
}

// ListPosts 过滤在 SQL 中完成；hot 依赖当前时间，排序与截断统一交给 policy
func (s *Store) ListPosts(ctx context.Context, f repository.PostFilter) ([]model.Post, error) {
	q := s.DB.WithContext(ctx).Model(&model.Post{})
	if f.CommunityID != 0 {
		q = q.Where("community_id = ?", f.CommunityID)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	q = s.excludeBlocked(q, "author_id", f.ViewerID)

	var list []model.Post
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	policy.SortPosts(list, f.Sort, time.Now())
	return policy.Limit(list, f.Limit), nil
}

func (s *Store) UpvotePost(ctx context.Context, id uint64) (*model.Post, error) {
	var p model.Post
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&p, id).Error; err != nil {
			return translate(err, "post", id)
		}
		if err := adjustCounter(tx, &model.Post{}, "upvotes", id, 1); err != nil {
			return err
		}
		return tx.First(&p, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePost(ctx context.Context, id uint64) error {
	return softDelete[model.Post](ctx, s.DB, "post", id)
}

func (s *Store) CreateComment(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	rec := *c
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Post
		if err := tx.Select("id").First(&p, rec.PostID).Error; err != nil {
			return translate(err, "post", rec.PostID)
		}
		if rec.ParentID != nil {
			var parent model.Comment
			err := tx.Where("id = ? AND post_id = ?", *rec.ParentID, rec.PostID).First(&parent).Error
			if err != nil {
				return fmt.Errorf("%w: parent comment %d not on post %d", model.ErrValidation, *rec.ParentID, rec.PostID)
			}
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return adjustCounter(tx, &model.Post{}, "comment_count", rec.PostID, 1)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetComment(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "comment", id)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, postID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := s.DB.WithContext(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) UpvoteComment(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&c, id).Error; err != nil {
			return translate(err, "comment", id)
		}
		if err := adjustCounter(tx, &model.Comment{}, "upvotes", id, 1); err != nil {
			return err
		}
		return tx.First(&c, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteComment 只有本次真正删除时才扣减 comment_count，重复删除不会多扣
func (s *Store) DeleteComment(ctx context.Context, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Comment
		if err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
			return translate(err, "comment", id)
		}
		if c.DeletedAt.Valid {
			return nil
		}
		res := tx.Delete(&model.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return adjustCounter(tx, &model.Post{}, "comment_count", c.PostID, -1)
	})
}

func (s *Store) CreateGroup(ctx context.Context, g *model.Group) (*model.Group, error) {
	if err := g.Prepare(); err != nil {
		return nil, err
	}
	rec := *g
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		m := model.GroupMember{GroupID: rec.ID, UserID: rec.CreatedBy, IsAdmin: true, CreatedAt: rec.CreatedAt}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetGroup(ctx context.Context, id uint64) (*model.Group, error) {
	var g model.Group
	if err := s.DB.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, translate(err, "group", id)
	}
	return &g, nil
}

func (s *Store) ListUserGroups(ctx context.Context, userID uint64) ([]model.Group, error) {
	in := s.DB.Model(&model.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
	var list []model.Group
	err := s.DB.WithContext(ctx).Where("id IN (?)", in).Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) AddGroupMember(ctx context.Context, groupID, userID uint64, isAdmin bool) (*model.GroupMember, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	m := model.GroupMember{GroupID: groupID, UserID: userID, IsAdmin: isAdmin}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %d already in group %d", model.ErrConflict, userID, groupID)
	}
	return &m, nil
}

func (s *Store) RemoveGroupMember(ctx context.Context, groupID, userID uint64) error {
	res := s.DB.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&model.GroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "group member", fmt.Sprintf("%d/%d", groupID, userID))
	}
	return nil
}

func (s *Store) GetGroupMember(ctx context.Context, groupID, userID uint64) (*model.GroupMember, error) {
	var m model.GroupMember
	if err := s.DB.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error; err != nil {
		return nil, translate(err, "group member", fmt.Sprintf("%d/%d", groupID, userID))
	}
	return &m, nil
}

func (s *Store) ListGroupMembers(ctx context.Context, groupID uint64) ([]model.GroupMember, error) {
	var list []model.GroupMember
	err := s.DB.WithContext(ctx).Where("group_id = ?", groupID).Order("id ASC").Find(&list).Error
	return list, err
}
