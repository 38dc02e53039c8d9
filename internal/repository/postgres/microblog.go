package postgres

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateMicroblog(ctx context.Context, m *model.Microblog) (*model.Microblog, error) {
	if err := m.Prepare(); err != nil {
		return nil, err
	}
	rec := *m
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rec.ParentID != nil {
			var parent model.Microblog
			if err := tx.Select("id").First(&parent, *rec.ParentID).Error; err != nil {
				return translate(err, "microblog", *rec.ParentID)
			}
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if rec.ParentID == nil {
			return nil
		}
		return adjustCounter(tx, &model.Microblog{}, "reply_count", *rec.ParentID, 1)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetMicroblog(ctx context.Context, id uint64) (*model.Microblog, error) {
	var m model.Microblog
	if err := s.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err, "microblog", id)
	}
	return &m, nil
}

func (s *Store) ListMicroblogs(ctx context.Context, f repository.MicroblogFilter) ([]model.Microblog, error) {
	q := s.DB.WithContext(ctx).Model(&model.Microblog{})
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.CommunityID != 0 {
		q = q.Where("community_id = ?", f.CommunityID)
	}
	if f.ParentID != 0 {
		q = q.Where("parent_id = ?", f.ParentID)
	} else {
		q = q.Where("parent_id IS NULL")
	}
	q = s.excludeBlocked(q, "author_id", f.ViewerID)
	var list []model.Microblog
	err := limit(q.Order("created_at DESC, id DESC"), f.Limit).Find(&list).Error
	return list, err
}

func (s *Store) UpdateMicroblog(ctx context.Context, id uint64, patch model.MicroblogPatch) (*model.Microblog, error) {
	if _, err := s.GetMicroblog(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.Columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&model.Microblog{ID: id}).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetMicroblog(ctx, id)
}

// DeleteMicroblog 删除回复时父微博 reply_count 减一，重复删除不再扣减
func (s *Store) DeleteMicroblog(ctx context.Context, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Microblog
		if err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error; err != nil {
			return translate(err, "microblog", id)
		}
		if m.DeletedAt.Valid {
			return nil
		}
		res := tx.Delete(&model.Microblog{}, id)
		if res.Error != nil || res.RowsAffected == 0 || m.ParentID == nil {
			return res.Error
		}
		return adjustCounter(tx, &model.Microblog{}, "reply_count", *m.ParentID, -1)
	})
}

func (s *Store) LikeMicroblog(ctx context.Context, microblogID, userID uint64) (*model.Microblog, error) {
	var m model.Microblog
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&m, microblogID).Error; err != nil {
			return translate(err, "microblog", microblogID)
		}
		like := model.MicroblogLike{MicroblogID: microblogID, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: already liked", model.ErrConflict)
		}
		if err := adjustCounter(tx, &model.Microblog{}, "like_count", microblogID, 1); err != nil {
			return err
		}
		return tx.First(&m, microblogID).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) UnlikeMicroblog(ctx context.Context, microblogID, userID uint64) (*model.Microblog, error) {
	var m model.Microblog
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Select("id").First(&m, microblogID).Error; err != nil {
			return translate(err, "microblog", microblogID)
		}
		res := tx.Where("microblog_id = ? AND user_id = ?", microblogID, userID).Delete(&model.MicroblogLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "microblog like", fmt.Sprintf("%d/%d", microblogID, userID))
		}
		if err := adjustCounter(tx, &model.Microblog{}, "like_count", microblogID, -1); err != nil {
			return err
		}
		return tx.Unscoped().First(&m, microblogID).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListLikedMicroblogIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.DB.WithContext(ctx).Model(&model.MicroblogLike{}).
		Where("user_id = ?", userID).Order("id ASC").Pluck("microblog_id", &ids).Error
	return ids, err
}
