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

func pairCond(tx *gorm.DB, a, b uint64) *gorm.DB {
	return tx.Where("((user_id = ? AND connected_user_id = ?) OR (user_id = ? AND connected_user_id = ?))", a, b, b, a)
}

// CreateConnection 关系按无序的两人唯一，反向已存在也算冲突。
// 并发的反向请求由 pair_key 唯一索引兜底。
func (s *Store) CreateConnection(ctx context.Context, c *model.Connection) (*model.Connection, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	rec := *c
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := pairCond(tx.Model(&model.Connection{}), rec.UserID, rec.ConnectedUserID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: connection already exists", model.ErrConflict)
		}
		return translate(tx.Create(&rec).Error, "connection", fmt.Sprintf("%d/%d", rec.UserID, rec.ConnectedUserID))
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetConnection(ctx context.Context, id uint64) (*model.Connection, error) {
	var c model.Connection
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "connection", id)
	}
	return &c, nil
}

func (s *Store) GetConnectionBetween(ctx context.Context, a, b uint64) (*model.Connection, error) {
	var c model.Connection
	if err := pairCond(s.DB.WithContext(ctx), a, b).Order("id ASC").First(&c).Error; err != nil {
		return nil, translate(err, "connection", fmt.Sprintf("%d/%d", a, b))
	}
	return &c, nil
}

func (s *Store) ListConnections(ctx context.Context, userID uint64, status model.ConnectionStatus) ([]model.Connection, error) {
	q := s.DB.WithContext(ctx).Where("(user_id = ? OR connected_user_id = ?)", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.Connection
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) UpdateConnectionStatus(ctx context.Context, id uint64, status model.ConnectionStatus, actingUserID uint64) (*model.Connection, error) {
	var c model.Connection
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
			return translate(err, "connection", id)
		}
		if err := policy.CheckConnectionTransition(&c, status, actingUserID); err != nil {
			return err
		}
		if err := tx.Model(&c).Update("status", status).Error; err != nil {
			return err
		}
		return tx.First(&c, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateContentReport(ctx context.Context, r *model.ContentReport) (*model.ContentReport, error) {
	if err := r.Prepare(); err != nil {
		return nil, err
	}
	rec := *r
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetReport(ctx context.Context, id uint64) (*model.ContentReport, error) {
	var r model.ContentReport
	if err := s.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, translate(err, "report", id)
	}
	return &r, nil
}

func (s *Store) GetReports(ctx context.Context, f repository.ReportFilter) ([]model.ContentReport, error) {
	q := s.DB.WithContext(ctx)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var list []model.ContentReport
	err := limit(q.Order("created_at DESC, id DESC"), f.Limit).Find(&list).Error
	return list, err
}

// UpdateReport 锁定举报后校验状态流转，终态不可再修改；每次更新都刷新 updated_at
func (s *Store) UpdateReport(ctx context.Context, id uint64, upd model.ReportUpdate) (*model.ContentReport, error) {
	var r model.ContentReport
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, id).Error; err != nil {
			return translate(err, "report", id)
		}
		if err := policy.CheckReportTransition(r.Status, upd.Status); err != nil {
			return err
		}
		cols := map[string]any{"updated_at": time.Now()}
		if upd.ModeratorNotes != nil {
			cols["moderator_notes"] = *upd.ModeratorNotes
		}
		if upd.Status != "" {
			cols["status"] = upd.Status
			cols["resolved_at"] = time.Now()
			if upd.ModeratorID != 0 {
				cols["moderator_id"] = upd.ModeratorID
			}
		}
		if err := tx.Model(&r).Updates(cols).Error; err != nil {
			return err
		}
		return tx.First(&r, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateUserBlock 幂等：唯一索引冲突时不报错，返回已有记录
func (s *Store) CreateUserBlock(ctx context.Context, b *model.UserBlock) (*model.UserBlock, error) {
	if err := b.Prepare(); err != nil {
		return nil, err
	}
	rec := *b
	db := s.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
		return nil, err
	}
	var out model.UserBlock
	if err := db.Where("blocker_id = ? AND blocked_id = ?", b.BlockerID, b.BlockedID).First(&out).Error; err != nil {
		return nil, translate(err, "block", fmt.Sprintf("%d/%d", b.BlockerID, b.BlockedID))
	}
	return &out, nil
}

func (s *Store) DeleteUserBlock(ctx context.Context, blockerID, blockedID uint64) error {
	res := s.DB.WithContext(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&model.UserBlock{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "block", fmt.Sprintf("%d/%d", blockerID, blockedID))
	}
	return nil
}

func (s *Store) ListUserBlocks(ctx context.Context, blockerID uint64) ([]model.UserBlock, error) {
	var list []model.UserBlock
	err := s.DB.WithContext(ctx).Where("blocker_id = ?", blockerID).Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) GetBlockedUserIDsFor(ctx context.Context, blockerID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := s.DB.WithContext(ctx).Model(&model.UserBlock{}).
		Where("blocker_id = ?", blockerID).Order("id ASC").Pluck("blocked_id", &ids).Error
	return ids, err
}
