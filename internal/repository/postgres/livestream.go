package postgres

import (
	"context"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateLivestream(ctx context.Context, l *model.Livestream) (*model.Livestream, error) {
	if err := l.Prepare(); err != nil {
		return nil, err
	}
	rec := *l
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetLivestream(ctx context.Context, id uint64) (*model.Livestream, error) {
	var l model.Livestream
	if err := s.DB.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, translate(err, "livestream", id)
	}
	return &l, nil
}

func (s *Store) ListLivestreams(ctx context.Context, status string) ([]model.Livestream, error) {
	q := s.DB.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.Livestream
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (s *Store) DeleteLivestream(ctx context.Context, id uint64) error {
	return softDelete[model.Livestream](ctx, s.DB, "livestream", id)
}

func (s *Store) CreateLivestreamerApplication(ctx context.Context, a *model.LivestreamerApplication) (*model.LivestreamerApplication, error) {
	if err := a.Prepare(); err != nil {
		return nil, err
	}
	rec := *a
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %d already applied", model.ErrConflict, a.UserID)
	}
	return &rec, nil
}

func (s *Store) GetLivestreamerApplicationByUser(ctx context.Context, userID uint64) (*model.LivestreamerApplication, error) {
	var a model.LivestreamerApplication
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, translate(err, "livestreamer application for user", userID)
	}
	return &a, nil
}

func (s *Store) ListLivestreamerApplications(ctx context.Context, status model.ApplicationStatus) ([]model.LivestreamerApplication, error) {
	q := s.DB.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.LivestreamerApplication
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (s *Store) ReviewLivestreamerApplication(ctx context.Context, id uint64, status model.ApplicationStatus, notes string, reviewerID uint64) (*model.LivestreamerApplication, error) {
	var a model.LivestreamerApplication
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error; err != nil {
			return translate(err, "livestreamer application", id)
		}
		if err := policy.CheckApplicationReview(a.Status, status); err != nil {
			return err
		}
		now := time.Now()
		err := tx.Model(&a).Updates(map[string]any{
			"status":       status,
			"review_notes": notes,
			"reviewed_by":  reviewerID,
			"reviewed_at":  now,
		}).Error
		if err != nil {
			return err
		}
		return tx.First(&a, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) LivestreamerApplicationStats(ctx context.Context) (model.ApplicationStats, error) {
	var rows []struct {
		Status model.ApplicationStatus
		N      int64
	}
	var st model.ApplicationStats
	err := s.DB.WithContext(ctx).Model(&model.LivestreamerApplication{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return st, err
	}
	for _, r := range rows {
		st.Total += r.N
		switch r.Status {
		case model.ApplicationPending:
			st.Pending = r.N
		case model.ApplicationApproved:
			st.Approved = r.N
		case model.ApplicationRejected:
			st.Rejected = r.N
		}
	}
	return st, nil
}

func (s *Store) IsApprovedLivestreamer(ctx context.Context, userID uint64) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&model.LivestreamerApplication{}).
		Where("user_id = ? AND status = ?", userID, model.ApplicationApproved).Count(&n).Error
	return n > 0, err
}
