package postgres

import (
	"context"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"

	"gorm.io/gorm"
)

func (s *Store) CreatePrayerRequest(ctx context.Context, r *model.PrayerRequest) (*model.PrayerRequest, error) {
	if err := r.Prepare(); err != nil {
		return nil, err
	}
	if r.GroupID != nil {
		if _, err := s.GetGroup(ctx, *r.GroupID); err != nil {
			return nil, err
		}
	}
	rec := *r
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetPrayerRequest(ctx context.Context, id uint64) (*model.PrayerRequest, error) {
	var r model.PrayerRequest
	if err := s.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, translate(err, "prayer request", id)
	}
	return &r, nil
}

func (s *Store) ListPrayerRequests(ctx context.Context, f repository.PrayerRequestFilter) ([]model.PrayerRequest, error) {
	q := s.DB.WithContext(ctx).Model(&model.PrayerRequest{})
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.Answered != nil {
		q = q.Where("is_answered = ?", *f.Answered)
	}
	var list []model.PrayerRequest
	err := limit(q.Order("created_at DESC, id DESC"), f.Limit).Find(&list).Error
	return list, err
}

// ListPrayerRequestsVisibleTo SQL 先按同样的规则粗筛，再用 policy 复核一遍
func (s *Store) ListPrayerRequestsVisibleTo(ctx context.Context, userID uint64) ([]model.PrayerRequest, error) {
	groups := s.DB.Model(&model.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
	q := s.DB.WithContext(ctx).
		Where("(privacy_level = ? OR author_id = ? OR (privacy_level = ? AND group_id IN (?)))",
			model.PrivacyPublic, userID, model.PrivacyGroupOnly, groups)

	var list []model.PrayerRequest
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	var member []uint64
	if err := s.DB.WithContext(ctx).Model(&model.GroupMember{}).Where("user_id = ?", userID).Pluck("group_id", &member).Error; err != nil {
		return nil, err
	}
	in := policy.BlockSet(member)
	out := list[:0]
	for i := range list {
		r := &list[i]
		inGroup := false
		if r.GroupID != nil {
			_, inGroup = in[*r.GroupID]
		}
		if policy.CanViewPrayerRequest(r, userID, inGroup) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *Store) UpdatePrayerRequest(ctx context.Context, id uint64, patch model.PrayerRequestPatch) (*model.PrayerRequest, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetPrayerRequest(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.Columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&model.PrayerRequest{ID: id}).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetPrayerRequest(ctx, id)
}

func (s *Store) DeletePrayerRequest(ctx context.Context, id uint64) error {
	return softDelete[model.PrayerRequest](ctx, s.DB, "prayer request", id)
}

func (s *Store) CreatePrayer(ctx context.Context, requestID, userID uint64) (*model.Prayer, error) {
	p := model.Prayer{PrayerRequestID: requestID, UserID: userID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r model.PrayerRequest
		if err := tx.Select("id").First(&r, requestID).Error; err != nil {
			return translate(err, "prayer request", requestID)
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return adjustCounter(tx, &model.PrayerRequest{}, "prayer_count", requestID, 1)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPrayers(ctx context.Context, requestID uint64) ([]model.Prayer, error) {
	var list []model.Prayer
	err := s.DB.WithContext(ctx).Where("prayer_request_id = ?", requestID).Order("id ASC").Find(&list).Error
	return list, err
}
