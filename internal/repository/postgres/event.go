package postgres

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateEvent(ctx context.Context, e *model.Event) (*model.Event, error) {
	if err := e.Prepare(); err != nil {
		return nil, err
	}
	rec := *e
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	if err := s.DB.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err, "event", id)
	}
	return &e, nil
}

func (s *Store) ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	q := s.DB.WithContext(ctx).Model(&model.Event{})
	if f.CreatorID != 0 {
		q = q.Where("creator_id = ?", f.CreatorID)
	}
	if f.CommunityID != 0 {
		q = q.Where("community_id = ?", f.CommunityID)
	}
	if f.PublicOnly {
		q = q.Where("is_public = ?", true)
	}
	q = s.excludeBlocked(q, "creator_id", f.ViewerID)
	if f.From.IsZero() {
		q = q.Order("created_at DESC, id DESC")
	} else {
		q = q.Where("event_date >= ?", f.From).Order("event_date ASC, id ASC")
	}
	var list []model.Event
	err := limit(q, f.Limit).Find(&list).Error
	return list, err
}

// ListNearbyEvents 距离计算不依赖 PostGIS，取出可上图的活动后在内存中过滤
func (s *Store) ListNearbyEvents(ctx context.Context, lat, lng, radiusKm float64) ([]model.Event, error) {
	var list []model.Event
	err := s.DB.WithContext(ctx).
		Where("show_on_map = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Order("id ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return policy.NearbyEvents(list, lat, lng, radiusKm), nil
}

func (s *Store) UpdateEvent(ctx context.Context, id uint64, patch model.EventPatch) (*model.Event, error) {
	if _, err := s.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.Columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&model.Event{ID: id}).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetEvent(ctx, id)
}

func (s *Store) DeleteEvent(ctx context.Context, id uint64) error {
	return softDelete[model.Event](ctx, s.DB, "event", id)
}

func (s *Store) CreateEventRSVP(ctx context.Context, eventID, userID uint64, status model.RSVPStatus) (*model.EventRSVP, error) {
	if status == "" {
		status = model.RSVPGoing
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown rsvp status %q", model.ErrValidation, status)
	}
	r := model.EventRSVP{EventID: eventID, UserID: userID, Status: status}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.Event
		if err := tx.Select("id").First(&e, eventID).Error; err != nil {
			return translate(err, "event", eventID)
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&r)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user %d already responded to event %d", model.ErrConflict, userID, eventID)
		}
		return adjustCounter(tx, &model.Event{}, "rsvp_count", eventID, 1)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetEventRSVP(ctx context.Context, eventID, userID uint64) (*model.EventRSVP, error) {
	var r model.EventRSVP
	if err := s.DB.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).First(&r).Error; err != nil {
		return nil, translate(err, "rsvp", fmt.Sprintf("%d/%d", eventID, userID))
	}
	return &r, nil
}

func (s *Store) UpdateEventRSVP(ctx context.Context, id uint64, status model.RSVPStatus) (*model.EventRSVP, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown rsvp status %q", model.ErrValidation, status)
	}
	res := s.DB.WithContext(ctx).Model(&model.EventRSVP{ID: id}).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, translate(gorm.ErrRecordNotFound, "rsvp", id)
	}
	var r model.EventRSVP
	if err := s.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, translate(err, "rsvp", id)
	}
	return &r, nil
}

func (s *Store) DeleteEventRSVP(ctx context.Context, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r model.EventRSVP
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, id).Error; err != nil {
			return translate(err, "rsvp", id)
		}
		if err := tx.Delete(&r).Error; err != nil {
			return err
		}
		return adjustCounter(tx, &model.Event{}, "rsvp_count", r.EventID, -1)
	})
}

func (s *Store) ListEventRSVPs(ctx context.Context, eventID uint64) ([]model.EventRSVP, error) {
	var list []model.EventRSVP
	err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&list).Error
	return list, err
}
