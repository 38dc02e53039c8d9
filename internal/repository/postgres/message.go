package postgres

import (
	"context"

	"The_Connection/internal/model"

	"gorm.io/gorm"
)

// CreateDirectMessage 私信与通知 outbox 在同一事务内写入
func (s *Store) CreateDirectMessage(ctx context.Context, m *model.DirectMessage, notify *model.NotificationOutbox) (*model.DirectMessage, error) {
	if err := m.Prepare(); err != nil {
		return nil, err
	}
	rec := *m
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return translate(err, "message", rec.ID)
		}
		if notify == nil {
			return nil
		}
		ob := *notify
		ob.ID = 0
		ob.Status = model.OutboxPending
		ob.Retry = 0
		return tx.Create(&ob).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListDirectMessages(ctx context.Context, userA, userB uint64) ([]model.DirectMessage, error) {
	var list []model.DirectMessage
	err := s.DB.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", userA, userB, userB, userA).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (s *Store) ListConversationPartners(ctx context.Context, userID uint64) ([]uint64, error) {
	// 最近的会话在前
	var list []model.DirectMessage
	if err := s.DB.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?)", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	seen := map[uint64]struct{}{}
	var partners []uint64
	for _, m := range list {
		other := m.SenderID
		if other == userID {
			other = m.ReceiverID
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		partners = append(partners, other)
	}
	return partners, nil
}

func (s *Store) ListPendingOutbox(ctx context.Context, batchSize, maxRetry int) ([]model.NotificationOutbox, error) {
	var list []model.NotificationOutbox
	q := s.DB.WithContext(ctx).
		Where("(status = ? OR (status = ? AND retry < ?))", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC")
	if err := limit(q, batchSize).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) MarkOutboxSent(ctx context.Context, id uint64) error {
	res := s.DB.WithContext(ctx).Model(&model.NotificationOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "outbox", id)
	}
	return nil
}

func (s *Store) MarkOutboxFailed(ctx context.Context, id uint64) error {
	res := s.DB.WithContext(ctx).Model(&model.NotificationOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "outbox", id)
	}
	return nil
}
