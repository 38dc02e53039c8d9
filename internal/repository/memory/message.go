package memory

import (
	"context"
	"fmt"
	"sort"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
)

func (s *Store) CreateDirectMessage(_ context.Context, m *model.DirectMessage, notify *model.NotificationOutbox) (*model.DirectMessage, error) {
	if err := m.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[m.ID]; ok {
		return nil, fmt.Errorf("%w: message %s exists", model.ErrConflict, m.ID)
	}
	rec := *m
	s.stamp(&rec.CreatedAt)
	s.messages[rec.ID] = rec
	if notify != nil {
		ob := *notify
		ob.ID = s.nextIDLocked()
		ob.Status = model.OutboxPending
		ob.Retry = 0
		ob.CreatedAt = rec.CreatedAt
		ob.UpdatedAt = rec.CreatedAt
		s.outbox[ob.ID] = ob
	}
	return &rec, nil
}

func (s *Store) conversationLocked(match func(*model.DirectMessage) bool) []model.DirectMessage {
	var rows []model.DirectMessage
	for _, m := range s.messages {
		if live(m.DeletedAt) && match(&m) {
			rows = append(rows, m)
		}
	}
	// uuid 无序，时间相同时按 id 保证结果稳定
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows
}

func (s *Store) ListDirectMessages(_ context.Context, userA, userB uint64) ([]model.DirectMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationLocked(func(m *model.DirectMessage) bool {
		return (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA)
	}), nil
}

func (s *Store) ListConversationPartners(_ context.Context, userID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.conversationLocked(func(m *model.DirectMessage) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	})
	seen := map[uint64]struct{}{}
	var partners []uint64
	for i := len(rows) - 1; i >= 0; i-- {
		other := rows[i].SenderID
		if other == userID {
			other = rows[i].ReceiverID
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		partners = append(partners, other)
	}
	return partners, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, batchSize, maxRetry int) ([]model.NotificationOutbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.outbox, func(ob *model.NotificationOutbox) bool {
		return ob.Status == model.OutboxPending || (ob.Status == model.OutboxFailed && ob.Retry < maxRetry)
	})
	return policy.Limit(rows, batchSize), nil
}

func (s *Store) MarkOutboxSent(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ob, ok := s.outbox[id]
	if !ok {
		return notFound("outbox", id)
	}
	ob.Status = model.OutboxSent
	ob.UpdatedAt = s.now()
	s.outbox[id] = ob
	return nil
}

func (s *Store) MarkOutboxFailed(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ob, ok := s.outbox[id]
	if !ok {
		return notFound("outbox", id)
	}
	ob.Status = model.OutboxFailed
	ob.Retry++
	ob.UpdatedAt = s.now()
	s.outbox[id] = ob
	return nil
}
