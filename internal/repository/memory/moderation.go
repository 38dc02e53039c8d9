package memory

import (
	"context"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

func (s *Store) CreateConnection(_ context.Context, c *model.Connection) (*model.Connection, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.connectionBetweenLocked(c.UserID, c.ConnectedUserID); err == nil {
		return nil, fmt.Errorf("%w: connection already exists", model.ErrConflict)
	}
	rec := *c
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.connections[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetConnection(_ context.Context, id uint64) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[id]
	if !ok {
		return nil, notFound("connection", id)
	}
	return &c, nil
}

func (s *Store) connectionBetweenLocked(a, b uint64) (*model.Connection, error) {
	rows := collect(s.connections, func(c *model.Connection) bool {
		return (c.UserID == a && c.ConnectedUserID == b) || (c.UserID == b && c.ConnectedUserID == a)
	})
	if len(rows) == 0 {
		return nil, notFound("connection", fmt.Sprintf("%d/%d", a, b))
	}
	return &rows[0], nil
}

func (s *Store) GetConnectionBetween(_ context.Context, a, b uint64) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectionBetweenLocked(a, b)
}

func (s *Store) ListConnections(_ context.Context, userID uint64, status model.ConnectionStatus) ([]model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.connections, func(c *model.Connection) bool {
		return c.Involves(userID) && (status == "" || c.Status == status)
	}), nil
}

func (s *Store) UpdateConnectionStatus(_ context.Context, id uint64, status model.ConnectionStatus, actingUserID uint64) (*model.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.connections[id]
	if !ok {
		return nil, notFound("connection", id)
	}
	if err := policy.CheckConnectionTransition(&c, status, actingUserID); err != nil {
		return nil, err
	}
	c.Status = status
	c.UpdatedAt = s.now()
	s.connections[id] = c
	return &c, nil
}

func (s *Store) CreateContentReport(_ context.Context, r *model.ContentReport) (*model.ContentReport, error) {
	if err := r.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *r
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.reports[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetReport(_ context.Context, id uint64) (*model.ContentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, notFound("report", id)
	}
	return &r, nil
}

func (s *Store) GetReports(_ context.Context, f repository.ReportFilter) ([]model.ContentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.reports, func(r *model.ContentReport) bool {
		return f.Status == "" || r.Status == f.Status
	})
	rows = newestFirst(rows, func(r *model.ContentReport) time.Time { return r.CreatedAt })
	return policy.Limit(rows, f.Limit), nil
}

func (s *Store) UpdateReport(_ context.Context, id uint64, upd model.ReportUpdate) (*model.ContentReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, notFound("report", id)
	}
	if err := policy.CheckReportTransition(r.Status, upd.Status); err != nil {
		return nil, err
	}
	now := s.now()
	if upd.ModeratorNotes != nil {
		r.ModeratorNotes = *upd.ModeratorNotes
	}
	if upd.Status != "" {
		r.Status = upd.Status
		r.ResolvedAt = &now
		if upd.ModeratorID != 0 {
			moderator := upd.ModeratorID
			r.ModeratorID = &moderator
		}
	}
	r.UpdatedAt = now
	s.reports[id] = r
	return &r, nil
}

func (s *Store) CreateUserBlock(_ context.Context, b *model.UserBlock) (*model.UserBlock, error) {
	if err := b.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.blocks {
		if existing.BlockerID == b.BlockerID && existing.BlockedID == b.BlockedID {
			return &existing, nil
		}
	}
	rec := *b
	rec.ID = s.nextIDLocked()
	s.stamp(&rec.CreatedAt)
	s.blocks[rec.ID] = rec
	return &rec, nil
}

func (s *Store) DeleteUserBlock(_ context.Context, blockerID, blockedID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			delete(s.blocks, id)
			return nil
		}
	}
	return notFound("block", fmt.Sprintf("%d/%d", blockerID, blockedID))
}

func (s *Store) ListUserBlocks(_ context.Context, blockerID uint64) ([]model.UserBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.blocks, func(b *model.UserBlock) bool { return b.BlockerID == blockerID }), nil
}

func (s *Store) GetBlockedUserIDsFor(_ context.Context, blockerID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.blocks, func(b *model.UserBlock) bool { return b.BlockerID == blockerID })
	ids := make([]uint64, 0, len(rows))
	for _, b := range rows {
		ids = append(ids, b.BlockedID)
	}
	return ids, nil
}
