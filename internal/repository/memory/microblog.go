package memory

import (
	"context"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

func (s *Store) CreateMicroblog(_ context.Context, m *model.Microblog) (*model.Microblog, error) {
	if err := m.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var parent model.Microblog
	if m.ParentID != nil {
		var ok bool
		parent, ok = s.microblogs[*m.ParentID]
		if !ok || !live(parent.DeletedAt) {
			return nil, notFound("microblog", *m.ParentID)
		}
	}
	rec := *m
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.microblogs[rec.ID] = rec
	if m.ParentID != nil {
		parent.ReplyCount = model.ClampAdd(parent.ReplyCount, 1)
		s.microblogs[parent.ID] = parent
	}
	return &rec, nil
}

func (s *Store) GetMicroblog(_ context.Context, id uint64) (*model.Microblog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.microblogs[id]
	if !ok || !live(m.DeletedAt) {
		return nil, notFound("microblog", id)
	}
	return &m, nil
}

func (s *Store) ListMicroblogs(_ context.Context, f repository.MicroblogFilter) ([]model.Microblog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blocked := s.blockedByLocked(f.ViewerID)
	rows := collect(s.microblogs, func(m *model.Microblog) bool {
		switch {
		case !live(m.DeletedAt), isBlocked(blocked, m.AuthorID):
			return false
		case f.AuthorID != 0 && m.AuthorID != f.AuthorID:
			return false
		case f.CommunityID != 0 && (m.CommunityID == nil || *m.CommunityID != f.CommunityID):
			return false
		case f.ParentID != 0 && (m.ParentID == nil || *m.ParentID != f.ParentID):
			return false
		case f.ParentID == 0 && m.ParentID != nil:
			return false
		}
		return true
	})
	rows = newestFirst(rows, func(m *model.Microblog) time.Time { return m.CreatedAt })
	return policy.Limit(rows, f.Limit), nil
}

func (s *Store) UpdateMicroblog(_ context.Context, id uint64, patch model.MicroblogPatch) (*model.Microblog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.microblogs[id]
	if !ok || !live(m.DeletedAt) {
		return nil, notFound("microblog", id)
	}
	patch.Apply(&m)
	m.UpdatedAt = s.now()
	s.microblogs[id] = m
	return &m, nil
}

func (s *Store) DeleteMicroblog(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.microblogs[id]
	if !ok {
		return notFound("microblog", id)
	}
	if !live(m.DeletedAt) {
		return nil
	}
	m.DeletedAt = s.deletedAt()
	s.microblogs[id] = m
	if m.ParentID != nil {
		if parent, ok := s.microblogs[*m.ParentID]; ok {
			parent.ReplyCount = model.ClampAdd(parent.ReplyCount, -1)
			s.microblogs[parent.ID] = parent
		}
	}
	return nil
}

func (s *Store) LikeMicroblog(_ context.Context, microblogID, userID uint64) (*model.Microblog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.microblogs[microblogID]
	if !ok || !live(m.DeletedAt) {
		return nil, notFound("microblog", microblogID)
	}
	for _, l := range s.microblogLikes {
		if l.MicroblogID == microblogID && l.UserID == userID {
			return nil, fmt.Errorf("%w: already liked", model.ErrConflict)
		}
	}
	l := model.MicroblogLike{ID: s.nextIDLocked(), MicroblogID: microblogID, UserID: userID, CreatedAt: s.now()}
	s.microblogLikes[l.ID] = l
	m.LikeCount = model.ClampAdd(m.LikeCount, 1)
	s.microblogs[microblogID] = m
	return &m, nil
}

func (s *Store) UnlikeMicroblog(_ context.Context, microblogID, userID uint64) (*model.Microblog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.microblogs[microblogID]
	if !ok {
		return nil, notFound("microblog", microblogID)
	}
	for id, l := range s.microblogLikes {
		if l.MicroblogID == microblogID && l.UserID == userID {
			delete(s.microblogLikes, id)
			m.LikeCount = model.ClampAdd(m.LikeCount, -1)
			s.microblogs[microblogID] = m
			return &m, nil
		}
	}
	return nil, notFound("microblog like", fmt.Sprintf("%d/%d", microblogID, userID))
}

func (s *Store) ListLikedMicroblogIDs(_ context.Context, userID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	likes := collect(s.microblogLikes, func(l *model.MicroblogLike) bool { return l.UserID == userID })
	ids := make([]uint64, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.MicroblogID)
	}
	return ids, nil
}
