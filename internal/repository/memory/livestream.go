package memory

import (
	"context"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
)

func (s *Store) CreateLivestream(_ context.Context, l *model.Livestream) (*model.Livestream, error) {
	if err := l.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *l
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.livestreams[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetLivestream(_ context.Context, id uint64) (*model.Livestream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.livestreams[id]
	if !ok || !live(l.DeletedAt) {
		return nil, notFound("livestream", id)
	}
	return &l, nil
}

func (s *Store) ListLivestreams(_ context.Context, status string) ([]model.Livestream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.livestreams, func(l *model.Livestream) bool {
		return live(l.DeletedAt) && (status == "" || l.Status == status)
	})
	return newestFirst(rows, func(l *model.Livestream) time.Time { return l.CreatedAt }), nil
}

func (s *Store) DeleteLivestream(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.livestreams[id]
	if !ok {
		return notFound("livestream", id)
	}
	if live(l.DeletedAt) {
		l.DeletedAt = s.deletedAt()
		s.livestreams[id] = l
	}
	return nil
}

func (s *Store) CreateLivestreamerApplication(_ context.Context, a *model.LivestreamerApplication) (*model.LivestreamerApplication, error) {
	if err := a.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.applications {
		if other.UserID == a.UserID {
			return nil, fmt.Errorf("%w: user %d already applied", model.ErrConflict, a.UserID)
		}
	}
	rec := *a
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.applications[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetLivestreamerApplicationByUser(_ context.Context, userID uint64) (*model.LivestreamerApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.applications, func(a *model.LivestreamerApplication) bool { return a.UserID == userID })
	if len(rows) == 0 {
		return nil, notFound("livestreamer application for user", userID)
	}
	return &rows[0], nil
}

func (s *Store) ListLivestreamerApplications(_ context.Context, status model.ApplicationStatus) ([]model.LivestreamerApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.applications, func(a *model.LivestreamerApplication) bool {
		return status == "" || a.Status == status
	})
	return newestFirst(rows, func(a *model.LivestreamerApplication) time.Time { return a.CreatedAt }), nil
}

func (s *Store) ReviewLivestreamerApplication(_ context.Context, id uint64, status model.ApplicationStatus, notes string, reviewerID uint64) (*model.LivestreamerApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return nil, notFound("livestreamer application", id)
	}
	if err := policy.CheckApplicationReview(a.Status, status); err != nil {
		return nil, err
	}
	now := s.now()
	a.Status = status
	a.ReviewNotes = notes
	a.ReviewedBy = &reviewerID
	a.ReviewedAt = &now
	a.UpdatedAt = now
	s.applications[id] = a
	return &a, nil
}

func (s *Store) LivestreamerApplicationStats(_ context.Context) (model.ApplicationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st model.ApplicationStats
	for _, a := range s.applications {
		st.Total++
		switch a.Status {
		case model.ApplicationPending:
			st.Pending++
		case model.ApplicationApproved:
			st.Approved++
		case model.ApplicationRejected:
			st.Rejected++
		}
	}
	return st, nil
}

func (s *Store) IsApprovedLivestreamer(_ context.Context, userID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.applications {
		if a.UserID == userID && a.Status == model.ApplicationApproved {
			return true, nil
		}
	}
	return false, nil
}
