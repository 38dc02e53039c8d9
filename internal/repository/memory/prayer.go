package memory

import (
	"context"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

func (s *Store) CreatePrayerRequest(_ context.Context, r *model.PrayerRequest) (*model.PrayerRequest, error) {
	if err := r.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.GroupID != nil {
		if g, ok := s.groups[*r.GroupID]; !ok || !live(g.DeletedAt) {
			return nil, notFound("group", *r.GroupID)
		}
	}
	rec := *r
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.prayerRequests[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetPrayerRequest(_ context.Context, id uint64) (*model.PrayerRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.prayerRequests[id]
	if !ok || !live(r.DeletedAt) {
		return nil, notFound("prayer request", id)
	}
	return &r, nil
}

func (s *Store) ListPrayerRequests(_ context.Context, f repository.PrayerRequestFilter) ([]model.PrayerRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.prayerRequests, func(r *model.PrayerRequest) bool {
		switch {
		case !live(r.DeletedAt):
			return false
		case f.AuthorID != 0 && r.AuthorID != f.AuthorID:
			return false
		case f.GroupID != 0 && (r.GroupID == nil || *r.GroupID != f.GroupID):
			return false
		case f.Answered != nil && r.IsAnswered != *f.Answered:
			return false
		}
		return true
	})
	rows = newestFirst(rows, func(r *model.PrayerRequest) time.Time { return r.CreatedAt })
	return policy.Limit(rows, f.Limit), nil
}

func (s *Store) ListPrayerRequestsVisibleTo(_ context.Context, userID uint64) ([]model.PrayerRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := map[uint64]struct{}{}
	for _, m := range s.groupMembers {
		if m.UserID == userID {
			groups[m.GroupID] = struct{}{}
		}
	}
	rows := collect(s.prayerRequests, func(r *model.PrayerRequest) bool {
		if !live(r.DeletedAt) {
			return false
		}
		inGroup := false
		if r.GroupID != nil {
			_, inGroup = groups[*r.GroupID]
		}
		return policy.CanViewPrayerRequest(r, userID, inGroup)
	})
	return newestFirst(rows, func(r *model.PrayerRequest) time.Time { return r.CreatedAt }), nil
}

func (s *Store) UpdatePrayerRequest(_ context.Context, id uint64, patch model.PrayerRequestPatch) (*model.PrayerRequest, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.prayerRequests[id]
	if !ok || !live(r.DeletedAt) {
		return nil, notFound("prayer request", id)
	}
	patch.Apply(&r)
	r.UpdatedAt = s.now()
	s.prayerRequests[id] = r
	return &r, nil
}

func (s *Store) DeletePrayerRequest(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.prayerRequests[id]
	if !ok {
		return notFound("prayer request", id)
	}
	if live(r.DeletedAt) {
		r.DeletedAt = s.deletedAt()
		s.prayerRequests[id] = r
	}
	return nil
}

func (s *Store) CreatePrayer(_ context.Context, requestID, userID uint64) (*model.Prayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.prayerRequests[requestID]
	if !ok || !live(r.DeletedAt) {
		return nil, notFound("prayer request", requestID)
	}
	p := model.Prayer{ID: s.nextIDLocked(), PrayerRequestID: requestID, UserID: userID, CreatedAt: s.now()}
	s.prayers[p.ID] = p
	r.PrayerCount = model.ClampAdd(r.PrayerCount, 1)
	s.prayerRequests[requestID] = r
	return &p, nil
}

func (s *Store) ListPrayers(_ context.Context, requestID uint64) ([]model.Prayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.prayers, func(p *model.Prayer) bool { return p.PrayerRequestID == requestID }), nil
}
