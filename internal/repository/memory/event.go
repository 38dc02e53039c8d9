package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

func (s *Store) CreateEvent(_ context.Context, e *model.Event) (*model.Event, error) {
	if err := e.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *e
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.events[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetEvent(_ context.Context, id uint64) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok || !live(e.DeletedAt) {
		return nil, notFound("event", id)
	}
	return &e, nil
}

func (s *Store) ListEvents(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blocked := s.blockedByLocked(f.ViewerID)
	rows := collect(s.events, func(e *model.Event) bool {
		switch {
		case !live(e.DeletedAt), isBlocked(blocked, e.CreatorID):
			return false
		case f.CreatorID != 0 && e.CreatorID != f.CreatorID:
			return false
		case f.CommunityID != 0 && (e.CommunityID == nil || *e.CommunityID != f.CommunityID):
			return false
		case f.PublicOnly && !e.IsPublic:
			return false
		case !f.From.IsZero() && e.EventDate.Before(f.From):
			return false
		}
		return true
	})
	if f.From.IsZero() {
		rows = newestFirst(rows, func(e *model.Event) time.Time { return e.CreatedAt })
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].EventDate.Before(rows[j].EventDate) })
	}
	return policy.Limit(rows, f.Limit), nil
}

func (s *Store) ListNearbyEvents(_ context.Context, lat, lng, radiusKm float64) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.events, func(e *model.Event) bool { return live(e.DeletedAt) && e.ShowOnMap })
	return policy.NearbyEvents(rows, lat, lng, radiusKm), nil
}

func (s *Store) UpdateEvent(_ context.Context, id uint64, patch model.EventPatch) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || !live(e.DeletedAt) {
		return nil, notFound("event", id)
	}
	patch.Apply(&e)
	e.UpdatedAt = s.now()
	s.events[id] = e
	return &e, nil
}

func (s *Store) DeleteEvent(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return notFound("event", id)
	}
	if live(e.DeletedAt) {
		e.DeletedAt = s.deletedAt()
		s.events[id] = e
	}
	return nil
}

func (s *Store) CreateEventRSVP(_ context.Context, eventID, userID uint64, status model.RSVPStatus) (*model.EventRSVP, error) {
	if status == "" {
		status = model.RSVPGoing
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown rsvp status %q", model.ErrValidation, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok || !live(e.DeletedAt) {
		return nil, notFound("event", eventID)
	}
	if _, err := s.rsvpLocked(eventID, userID); err == nil {
		return nil, fmt.Errorf("%w: user %d already responded to event %d", model.ErrConflict, userID, eventID)
	}
	now := s.now()
	r := model.EventRSVP{ID: s.nextIDLocked(), EventID: eventID, UserID: userID, Status: status, CreatedAt: now, UpdatedAt: now}
	s.rsvps[r.ID] = r
	e.RSVPCount = model.ClampAdd(e.RSVPCount, 1)
	s.events[eventID] = e
	return &r, nil
}

func (s *Store) rsvpLocked(eventID, userID uint64) (*model.EventRSVP, error) {
	for _, r := range s.rsvps {
		if r.EventID == eventID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, notFound("rsvp", fmt.Sprintf("%d/%d", eventID, userID))
}

func (s *Store) GetEventRSVP(_ context.Context, eventID, userID uint64) (*model.EventRSVP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rsvpLocked(eventID, userID)
}

func (s *Store) UpdateEventRSVP(_ context.Context, id uint64, status model.RSVPStatus) (*model.EventRSVP, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown rsvp status %q", model.ErrValidation, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rsvps[id]
	if !ok {
		return nil, notFound("rsvp", id)
	}
	r.Status = status
	r.UpdatedAt = s.now()
	s.rsvps[id] = r
	return &r, nil
}

func (s *Store) DeleteEventRSVP(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rsvps[id]
	if !ok {
		return notFound("rsvp", id)
	}
	delete(s.rsvps, id)
	if e, ok := s.events[r.EventID]; ok {
		e.RSVPCount = model.ClampAdd(e.RSVPCount, -1)
		s.events[r.EventID] = e
	}
	return nil
}

func (s *Store) ListEventRSVPs(_ context.Context, eventID uint64) ([]model.EventRSVP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.rsvps, func(r *model.EventRSVP) bool { return r.EventID == eventID }), nil
}
