package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
)

type EventService struct {
	store repository.Store
	now   func() time.Time
}

func NewEventService(store repository.Store) *EventService {
	return &EventService{store: store, now: time.Now}
}

func (s *EventService) Create(ctx context.Context, userID uint64, e *model.Event) (*model.Event, error) {
	e.CreatorID = userID
	if e.CommunityID != nil {
		if _, err := s.store.GetCommunityMember(ctx, *e.CommunityID, userID); err != nil {
			return nil, asForbidden(err, "community members only")
		}
	}
	return s.store.CreateEvent(ctx, e)
}

func (s *EventService) Get(ctx context.Context, id uint64) (*model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// Upcoming 今天零点之后的公开活动，按日期升序
func (s *EventService) Upcoming(ctx context.Context, viewerID uint64, limit int) ([]model.Event, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListEvents(ctx, repository.EventFilter{ViewerID: viewerID, PublicOnly: true, From: today, Limit: limit})
}

func (s *EventService) List(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	return s.store.ListEvents(ctx, f)
}

func (s *EventService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]model.Event, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", model.ErrValidation)
	}
	if radiusKm <= 0 {
		radiusKm = 25
	}
	return s.store.ListNearbyEvents(ctx, lat, lng, radiusKm)
}

func (s *EventService) own(ctx context.Context, userID, id uint64) error {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if e.CreatorID != userID {
		return fmt.Errorf("%w: only the creator can change an event", model.ErrForbidden)
	}
	return nil
}

func (s *EventService) Update(ctx context.Context, userID, id uint64, patch model.EventPatch) (*model.Event, error) {
	if err := s.own(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.UpdateEvent(ctx, id, patch)
}

func (s *EventService) Delete(ctx context.Context, userID, id uint64) error {
	if err := s.own(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteEvent(ctx, id)
}

// RSVP 首次报名新建记录，之后只更新状态
func (s *EventService) RSVP(ctx context.Context, userID, eventID uint64, status model.RSVPStatus) (*model.EventRSVP, error) {
	existing, err := s.store.GetEventRSVP(ctx, eventID, userID)
	switch {
	case err == nil:
		return s.store.UpdateEventRSVP(ctx, existing.ID, status)
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}
	return s.store.CreateEventRSVP(ctx, eventID, userID, status)
}

func (s *EventService) CancelRSVP(ctx context.Context, userID, eventID uint64) error {
	r, err := s.store.GetEventRSVP(ctx, eventID, userID)
	if err != nil {
		return err
	}
	return s.store.DeleteEventRSVP(ctx, r.ID)
}

func (s *EventService) RSVPs(ctx context.Context, eventID uint64) ([]model.EventRSVP, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListEventRSVPs(ctx, eventID)
}
