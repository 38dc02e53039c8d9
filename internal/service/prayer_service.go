package service

import (
	"context"
	"errors"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

type PrayerService struct {
	store repository.Store
}

func NewPrayerService(store repository.Store) *PrayerService {
	return &PrayerService{store: store}
}

// Create group-only 请求要求作者是该小组成员
func (s *PrayerService) Create(ctx context.Context, userID uint64, r *model.PrayerRequest) (*model.PrayerRequest, error) {
	r.AuthorID = userID
	if r.GroupID != nil {
		if _, err := s.store.GetGroupMember(ctx, *r.GroupID, userID); err != nil {
			return nil, asForbidden(err, "group members only")
		}
	}
	return s.store.CreatePrayerRequest(ctx, r)
}

// Get 对 viewer 不可见的请求按不存在处理
func (s *PrayerService) Get(ctx context.Context, viewerID, id uint64) (*model.PrayerRequest, error) {
	r, err := s.store.GetPrayerRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	inGroup := false
	if r.GroupID != nil && viewerID != 0 {
		_, err := s.store.GetGroupMember(ctx, *r.GroupID, viewerID)
		switch {
		case err == nil:
			inGroup = true
		case !errors.Is(err, model.ErrNotFound):
			return nil, err
		}
	}
	if !policy.CanViewPrayerRequest(r, viewerID, inGroup) {
		return nil, fmt.Errorf("%w: prayer request %d", model.ErrNotFound, id)
	}
	return r, nil
}

func (s *PrayerService) ListVisible(ctx context.Context, viewerID uint64) ([]model.PrayerRequest, error) {
	return s.store.ListPrayerRequestsVisibleTo(ctx, viewerID)
}

func (s *PrayerService) ListMine(ctx context.Context, userID uint64, answered *bool) ([]model.PrayerRequest, error) {
	return s.store.ListPrayerRequests(ctx, repository.PrayerRequestFilter{AuthorID: userID, Answered: answered})
}

func (s *PrayerService) own(ctx context.Context, userID, id uint64) error {
	r, err := s.store.GetPrayerRequest(ctx, id)
	if err != nil {
		return err
	}
	if r.AuthorID != userID {
		return fmt.Errorf("%w: only the author can change a prayer request", model.ErrForbidden)
	}
	return nil
}

func (s *PrayerService) Update(ctx context.Context, userID, id uint64, patch model.PrayerRequestPatch) (*model.PrayerRequest, error) {
	if err := s.own(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.UpdatePrayerRequest(ctx, id, patch)
}

// MarkAnswered 标记为已应允
func (s *PrayerService) MarkAnswered(ctx context.Context, userID, id uint64, description string) (*model.PrayerRequest, error) {
	answered := true
	return s.Update(ctx, userID, id, model.PrayerRequestPatch{IsAnswered: &answered, AnsweredDescription: &description})
}

func (s *PrayerService) Delete(ctx context.Context, userID, id uint64) error {
	if err := s.own(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeletePrayerRequest(ctx, id)
}

// Pray 只能为自己看得到的请求祷告
func (s *PrayerService) Pray(ctx context.Context, userID, id uint64) (*model.Prayer, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.CreatePrayer(ctx, id, userID)
}

func (s *PrayerService) Prayers(ctx context.Context, viewerID, id uint64) ([]model.Prayer, error) {
	if _, err := s.Get(ctx, viewerID, id); err != nil {
		return nil, err
	}
	return s.store.ListPrayers(ctx, id)
}
