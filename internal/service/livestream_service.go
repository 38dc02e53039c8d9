package service

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
)

type LivestreamService struct {
	store repository.Store
}

func NewLivestreamService(store repository.Store) *LivestreamService {
	return &LivestreamService{store: store}
}

// Create 需要通过审核的主播或管理员
func (s *LivestreamService) Create(ctx context.Context, userID uint64, l *model.Livestream) (*model.Livestream, error) {
	ok, err := s.store.IsApprovedLivestreamer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := requireAdmin(ctx, s.store, userID); err != nil {
			return nil, fmt.Errorf("%w: approved livestreamers only", model.ErrForbidden)
		}
	}
	l.HostID = userID
	return s.store.CreateLivestream(ctx, l)
}

func (s *LivestreamService) List(ctx context.Context, status string) ([]model.Livestream, error) {
	return s.store.ListLivestreams(ctx, status)
}

func (s *LivestreamService) Delete(ctx context.Context, userID, id uint64) error {
	l, err := s.store.GetLivestream(ctx, id)
	if err != nil {
		return err
	}
	if l.HostID != userID {
		if _, err := requireAdmin(ctx, s.store, userID); err != nil {
			return err
		}
	}
	return s.store.DeleteLivestream(ctx, id)
}

func (s *LivestreamService) Apply(ctx context.Context, userID uint64, a *model.LivestreamerApplication) (*model.LivestreamerApplication, error) {
	a.UserID = userID
	return s.store.CreateLivestreamerApplication(ctx, a)
}

func (s *LivestreamService) MyApplication(ctx context.Context, userID uint64) (*model.LivestreamerApplication, error) {
	return s.store.GetLivestreamerApplicationByUser(ctx, userID)
}

func (s *LivestreamService) Applications(ctx context.Context, adminID uint64, status model.ApplicationStatus) ([]model.LivestreamerApplication, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}
	return s.store.ListLivestreamerApplications(ctx, status)
}

func (s *LivestreamService) Review(ctx context.Context, adminID, id uint64, status model.ApplicationStatus, notes string) (*model.LivestreamerApplication, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}
	return s.store.ReviewLivestreamerApplication(ctx, id, status, notes, adminID)
}

func (s *LivestreamService) Stats(ctx context.Context, adminID uint64) (model.ApplicationStats, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return model.ApplicationStats{}, err
	}
	return s.store.LivestreamerApplicationStats(ctx)
}
