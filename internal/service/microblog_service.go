package service

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
)

type MicroblogService struct {
	store repository.Store
}

func NewMicroblogService(store repository.Store) *MicroblogService {
	return &MicroblogService{store: store}
}

func (s *MicroblogService) Create(ctx context.Context, userID uint64, m *model.Microblog) (*model.Microblog, error) {
	m.AuthorID = userID
	return s.store.CreateMicroblog(ctx, m)
}

func (s *MicroblogService) Get(ctx context.Context, id uint64) (*model.Microblog, error) {
	return s.store.GetMicroblog(ctx, id)
}

func (s *MicroblogService) List(ctx context.Context, f repository.MicroblogFilter) ([]model.Microblog, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return s.store.ListMicroblogs(ctx, f)
}

func (s *MicroblogService) own(ctx context.Context, userID, id uint64) error {
	m, err := s.store.GetMicroblog(ctx, id)
	if err != nil {
		return err
	}
	if m.AuthorID != userID {
		return fmt.Errorf("%w: only the author can change a microblog", model.ErrForbidden)
	}
	return nil
}

func (s *MicroblogService) Update(ctx context.Context, userID, id uint64, patch model.MicroblogPatch) (*model.Microblog, error) {
	if err := s.own(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.UpdateMicroblog(ctx, id, patch)
}

func (s *MicroblogService) Delete(ctx context.Context, userID, id uint64) error {
	if err := s.own(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteMicroblog(ctx, id)
}

func (s *MicroblogService) Like(ctx context.Context, userID, id uint64) (*model.Microblog, error) {
	return s.store.LikeMicroblog(ctx, id, userID)
}

func (s *MicroblogService) Unlike(ctx context.Context, userID, id uint64) (*model.Microblog, error) {
	return s.store.UnlikeMicroblog(ctx, id, userID)
}

func (s *MicroblogService) Liked(ctx context.Context, userID uint64) ([]uint64, error) {
	return s.store.ListLikedMicroblogIDs(ctx, userID)
}
