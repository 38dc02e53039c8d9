package service

import (
	"context"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
)

type ConnectionService struct {
	store repository.Store
}

func NewConnectionService(store repository.Store) *ConnectionService {
	return &ConnectionService{store: store}
}

// Request 发起关系，初始为 pending
func (s *ConnectionService) Request(ctx context.Context, userID, otherID uint64) (*model.Connection, error) {
	if _, err := s.store.GetUser(ctx, otherID); err != nil {
		return nil, err
	}
	return s.store.CreateConnection(ctx, &model.Connection{UserID: userID, ConnectedUserID: otherID})
}

// SetStatus 权限由 policy.CheckConnectionTransition 在存储层事务内判断
func (s *ConnectionService) SetStatus(ctx context.Context, userID, connectionID uint64, status model.ConnectionStatus) (*model.Connection, error) {
	return s.store.UpdateConnectionStatus(ctx, connectionID, status, userID)
}

func (s *ConnectionService) List(ctx context.Context, userID uint64, status model.ConnectionStatus) ([]model.Connection, error) {
	return s.store.ListConnections(ctx, userID, status)
}
