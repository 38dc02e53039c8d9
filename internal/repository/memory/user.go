package memory

import (
	"context"
	"fmt"
	"strings"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
)

func (s *Store) CreateUser(_ context.Context, u *model.User) (*model.User, error) {
	if err := u.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.users {
		if !live(other.DeletedAt) {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email {
			return nil, fmt.Errorf("%w: username or email already taken", model.ErrConflict)
		}
	}
	rec := *u
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.users[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetUser(_ context.Context, id uint64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || !live(u.DeletedAt) {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.Username == username }, username)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.findUser(func(u *model.User) bool { return u.Email == email }, email)
}

func (s *Store) findUser(match func(*model.User) bool, key string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := collect(s.users, func(u *model.User) bool { return live(u.DeletedAt) && match(u) })
	if len(rows) == 0 {
		return nil, notFound("user", key)
	}
	return &rows[0], nil
}

func (s *Store) SearchUsers(_ context.Context, term string, viewerID uint64, limit int) ([]model.User, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	s.mu.RLock()
	defer s.mu.RUnlock()
	blocked := s.blockedByLocked(viewerID)
	rows := collect(s.users, func(u *model.User) bool {
		if !live(u.DeletedAt) || isBlocked(blocked, u.ID) {
			return false
		}
		return term == "" ||
			strings.Contains(strings.ToLower(u.Username), term) ||
			strings.Contains(strings.ToLower(u.DisplayName), term)
	})
	return policy.Limit(rows, limit), nil
}

func (s *Store) UpdateUser(_ context.Context, id uint64, patch model.UserPatch) (*model.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !live(u.DeletedAt) {
		return nil, notFound("user", id)
	}
	patch.Apply(&u)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return &u, nil
}

func (s *Store) DeleteUser(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return notFound("user", id)
	}
	if live(u.DeletedAt) {
		u.DeletedAt = s.deletedAt()
		s.users[id] = u
	}
	return nil
}

func (s *Store) SavePushToken(_ context.Context, t *model.PushToken) (*model.PushToken, error) {
	if t.UserID == 0 || t.Token == "" {
		return nil, fmt.Errorf("%w: user and token required", model.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, existing := range s.pushTokens {
		if existing.Token == t.Token {
			existing.UserID = t.UserID
			existing.Platform = t.Platform
			existing.LastUsedAt = now
			s.pushTokens[id] = existing
			return &existing, nil
		}
	}
	rec := *t
	rec.ID = s.nextIDLocked()
	rec.CreatedAt = now
	rec.LastUsedAt = now
	s.pushTokens[rec.ID] = rec
	return &rec, nil
}

func (s *Store) ListPushTokens(_ context.Context, userID uint64) ([]model.PushToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.pushTokens, func(t *model.PushToken) bool { return t.UserID == userID }), nil
}

func (s *Store) DeletePushToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.pushTokens {
		if t.Token == token {
			delete(s.pushTokens, id)
			return nil
		}
	}
	return notFound("push token", token)
}
