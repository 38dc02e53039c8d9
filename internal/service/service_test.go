package service

import (
	"context"
	"testing"

	"The_Connection/internal/model"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, s *memory.Store, name string, edit ...func(*model.User)) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com"}
	for _, f := range edit {
		f(u)
	}
	out, err := s.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return out
}

func makeAdmin(t *testing.T, s *memory.Store, id uint64) {
	t.Helper()
	yes := true
	_, err := s.UpdateUser(context.Background(), id, model.UserPatch{IsAdmin: &yes})
	require.NoError(t, err)
}
