package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"The_Connection/internal/model"
	"The_Connection/internal/pkg"
	"The_Connection/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid username or password")

// Sessions 记录每个用户当前有效的 access token，未配置 Redis 时为 nil
type Sessions interface {
	Save(ctx context.Context, userID uint64, token string) error
	Delete(ctx context.Context, userID uint64) error
}

type UserService struct {
	store    repository.Store
	sessions Sessions
}

func NewUserService(store repository.Store, sessions Sessions) *UserService {
	return &UserService{store: store, sessions: sessions}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", model.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, &model.User{
		Username:  username,
		Email:     email,
		Password:  string(hash),
		NotifyDMs: true,
	})
}

// Login 用户名或邮箱均可登录
func (s *UserService) Login(ctx context.Context, login, password string) (*pkg.Pair, *model.User, error) {
	var (
		user *model.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.GetUserByEmail(ctx, login)
	} else {
		user, err = s.store.GetUserByUsername(ctx, login)
	}
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil, ErrBadCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, ErrBadCredentials
	}
	pair, err := pkg.GeneratePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.Save(ctx, user.ID, pair.AccessToken); err != nil {
			return nil, nil, err
		}
	}
	return pair, user, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Delete(ctx, userID)
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	pair, claims, err := pkg.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}
	// 已注销的用户不再续签
	if _, err := s.store.GetUser(ctx, claims.UserID); err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.Save(ctx, claims.UserID, pair.AccessToken); err != nil {
			return nil, err
		}
	}
	return pair, nil
}

// ChangePassword 修改成功后清除会话，需要重新登录
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", model.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	if _, err := s.store.UpdateUser(ctx, userID, model.UserPatch{Password: &h}); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

func (s *UserService) Get(ctx context.Context, userID uint64) (*model.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateSettings 资料与通知设置，密码和管理员标记不能从这里改
func (s *UserService) UpdateSettings(ctx context.Context, userID uint64, patch model.UserPatch) (*model.User, error) {
	patch.Password = nil
	patch.IsAdmin = nil
	return s.store.UpdateUser(ctx, userID, patch)
}

func (s *UserService) Search(ctx context.Context, viewerID uint64, term string, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.store.SearchUsers(ctx, term, viewerID, limit)
}

func (s *UserService) Delete(ctx context.Context, userID uint64) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

func (s *UserService) RegisterPushToken(ctx context.Context, userID uint64, token, platform string) (*model.PushToken, error) {
	return s.store.SavePushToken(ctx, &model.PushToken{UserID: userID, Token: token, Platform: platform})
}

// RemovePushToken 只能删除自己名下的 token
func (s *UserService) RemovePushToken(ctx context.Context, userID uint64, token string) error {
	tokens, err := s.store.ListPushTokens(ctx, userID)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		if t.Token == token {
			return s.store.DeletePushToken(ctx, token)
		}
	}
	return fmt.Errorf("%w: push token", model.ErrNotFound)
}
