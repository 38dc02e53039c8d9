package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"The_Connection/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if err := u.Prepare(); err != nil {
		return nil, err
	}
	rec := *u
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).
			Where("(username = ? OR email = ?)", rec.Username, rec.Email).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: username or email already taken", model.ErrConflict)
		}
		return translate(tx.Create(&rec).Error, "user", rec.Username)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := s.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).Order("id").First(&u).Error; err != nil {
		return nil, translate(err, "user", username)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).Order("id").First(&u).Error; err != nil {
		return nil, translate(err, "user", email)
	}
	return &u, nil
}

func (s *Store) SearchUsers(ctx context.Context, term string, viewerID uint64, n int) ([]model.User, error) {
	q := s.DB.WithContext(ctx).Model(&model.User{})
	if strings.TrimSpace(term) != "" {
		pat := likePattern(term)
		q = q.Where("(LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?)", pat, pat)
	}
	q = s.excludeBlocked(q, "id", viewerID)
	var list []model.User
	if err := limit(q.Order("id ASC"), n).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) UpdateUser(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.Columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&model.User{ID: id}).Updates(cols).Error; err != nil {
			return nil, translate(err, "user", id)
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id uint64) error {
	return softDelete[model.User](ctx, s.DB, "user", id)
}

// SavePushToken 按 token upsert
func (s *Store) SavePushToken(ctx context.Context, t *model.PushToken) (*model.PushToken, error) {
	if t.UserID == 0 || t.Token == "" {
		return nil, fmt.Errorf("%w: user and token required", model.ErrValidation)
	}
	now := time.Now()
	rec := model.PushToken{UserID: t.UserID, Token: t.Token, Platform: t.Platform, CreatedAt: now, LastUsedAt: now}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "last_used_at"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, err
	}
	var out model.PushToken
	if err := s.DB.WithContext(ctx).Where("token = ?", t.Token).First(&out).Error; err != nil {
		return nil, translate(err, "push token", t.Token)
	}
	return &out, nil
}

func (s *Store) ListPushTokens(ctx context.Context, userID uint64) ([]model.PushToken, error) {
	var list []model.PushToken
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&list).Error
	return list, err
}

func (s *Store) DeletePushToken(ctx context.Context, token string) error {
	res := s.DB.WithContext(ctx).Where("token = ?", token).Delete(&model.PushToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "push token", token)
	}
	return nil
}
