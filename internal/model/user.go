package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type DMPrivacy string

const (
	DMPrivacyEveryone    DMPrivacy = "everyone"
	DMPrivacyConnections DMPrivacy = "connections"
	DMPrivacyNobody      DMPrivacy = "nobody"
)

func (p DMPrivacy) Valid() bool {
	switch p {
	case DMPrivacyEveryone, DMPrivacyConnections, DMPrivacyNobody:
		return true
	}
	return false
}

type User struct {
	ID                            uint64         `gorm:"primaryKey" json:"id"`
	Username                      string         `gorm:"size:32;not null;index:idx_users_username,unique,where:deleted_at IS NULL" json:"username"`
	Email                         string         `gorm:"size:128;not null;index:idx_users_email,unique,where:deleted_at IS NULL" json:"email"`
	Password                      string         `gorm:"size:255;not null" json:"-"`
	DisplayName                   string         `gorm:"size:64" json:"displayName"`
	Bio                           string         `gorm:"type:text" json:"bio"`
	City                          string         `gorm:"size:64" json:"city"`
	State                         string         `gorm:"size:64" json:"state"`
	DMPrivacy                     DMPrivacy      `gorm:"size:16;not null" json:"dmPrivacy"`
	NotifyDMs                     bool           `gorm:"column:notify_dms;not null" json:"notifyDms"`
	NotifyCommunities             bool           `gorm:"not null" json:"notifyCommunities"`
	NotifyForums                  bool           `gorm:"not null" json:"notifyForums"`
	NotifyFeed                    bool           `gorm:"not null" json:"notifyFeed"`
	IsAdmin                       bool           `gorm:"not null" json:"isAdmin"`
	IsVerifiedApologeticsAnswerer bool           `gorm:"not null" json:"isVerifiedApologeticsAnswerer"`
	CreatedAt                     time.Time      `json:"createdAt"`
	UpdatedAt                     time.Time      `json:"updatedAt"`
	DeletedAt                     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Prepare 校验必填字段并补齐默认值，两种存储在写入前都会调用
func (u *User) Prepare() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Username == "" || u.Email == "" {
		return fmt.Errorf("%w: username and email required", ErrValidation)
	}
	if u.DMPrivacy == "" {
		u.DMPrivacy = DMPrivacyEveryone
	}
	if !u.DMPrivacy.Valid() {
		return fmt.Errorf("%w: unknown dm privacy %q", ErrValidation, u.DMPrivacy)
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}
	return nil
}

// UserPatch 用户资料与设置的部分更新，nil 字段不修改
type UserPatch struct {
	DisplayName       *string    `json:"displayName"`
	Bio               *string    `json:"bio"`
	City              *string    `json:"city"`
	State             *string    `json:"state"`
	DMPrivacy         *DMPrivacy `json:"dmPrivacy"`
	NotifyDMs         *bool      `json:"notifyDms"`
	NotifyCommunities *bool      `json:"notifyCommunities"`
	NotifyForums      *bool      `json:"notifyForums"`
	NotifyFeed        *bool      `json:"notifyFeed"`
	Password          *string    `json:"-"`
	IsAdmin           *bool      `json:"-"`
}

func (p UserPatch) Validate() error {
	if p.DMPrivacy != nil && !p.DMPrivacy.Valid() {
		return fmt.Errorf("%w: unknown dm privacy %q", ErrValidation, *p.DMPrivacy)
	}
	return nil
}

func (p UserPatch) Apply(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.State != nil {
		u.State = *p.State
	}
	if p.DMPrivacy != nil {
		u.DMPrivacy = *p.DMPrivacy
	}
	if p.NotifyDMs != nil {
		u.NotifyDMs = *p.NotifyDMs
	}
	if p.NotifyCommunities != nil {
		u.NotifyCommunities = *p.NotifyCommunities
	}
	if p.NotifyForums != nil {
		u.NotifyForums = *p.NotifyForums
	}
	if p.NotifyFeed != nil {
		u.NotifyFeed = *p.NotifyFeed
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
}

// Columns 转成 gorm Updates 使用的列名映射
func (p UserPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.DisplayName != nil {
		cols["display_name"] = *p.DisplayName
	}
	if p.Bio != nil {
		cols["bio"] = *p.Bio
	}
	if p.City != nil {
		cols["city"] = *p.City
	}
	if p.State != nil {
		cols["state"] = *p.State
	}
	if p.DMPrivacy != nil {
		cols["dm_privacy"] = *p.DMPrivacy
	}
	if p.NotifyDMs != nil {
		cols["notify_dms"] = *p.NotifyDMs
	}
	if p.NotifyCommunities != nil {
		cols["notify_communities"] = *p.NotifyCommunities
	}
	if p.NotifyForums != nil {
		cols["notify_forums"] = *p.NotifyForums
	}
	if p.NotifyFeed != nil {
		cols["notify_feed"] = *p.NotifyFeed
	}
	if p.Password != nil {
		cols["password"] = *p.Password
	}
	if p.IsAdmin != nil {
		cols["is_admin"] = *p.IsAdmin
	}
	return cols
}

// PushToken 移动端推送 token，按 token 唯一
type PushToken struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	UserID     uint64    `gorm:"not null;index" json:"userId"`
	Token      string    `gorm:"size:255;not null;uniqueIndex" json:"token"`
	Platform   string    `gorm:"size:16" json:"platform"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
}
