package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

type MemberRole string

const (
	RoleOwner     MemberRole = "owner"
	RoleModerator MemberRole = "moderator"
	RoleMember    MemberRole = "member"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleModerator, RoleMember:
		return true
	}
	return false
}

type Community struct {
	ID               uint64         `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:100;not null" json:"name"`
	Slug             string         `gorm:"size:120;not null;index:idx_communities_slug,unique,where:deleted_at IS NULL" json:"slug"`
	Description      string         `gorm:"type:text" json:"description"`
	IconName         string         `gorm:"size:32" json:"iconName"`
	IconColor        string         `gorm:"size:16" json:"iconColor"`
	City             string         `gorm:"size:64" json:"city"`
	State            string         `gorm:"size:64" json:"state"`
	IsLocalCommunity bool           `gorm:"not null" json:"isLocalCommunity"`
	Latitude         *float64       `json:"latitude"`
	Longitude        *float64       `json:"longitude"`
	IsPrivate        bool           `gorm:"not null" json:"isPrivate"`
	HasPrivateWall   bool           `gorm:"not null" json:"hasPrivateWall"`
	HasPublicWall    bool           `gorm:"not null" json:"hasPublicWall"`
	MemberCount      int64          `gorm:"not null;default:0" json:"memberCount"`
	CreatedBy        uint64         `gorm:"not null;index" json:"createdBy"`
	CreatedAt        time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 由名称生成 slug，例如 "Young Adults!" -> "young-adults"
func Slugify(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

func (c *Community) Prepare() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: community name required", ErrValidation)
	}
	if c.CreatedBy == 0 {
		return fmt.Errorf("%w: community creator required", ErrValidation)
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Slug == "" {
		return fmt.Errorf("%w: community name has no usable characters", ErrValidation)
	}
	// 计数由成员表维护，创建时只算创建者
	c.MemberCount = 0
	return nil
}

type CommunityPatch struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	IconName       *string `json:"iconName"`
	IconColor      *string `json:"iconColor"`
	IsPrivate      *bool   `json:"isPrivate"`
	HasPrivateWall *bool   `json:"hasPrivateWall"`
	HasPublicWall  *bool   `json:"hasPublicWall"`
}

func (p CommunityPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: community name required", ErrValidation)
	}
	return nil
}

func (p CommunityPatch) Apply(c *Community) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IconName != nil {
		c.IconName = *p.IconName
	}
	if p.IconColor != nil {
		c.IconColor = *p.IconColor
	}
	if p.IsPrivate != nil {
		c.IsPrivate = *p.IsPrivate
	}
	if p.HasPrivateWall != nil {
		c.HasPrivateWall = *p.HasPrivateWall
	}
	if p.HasPublicWall != nil {
		c.HasPublicWall = *p.HasPublicWall
	}
}

func (p CommunityPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.IconName != nil {
		cols["icon_name"] = *p.IconName
	}
	if p.IconColor != nil {
		cols["icon_color"] = *p.IconColor
	}
	if p.IsPrivate != nil {
		cols["is_private"] = *p.IsPrivate
	}
	if p.HasPrivateWall != nil {
		cols["has_private_wall"] = *p.HasPrivateWall
	}
	if p.HasPublicWall != nil {
		cols["has_public_wall"] = *p.HasPublicWall
	}
	return cols
}

type CommunityMember struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	CommunityID uint64     `gorm:"not null;index;uniqueIndex:uk_community_user" json:"communityId"`
	UserID      uint64     `gorm:"not null;index;uniqueIndex:uk_community_user" json:"userId"`
	Role        MemberRole `gorm:"size:16;not null" json:"role"`
	CreatedAt   time.Time  `json:"joinedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CommunityRoom 社区聊天室
type CommunityRoom struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	CommunityID uint64         `gorm:"not null;index" json:"communityId"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsPrivate   bool           `gorm:"not null" json:"isPrivate"`
	CreatedBy   uint64         `gorm:"not null" json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *CommunityRoom) Prepare() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.CommunityID == 0 || r.Name == "" {
		return fmt.Errorf("%w: room community and name required", ErrValidation)
	}
	return nil
}

type CommunityRoomPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPrivate   *bool   `json:"isPrivate"`
}

func (p CommunityRoomPatch) Apply(r *CommunityRoom) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.IsPrivate != nil {
		r.IsPrivate = *p.IsPrivate
	}
}

func (p CommunityRoomPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.IsPrivate != nil {
		cols["is_private"] = *p.IsPrivate
	}
	return cols
}

type ChatMessage struct {
	ID              uint64         `gorm:"primaryKey" json:"id"`
	RoomID          uint64         `gorm:"not null;index" json:"roomId"`
	SenderID        uint64         `gorm:"not null" json:"senderId"`
	Content         string         `gorm:"type:text;not null" json:"content"`
	IsSystemMessage bool           `gorm:"not null" json:"isSystemMessage"`
	CreatedAt       time.Time      `json:"createdAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *ChatMessage) Prepare() error {
	if m.RoomID == 0 || m.SenderID == 0 || strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("%w: room, sender and content required", ErrValidation)
	}
	return nil
}

// Group 私密小组，祷告请求可限定在小组内可见
type Group struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsPrivate   bool           `gorm:"not null" json:"isPrivate"`
	CreatedBy   uint64         `gorm:"not null;index" json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (g *Group) Prepare() error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" || g.CreatedBy == 0 {
		return fmt.Errorf("%w: group name and creator required", ErrValidation)
	}
	return nil
}

type GroupMember struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	GroupID   uint64    `gorm:"not null;uniqueIndex:uk_group_user" json:"groupId"`
	UserID    uint64    `gorm:"not null;index;uniqueIndex:uk_group_user" json:"userId"`
	IsAdmin   bool      `gorm:"not null" json:"isAdmin"`
	CreatedAt time.Time `json:"joinedAt"`
}
