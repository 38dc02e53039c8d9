package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Microblog struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	AuthorID    uint64         `gorm:"not null;index" json:"authorId"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	ImageURL    string         `gorm:"size:512" json:"imageUrl"`
	CommunityID *uint64        `gorm:"index" json:"communityId"`
	ParentID    *uint64        `gorm:"index" json:"parentId"`
	LikeCount   int64          `gorm:"not null;default:0" json:"likeCount"`
	ReplyCount  int64          `gorm:"not null;default:0" json:"replyCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Microblog) Prepare() error {
	if m.AuthorID == 0 || strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("%w: microblog author and content required", ErrValidation)
	}
	m.LikeCount = 0
	m.ReplyCount = 0
	return nil
}

type MicroblogPatch struct {
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
}

func (p MicroblogPatch) Apply(m *Microblog) {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.ImageURL != nil {
		m.ImageURL = *p.ImageURL
	}
}

func (p MicroblogPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	return cols
}

type MicroblogLike struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	MicroblogID uint64    `gorm:"not null;uniqueIndex:uk_microblog_user" json:"microblogId"`
	UserID      uint64    `gorm:"not null;index;uniqueIndex:uk_microblog_user" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}
