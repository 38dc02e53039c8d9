package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID           uint64         `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Content      string         `gorm:"type:text" json:"content"`
	AuthorID     uint64         `gorm:"not null;index:idx_author_time" json:"authorId"`
	CommunityID  *uint64        `gorm:"index" json:"communityId"`
	GroupID      *uint64        `gorm:"index" json:"groupId"`
	Upvotes      int64          `gorm:"not null;default:0" json:"upvotes"`
	CommentCount int64          `gorm:"not null;default:0" json:"commentCount"`
	CreatedAt    time.Time      `gorm:"index:idx_author_time" json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) Prepare() error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" || p.AuthorID == 0 {
		return fmt.Errorf("%w: post title and author required", ErrValidation)
	}
	if p.Upvotes < 0 {
		p.Upvotes = 0
	}
	p.CommentCount = 0
	return nil
}

type Comment struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	PostID    uint64         `gorm:"not null;index" json:"postId"`
	AuthorID  uint64         `gorm:"not null;index" json:"authorId"`
	ParentID  *uint64        `json:"parentId"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Upvotes   int64          `gorm:"not null;default:0" json:"upvotes"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Comment) Prepare() error {
	if c.PostID == 0 || c.AuthorID == 0 || strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: comment post, author and content required", ErrValidation)
	}
	return nil
}

// PostSort 帖子列表排序方式
type PostSort string

const (
	SortNew PostSort = "new"
	SortTop PostSort = "top"
	SortHot PostSort = "hot"
)

func (s PostSort) Valid() bool {
	switch s {
	case SortNew, SortTop, SortHot:
		return true
	}
	return false
}
