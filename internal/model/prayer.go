package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type PrivacyLevel string

const (
	PrivacyPublic    PrivacyLevel = "public"
	PrivacyGroupOnly PrivacyLevel = "group-only"
	PrivacyPrivate   PrivacyLevel = "private"
)

func (p PrivacyLevel) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyGroupOnly, PrivacyPrivate:
		return true
	}
	return false
}

type PrayerRequest struct {
	ID                  uint64         `gorm:"primaryKey" json:"id"`
	Title               string         `gorm:"size:200;not null" json:"title"`
	Content             string         `gorm:"type:text;not null" json:"content"`
	AuthorID            uint64         `gorm:"not null;index" json:"authorId"`
	GroupID             *uint64        `gorm:"index" json:"groupId"`
	PrivacyLevel        PrivacyLevel   `gorm:"size:16;not null;index" json:"privacyLevel"`
	IsAnonymous         bool           `gorm:"not null" json:"isAnonymous"`
	IsAnswered          bool           `gorm:"not null" json:"isAnswered"`
	AnsweredDescription string         `gorm:"type:text" json:"answeredDescription"`
	PrayerCount         int64          `gorm:"not null;default:0" json:"prayerCount"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *PrayerRequest) Prepare() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" || r.AuthorID == 0 {
		return fmt.Errorf("%w: prayer request title and author required", ErrValidation)
	}
	if r.PrivacyLevel == "" {
		r.PrivacyLevel = PrivacyPublic
	}
	if !r.PrivacyLevel.Valid() {
		return fmt.Errorf("%w: unknown privacy level %q", ErrValidation, r.PrivacyLevel)
	}
	if r.PrivacyLevel == PrivacyGroupOnly && r.GroupID == nil {
		return fmt.Errorf("%w: group-only prayer request needs a group", ErrValidation)
	}
	r.PrayerCount = 0
	return nil
}

type PrayerRequestPatch struct {
	Title               *string       `json:"title"`
	Content             *string       `json:"content"`
	PrivacyLevel        *PrivacyLevel `json:"privacyLevel"`
	IsAnswered          *bool         `json:"isAnswered"`
	AnsweredDescription *string       `json:"answeredDescription"`
}

func (p PrayerRequestPatch) Validate() error {
	if p.PrivacyLevel != nil && !p.PrivacyLevel.Valid() {
		return fmt.Errorf("%w: unknown privacy level %q", ErrValidation, *p.PrivacyLevel)
	}
	return nil
}

func (p PrayerRequestPatch) Apply(r *PrayerRequest) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.PrivacyLevel != nil {
		r.PrivacyLevel = *p.PrivacyLevel
	}
	if p.IsAnswered != nil {
		r.IsAnswered = *p.IsAnswered
	}
	if p.AnsweredDescription != nil {
		r.AnsweredDescription = *p.AnsweredDescription
	}
}

func (p PrayerRequestPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.PrivacyLevel != nil {
		cols["privacy_level"] = *p.PrivacyLevel
	}
	if p.IsAnswered != nil {
		cols["is_answered"] = *p.IsAnswered
	}
	if p.AnsweredDescription != nil {
		cols["answered_description"] = *p.AnsweredDescription
	}
	return cols
}

// Prayer 一次“为此祷告”，同一用户可以多次祷告
type Prayer struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	PrayerRequestID uint64    `gorm:"not null;index" json:"prayerRequestId"`
	UserID          uint64    `gorm:"not null;index" json:"userId"`
	CreatedAt       time.Time `json:"createdAt"`
}
