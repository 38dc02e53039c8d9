package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Livestream struct {
	ID           uint64         `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	HostID       uint64         `gorm:"not null;index" json:"hostId"`
	Status       string         `gorm:"size:16;not null" json:"status"` // upcoming / live / ended
	ScheduledFor *time.Time     `json:"scheduledFor"`
	StreamURL    string         `gorm:"size:512" json:"streamUrl"`
	ViewerCount  int64          `gorm:"not null;default:0" json:"viewerCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Livestream) Prepare() error {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" || l.HostID == 0 {
		return fmt.Errorf("%w: livestream title and host required", ErrValidation)
	}
	if l.Status == "" {
		l.Status = "upcoming"
	}
	return nil
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// LivestreamerApplication 主播资格申请，每个用户一份
type LivestreamerApplication struct {
	ID           uint64            `gorm:"primaryKey" json:"id"`
	UserID       uint64            `gorm:"not null;uniqueIndex" json:"userId"`
	MinistryName string            `gorm:"size:200" json:"ministryName"`
	Experience   string            `gorm:"type:text" json:"experience"`
	Reason       string            `gorm:"type:text;not null" json:"reason"`
	Status       ApplicationStatus `gorm:"size:16;not null;index" json:"status"`
	ReviewNotes  string            `gorm:"type:text" json:"reviewNotes"`
	ReviewedBy   *uint64           `json:"reviewedBy"`
	ReviewedAt   *time.Time        `json:"reviewedAt"`
	CreatedAt    time.Time         `json:"submittedAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func (a *LivestreamerApplication) Prepare() error {
	if a.UserID == 0 || strings.TrimSpace(a.Reason) == "" {
		return fmt.Errorf("%w: applicant and reason required", ErrValidation)
	}
	a.Status = ApplicationPending
	a.ReviewNotes = ""
	a.ReviewedBy = nil
	a.ReviewedAt = nil
	return nil
}

type ApplicationStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}
