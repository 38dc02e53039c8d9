package model

import (
	"fmt"
	"time"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// ContentTypes 可被举报的内容类型
var ContentTypes = map[string]bool{
	"post":           true,
	"comment":        true,
	"microblog":      true,
	"event":          true,
	"community":      true,
	"prayer_request": true,
	"message":        true,
	"user":           true,
	"livestream":     true,
}

type ContentReport struct {
	ID             uint64       `gorm:"primaryKey" json:"id"`
	ReporterID     uint64       `gorm:"not null;index" json:"reporterId"`
	ContentType    string       `gorm:"size:32;not null;index:idx_report_content,priority:1" json:"contentType"`
	ContentID      uint64       `gorm:"not null;index:idx_report_content,priority:2" json:"contentId"`
	Reason         string       `gorm:"size:64;not null" json:"reason"`
	Description    string       `gorm:"type:text" json:"description"`
	Status         ReportStatus `gorm:"size:16;not null;index" json:"status"`
	ModeratorID    *uint64      `json:"moderatorId"`
	ModeratorNotes string       `gorm:"type:text" json:"moderatorNotes"`
	ResolvedAt     *time.Time   `json:"resolvedAt"`
	CreatedAt      time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Prepare 新举报一律从 pending 开始
func (r *ContentReport) Prepare() error {
	if r.ReporterID == 0 || r.ContentID == 0 || r.ContentType == "" {
		return fmt.Errorf("%w: reporter, content type and content id required", ErrValidation)
	}
	if !ContentTypes[r.ContentType] {
		return fmt.Errorf("%w: unknown content type %q", ErrValidation, r.ContentType)
	}
	if r.Reason == "" {
		r.Reason = "other"
	}
	r.Status = ReportPending
	r.ModeratorID = nil
	r.ModeratorNotes = ""
	r.ResolvedAt = nil
	return nil
}

// ReportUpdate 管理员处理举报
type ReportUpdate struct {
	Status         ReportStatus `json:"status"`
	ModeratorID    uint64       `json:"-"`
	ModeratorNotes *string      `json:"moderatorNotes"`
}

type UserBlock struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	BlockerID uint64    `gorm:"not null;uniqueIndex:uk_blocker_blocked" json:"blockerId"`
	BlockedID uint64    `gorm:"not null;index;uniqueIndex:uk_blocker_blocked" json:"blockedUserId"`
	Reason    string    `gorm:"size:255" json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

func (b *UserBlock) Prepare() error {
	if b.BlockerID == 0 || b.BlockedID == 0 {
		return fmt.Errorf("%w: blocker and blocked user required", ErrValidation)
	}
	if b.BlockerID == b.BlockedID {
		return fmt.Errorf("%w: cannot block self", ErrValidation)
	}
	return nil
}
