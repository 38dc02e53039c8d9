package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Event struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"size:200" json:"location"`
	Address     string         `gorm:"size:255" json:"address"`
	City        string         `gorm:"size:64" json:"city"`
	State       string         `gorm:"size:64" json:"state"`
	EventDate   time.Time      `gorm:"not null;index" json:"eventDate"`
	StartTime   string         `gorm:"size:8" json:"startTime"`
	EndTime     string         `gorm:"size:8" json:"endTime"`
	IsPublic    bool           `gorm:"not null" json:"isPublic"`
	ShowOnMap   bool           `gorm:"not null" json:"showOnMap"`
	Latitude    *float64       `json:"latitude"`
	Longitude   *float64       `json:"longitude"`
	CommunityID *uint64        `gorm:"index" json:"communityId"`
	CreatorID   uint64         `gorm:"not null;index" json:"creatorId"`
	RSVPCount   int64          `gorm:"column:rsvp_count;not null;default:0" json:"rsvpCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Event) Prepare() error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" || e.CreatorID == 0 {
		return fmt.Errorf("%w: event title and creator required", ErrValidation)
	}
	if e.EventDate.IsZero() {
		return fmt.Errorf("%w: event date required", ErrValidation)
	}
	if (e.Latitude == nil) != (e.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", ErrValidation)
	}
	e.RSVPCount = 0
	return nil
}

type EventPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Address     *string    `json:"address"`
	EventDate   *time.Time `json:"eventDate"`
	StartTime   *string    `json:"startTime"`
	EndTime     *string    `json:"endTime"`
	IsPublic    *bool      `json:"isPublic"`
	ShowOnMap   *bool      `json:"showOnMap"`
}

func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Address != nil {
		e.Address = *p.Address
	}
	if p.EventDate != nil {
		e.EventDate = *p.EventDate
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.IsPublic != nil {
		e.IsPublic = *p.IsPublic
	}
	if p.ShowOnMap != nil {
		e.ShowOnMap = *p.ShowOnMap
	}
}

func (p EventPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Location != nil {
		cols["location"] = *p.Location
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	if p.EventDate != nil {
		cols["event_date"] = *p.EventDate
	}
	if p.StartTime != nil {
		cols["start_time"] = *p.StartTime
	}
	if p.EndTime != nil {
		cols["end_time"] = *p.EndTime
	}
	if p.IsPublic != nil {
		cols["is_public"] = *p.IsPublic
	}
	if p.ShowOnMap != nil {
		cols["show_on_map"] = *p.ShowOnMap
	}
	return cols
}

type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPNotGoing RSVPStatus = "not_going"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return true
	}
	return false
}

type EventRSVP struct {
	ID        uint64     `gorm:"primaryKey" json:"id"`
	EventID   uint64     `gorm:"not null;uniqueIndex:uk_event_user" json:"eventId"`
	UserID    uint64     `gorm:"not null;index;uniqueIndex:uk_event_user" json:"userId"`
	Status    RSVPStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (EventRSVP) TableName() string { return "event_rsvps" }
