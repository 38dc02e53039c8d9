package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionBlocked  ConnectionStatus = "blocked"
)

func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionPending, ConnectionAccepted, ConnectionBlocked:
		return true
	}
	return false
}

// Connection 用户之间的关系，UserID 为发起方，ConnectedUserID 为被邀请方
type Connection struct {
	ID              uint64           `gorm:"primaryKey" json:"id"`
	UserID          uint64           `gorm:"not null;index" json:"userId"`
	ConnectedUserID uint64           `gorm:"not null;index" json:"connectedUserId"`
	// PairKey 较小 id 在前，两个方向的请求落在同一个唯一键上
	PairKey         string           `gorm:"size:41;not null;uniqueIndex:uk_connection_pair" json:"-"`
	Status          ConnectionStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Involves 判断用户是否为关系的任意一方
func (c *Connection) Involves(userID uint64) bool {
	return c.UserID == userID || c.ConnectedUserID == userID
}

func (c *Connection) Prepare() error {
	if c.UserID == 0 || c.ConnectedUserID == 0 {
		return fmt.Errorf("%w: both users required", ErrValidation)
	}
	if c.UserID == c.ConnectedUserID {
		return fmt.Errorf("%w: cannot connect to self", ErrValidation)
	}
	c.Status = ConnectionPending
	c.PairKey = ConnectionPairKey(c.UserID, c.ConnectedUserID)
	return nil
}

// ConnectionPairKey 与方向无关的关系键
func ConnectionPairKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// DirectMessage 私信，主键使用 uuid
type DirectMessage struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	SenderID   uint64         `gorm:"not null;index:idx_dm_pair,priority:1" json:"senderId"`
	ReceiverID uint64         `gorm:"not null;index:idx_dm_pair,priority:2;index" json:"receiverId"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *DirectMessage) Prepare() error {
	m.Content = strings.TrimSpace(m.Content)
	if m.SenderID == 0 || m.ReceiverID == 0 || m.Content == "" {
		return fmt.Errorf("%w: sender, receiver and content required", ErrValidation)
	}
	if m.SenderID == m.ReceiverID {
		return fmt.Errorf("%w: cannot message self", ErrValidation)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type OutboxStatus int8

const (
	OutboxPending OutboxStatus = 0
	OutboxSent    OutboxStatus = 1
	OutboxFailed  OutboxStatus = 2
)

// NotificationOutbox 通知事件表，与业务数据同事务写入，由 relayer 异步投递
type NotificationOutbox struct {
	ID        uint64       `gorm:"primaryKey" json:"id"`
	EventType string       `gorm:"size:32;not null" json:"eventType"` // dm
	UserID    uint64       `gorm:"not null;index" json:"userId"`
	Payload   string       `gorm:"type:text;not null" json:"payload"`
	Status    OutboxStatus `gorm:"not null;default:0;index" json:"status"`
	Retry     int          `gorm:"not null;default:0" json:"retry"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (NotificationOutbox) TableName() string { return "notification_outbox" }
