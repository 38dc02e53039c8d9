package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

// ErrDMNotAllowed 不区分是被拉黑还是隐私设置拒绝
var ErrDMNotAllowed = fmt.Errorf("%w: you cannot message this user", model.ErrForbidden)

const EventTypeDM = "dm"

type MessageService struct {
	store repository.Store
}

func NewMessageService(store repository.Store) *MessageService {
	return &MessageService{store: store}
}

// CanSend 接收方拉黑了发送方，或 dmPrivacy 不允许时返回 false
func (s *MessageService) CanSend(ctx context.Context, senderID uint64, receiver *model.User) (bool, error) {
	blocked, err := s.store.GetBlockedUserIDsFor(ctx, receiver.ID)
	if err != nil {
		return false, err
	}
	_, senderBlocked := policy.BlockSet(blocked)[senderID]

	var conn *model.Connection
	if receiver.DMPrivacy == model.DMPrivacyConnections {
		conn, err = s.store.GetConnectionBetween(ctx, senderID, receiver.ID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return false, err
		}
	}
	return policy.CanSendDM(receiver, senderBlocked, conn), nil
}

// dmPayload 推送给通知服务的内容
type dmPayload struct {
	MessageID  string    `json:"message_id"`
	SenderID   uint64    `json:"sender_id"`
	ReceiverID uint64    `json:"receiver_id"`
	Preview    string    `json:"preview"`
	EventTime  time.Time `json:"event_time"`
}

func preview(content string) string {
	r := []rune(content)
	if len(r) > 80 {
		return string(r[:80]) + "…"
	}
	return content
}

// Send 校验权限后写入私信；接收方开启私信通知时同事务写入 outbox
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint64, content string) (*model.DirectMessage, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot message self", model.ErrValidation)
	}
	receiver, err := s.store.GetUser(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanSend(ctx, senderID, receiver)
	if err != nil {
		return nil, err
	}
	if !ok {
		dmRejected.Inc()
		return nil, ErrDMNotAllowed
	}

	msg := &model.DirectMessage{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := msg.Prepare(); err != nil {
		return nil, err
	}
	var notify *model.NotificationOutbox
	if receiver.NotifyDMs {
		payload, err := json.Marshal(dmPayload{
			MessageID:  msg.ID,
			SenderID:   senderID,
			ReceiverID: receiverID,
			Preview:    preview(msg.Content),
			EventTime:  time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		notify = &model.NotificationOutbox{EventType: EventTypeDM, UserID: receiverID, Payload: string(payload)}
	}
	out, err := s.store.CreateDirectMessage(ctx, msg, notify)
	if err != nil {
		return nil, err
	}
	dmSent.Inc()
	return out, nil
}

func (s *MessageService) Conversation(ctx context.Context, userID, otherID uint64) ([]model.DirectMessage, error) {
	return s.store.ListDirectMessages(ctx, userID, otherID)
}

// Partners 最近联系人，隐藏自己拉黑的用户
func (s *MessageService) Partners(ctx context.Context, userID uint64) ([]uint64, error) {
	ids, err := s.store.ListConversationPartners(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked, err := blockedBy(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return policy.ExcludeAuthors(ids, func(id *uint64) uint64 { return *id }, blocked), nil
}
