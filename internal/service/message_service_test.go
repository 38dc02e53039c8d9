package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"The_Connection/internal/model"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRespectsPrivacy(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewMessageService(store)

	sender := newUser(t, store, "sender")
	open := newUser(t, store, "open")
	friendsOnly := newUser(t, store, "friends", func(u *model.User) { u.DMPrivacy = model.DMPrivacyConnections })
	closed := newUser(t, store, "closed", func(u *model.User) { u.DMPrivacy = model.DMPrivacyNobody })

	_, err := svc.Send(ctx, sender.ID, open.ID, "hi")
	assert.NoError(err)

	_, err = svc.Send(ctx, sender.ID, closed.ID, "hi")
	assert.ErrorIs(err, ErrDMNotAllowed)
	assert.ErrorIs(err, model.ErrForbidden)

	_, err = svc.Send(ctx, sender.ID, friendsOnly.ID, "hi")
	assert.ErrorIs(err, ErrDMNotAllowed)

	// pending 关系不够
	conn, err := store.CreateConnection(ctx, &model.Connection{UserID: sender.ID, ConnectedUserID: friendsOnly.ID})
	require.NoError(t, err)
	_, err = svc.Send(ctx, sender.ID, friendsOnly.ID, "hi")
	assert.ErrorIs(err, ErrDMNotAllowed)

	_, err = store.UpdateConnectionStatus(ctx, conn.ID, model.ConnectionAccepted, friendsOnly.ID)
	require.NoError(t, err)
	msg, err := svc.Send(ctx, sender.ID, friendsOnly.ID, "hi again")
	require.NoError(t, err)
	assert.NotEmpty(msg.ID)
	assert.Equal("hi again", msg.Content)
}

func TestSendRejectedWhenBlocked(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewMessageService(store)

	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")
	_, err := store.CreateUserBlock(ctx, &model.UserBlock{BlockerID: alice.ID, BlockedID: bob.ID})
	require.NoError(t, err)

	_, err = svc.Send(ctx, bob.ID, alice.ID, "hello?")
	assert.ErrorIs(err, ErrDMNotAllowed)

	// 拉黑只约束被拉黑的一方
	_, err = svc.Send(ctx, alice.ID, bob.ID, "bye")
	assert.NoError(err)

	partners, err := svc.Partners(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(partners)
	partners, err = svc.Partners(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal([]uint64{alice.ID}, partners)
}

func TestSendValidation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewMessageService(store)
	alice := newUser(t, store, "alice")

	_, err := svc.Send(ctx, alice.ID, alice.ID, "me")
	assert.ErrorIs(err, model.ErrValidation)

	_, err = svc.Send(ctx, alice.ID, 987654, "anyone?")
	assert.ErrorIs(err, model.ErrNotFound)
}

func TestSendWritesOutboxWhenReceiverWantsNotifications(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewMessageService(store)

	sender := newUser(t, store, "sender")
	loud := newUser(t, store, "loud", func(u *model.User) { u.NotifyDMs = true })
	quiet := newUser(t, store, "quiet")

	long := strings.Repeat("祷", 100)
	msg, err := svc.Send(ctx, sender.ID, loud.ID, long)
	require.NoError(t, err)
	_, err = svc.Send(ctx, sender.ID, quiet.ID, "shh")
	require.NoError(t, err)

	rows, err := store.ListPendingOutbox(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	ob := rows[0]
	assert.Equal(EventTypeDM, ob.EventType)
	assert.Equal(loud.ID, ob.UserID)
	assert.Equal(model.OutboxPending, ob.Status)

	var payload dmPayload
	require.NoError(t, json.Unmarshal([]byte(ob.Payload), &payload))
	assert.Equal(msg.ID, payload.MessageID)
	assert.Equal(sender.ID, payload.SenderID)
	assert.Equal(loud.ID, payload.ReceiverID)
	assert.Equal(strings.Repeat("祷", 80)+"…", payload.Preview)
}

func TestConversationOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewMessageService(store)
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.Send(ctx, alice.ID, bob.ID, text)
		require.NoError(t, err)
	}
	_, err := svc.Send(ctx, bob.ID, alice.ID, "four")
	require.NoError(t, err)

	msgs, err := svc.Conversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	var contents []string
	for i, m := range msgs {
		contents = append(contents, m.Content)
		if i > 0 {
			assert.False(m.CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}
	assert.ElementsMatch([]string{"one", "two", "three", "four"}, contents)
}
