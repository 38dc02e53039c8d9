package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainOnceRetriesUntilLimit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	msgs := NewMessageService(store)

	sender := newUser(t, store, "sender")
	good := newUser(t, store, "good", func(u *model.User) { u.NotifyDMs = true })
	bad := newUser(t, store, "bad", func(u *model.User) { u.NotifyDMs = true })
	_, err := msgs.Send(ctx, sender.ID, good.ID, "hello")
	require.NoError(t, err)
	_, err = msgs.Send(ctx, sender.ID, bad.ID, "hello")
	require.NoError(t, err)

	calls := map[uint64]int{}
	relayer := NewOutboxRelayer(store, func(_ context.Context, ob *model.NotificationOutbox) error {
		calls[ob.UserID]++
		if ob.UserID == bad.ID {
			return errors.New("broker unavailable")
		}
		return nil
	}, time.Millisecond)

	assert.Equal(1, relayer.DrainOnce(ctx))
	assert.Equal(1, calls[good.ID])
	assert.Equal(1, calls[bad.ID])

	for i := 1; i < relayer.maxRetry; i++ {
		assert.Zero(relayer.DrainOnce(ctx))
	}
	assert.Equal(relayer.maxRetry, calls[bad.ID])

	// 超过重试上限后不再投递
	assert.Zero(relayer.DrainOnce(ctx))
	assert.Equal(relayer.maxRetry, calls[bad.ID])
	assert.Equal(1, calls[good.ID])

	rows, err := store.ListPendingOutbox(ctx, 10, relayer.maxRetry+1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(model.OutboxFailed, rows[0].Status)
	assert.Equal(relayer.maxRetry, rows[0].Retry)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := memory.New()
	relayer := NewOutboxRelayer(store, LogSender, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relayer.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relayer did not stop")
	}
}

func TestNewOutboxRelayerDefaults(t *testing.T) {
	r := NewOutboxRelayer(memory.New(), LogSender, 0)
	assert.Equal(t, time.Second, r.interval)
	assert.Equal(t, 200, r.batchSize)
}
