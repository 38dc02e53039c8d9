package service

import (
	"context"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/pkg"
	"The_Connection/internal/repository"
)

type Sender func(ctx context.Context, ob *model.NotificationOutbox) error

// OutboxRelayer 从 outbox 表读取通知事件异步投递，失败的事件在重试上限内反复投递
type OutboxRelayer struct {
	repo      repository.OutboxStore
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(repo repository.OutboxStore, sender Sender, interval time.Duration) *OutboxRelayer {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      repo,
		batchSize: 200,
		maxRetry:  5,
		interval:  interval,
		sender:    sender,
	}
}

// Run outbox启动器，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 投递一批，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.ListPendingOutbox(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		log.Error("outbox query failed", "err", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			outboxDelivered.WithLabelValues("failed").Inc()
			log.Warn("outbox send failed", "id", ob.ID, "retry", ob.Retry, "err", err)
			if err := r.repo.MarkOutboxFailed(ctx, ob.ID); err != nil {
				log.Error("outbox mark failed", "id", ob.ID, "err", err)
			}
			continue
		}
		outboxDelivered.WithLabelValues("sent").Inc()
		if err := r.repo.MarkOutboxSent(ctx, ob.ID); err != nil {
			log.Error("outbox mark sent", "id", ob.ID, "err", err)
			continue
		}
		sent++
	}
	return sent
}

// LogSender 未配置 Kafka 时使用，只打印事件
func LogSender(_ context.Context, ob *model.NotificationOutbox) error {
	log.Info("outbox send", "type", ob.EventType, "user", ob.UserID, "payload", ob.Payload)
	return nil
}

// KafkaSender 以接收方 id 作为分区 key，同一用户的通知保持顺序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.NotificationOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.UserID), []byte(ob.Payload))
	}
}
